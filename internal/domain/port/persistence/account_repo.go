package persistence

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// AccountRepository defines the Account Store operations
type AccountRepository interface {
	// GetByID retrieves an account by ID
	//
	// Possible errors:
	// - ErrAccountNotFound: If account with specified ID doesn't exist
	// - ErrStoreUnavailable: If the store cannot be reached
	GetByID(ctx context.Context, id uint64) (*entity.Account, error)

	// GetByReferralCode resolves a referral code to its owner
	//
	// Possible errors:
	// - ErrAccountNotFound: If no account owns the code
	// - ErrStoreUnavailable: If the store cannot be reached
	GetByReferralCode(ctx context.Context, code string) (*entity.Account, error)

	// Create stores a new account
	//
	// Possible errors:
	// - ErrDuplicateAccount: If an account with the same ID already exists
	// - ErrConstraintViolation: If the referral code is already taken
	// - ErrStoreUnavailable: If the store cannot be reached
	Create(ctx context.Context, account *entity.Account) error

	// LockForUpdate loads and locks the given accounts in ascending ID order.
	// Locks are held until the surrounding unit of work ends.
	//
	// Possible errors:
	// - ErrAccountNotFound: If any of the accounts doesn't exist
	// - ErrStoreUnavailable: If the store cannot be reached or the lock wait timed out
	LockForUpdate(ctx context.Context, ids ...uint64) (map[uint64]*entity.Account, error)

	// Update writes the account if its version still matches and increments the version
	//
	// Possible errors:
	// - ErrConcurrentModification: If another writer updated the account first
	// - ErrStoreUnavailable: If the store cannot be reached
	Update(ctx context.Context, account *entity.Account) error

	// CountReferredBy counts accounts whose referred-by points at id
	CountReferredBy(ctx context.Context, id uint64) (int64, error)
}
