package persistence

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// TransactionRepository is the append-only transaction log
type TransactionRepository interface {
	// CreateBatch appends postings. Existing postings are never updated.
	//
	// Possible errors:
	// - ErrConstraintViolation: If a posting ID already exists
	// - ErrStoreUnavailable: If the store cannot be reached
	CreateBatch(ctx context.Context, transactions []*entity.Transaction) error

	// GetByID retrieves a posting
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the posting doesn't exist
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)

	// ListByAccount returns up to limit postings older than beforeID, most recent first.
	// An empty beforeID starts from the newest posting.
	ListByAccount(ctx context.Context, accountID uint64, beforeID string, limit int) ([]*entity.Transaction, error)

	// Summarize returns the sum of amounts and the number of postings for an account
	Summarize(ctx context.Context, accountID uint64) (sum int64, count int64, err error)

	// SumByKind sums the amounts of one kind for an account
	SumByKind(ctx context.Context, accountID uint64, kind entity.TransactionKind) (int64, error)

	// ExistsByReference reports whether a posting of kind carries referenceID
	ExistsByReference(ctx context.Context, kind entity.TransactionKind, referenceID string) (bool, error)
}
