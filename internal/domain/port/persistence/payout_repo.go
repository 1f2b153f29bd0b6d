package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// PayoutRepository tracks payout requests until they settle
type PayoutRepository interface {
	Create(ctx context.Context, payout *entity.PayoutRequest) error

	// Update overwrites the mutable fields of a payout request
	//
	// Possible errors:
	// - ErrPayoutNotFound: If the request doesn't exist
	Update(ctx context.Context, payout *entity.PayoutRequest) error

	// GetByID retrieves a payout request
	//
	// Possible errors:
	// - ErrPayoutNotFound: If the request doesn't exist
	GetByID(ctx context.Context, id string) (*entity.PayoutRequest, error)

	// GetByExternalRef finds a request by the processor's reference
	GetByExternalRef(ctx context.Context, externalRef string) (*entity.PayoutRequest, error)

	// LockByID loads the request and locks it until the unit of work ends
	LockByID(ctx context.Context, id string) (*entity.PayoutRequest, error)

	// ListInFlight returns non-terminal requests last touched before updatedBefore, oldest first
	ListInFlight(ctx context.Context, updatedBefore time.Time, limit int) ([]*entity.PayoutRequest, error)

	// CountInFlight counts requests still holding a reservation
	CountInFlight(ctx context.Context) (int64, error)
}
