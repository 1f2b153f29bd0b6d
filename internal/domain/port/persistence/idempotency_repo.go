package persistence

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// IdempotencyRepository stores results of successful keyed operations
type IdempotencyRepository interface {
	// Find returns the record for key, or nil when the key has not been used
	Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error)

	// Save stores a record in the current unit of work
	//
	// Possible errors:
	// - ErrDuplicateIdempotencyKey: If another operation committed the key first
	// - ErrStoreUnavailable: If the store cannot be reached
	Save(ctx context.Context, record *entity.IdempotencyRecord) error
}
