package gateway

import (
	"context"
	"time"
)

// BalanceCache holds recently read balances for a bounded time
type BalanceCache interface {
	// Get returns the cached balance and whether it was present
	Get(ctx context.Context, accountID uint64) (int64, bool, error)
	Set(ctx context.Context, accountID uint64, balance int64) error
	Invalidate(ctx context.Context, accountIDs ...uint64) error
	// TTL is the staleness bound callers are told about
	TTL() time.Duration
}
