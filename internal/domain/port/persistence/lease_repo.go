package persistence

import (
	"context"
	"time"
)

// LeaseRepository hands out named, expiring leases so that only one
// instance runs a background job at a time
type LeaseRepository interface {
	// Acquire takes or renews the lease for holder until now+ttl
	//
	// Possible errors:
	// - ErrLeaseHeld: If another holder owns an unexpired lease
	// - ErrStoreUnavailable: If the store cannot be reached
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) error

	// Release gives up the lease if holder still owns it
	Release(ctx context.Context, name, holder string) error
}
