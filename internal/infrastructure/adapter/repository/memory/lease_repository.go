package memory

import (
	"context"
	"time"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

type leaseRepository struct {
	store *Store
}

func (r *leaseRepository) Acquire(ctx context.Context, name, holder string, ttl time.Duration) error {
	if err := r.store.check("acquire_lease"); err != nil {
		return err
	}

	s := r.store
	now := s.timeProvider.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.leases[name]; ok && current.holder != holder && current.expires.After(now) {
		return errs.ErrLeaseHeld
	}
	s.leases[name] = lease{holder: holder, expires: now.Add(ttl)}
	return nil
}

func (r *leaseRepository) Release(ctx context.Context, name, holder string) error {
	if err := r.store.check("release_lease"); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.leases[name]; ok && current.holder == holder {
		delete(s.leases, name)
	}
	return nil
}

var _ persistence.LeaseRepository = (*leaseRepository)(nil)
