package memory

import (
	"context"
	"sort"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

type payoutRepository struct {
	store *Store
	tx    *staged
}

func (r *payoutRepository) Create(ctx context.Context, payout *entity.PayoutRequest) error {
	if err := r.store.check("create_payout"); err != nil {
		return err
	}

	s := r.store
	if r.tx != nil {
		s.mu.RLock()
		_, exists := s.payouts[payout.ID]
		s.mu.RUnlock()
		if exists || r.tx.newPayouts[payout.ID] {
			return errs.ErrConstraintViolation
		}
		r.tx.payouts[payout.ID] = copyPayout(payout)
		r.tx.newPayouts[payout.ID] = true
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payouts[payout.ID]; exists {
		return errs.ErrConstraintViolation
	}
	s.payouts[payout.ID] = copyPayout(payout)
	return nil
}

func (r *payoutRepository) Update(ctx context.Context, payout *entity.PayoutRequest) error {
	if err := r.store.check("update_payout"); err != nil {
		return err
	}

	s := r.store
	if r.tx != nil {
		if _, ok := r.tx.payouts[payout.ID]; !ok {
			s.mu.RLock()
			_, exists := s.payouts[payout.ID]
			s.mu.RUnlock()
			if !exists {
				return errs.ErrPayoutNotFound
			}
		}
		r.tx.payouts[payout.ID] = copyPayout(payout)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payouts[payout.ID]; !exists {
		return errs.ErrPayoutNotFound
	}
	s.payouts[payout.ID] = copyPayout(payout)
	return nil
}

func (r *payoutRepository) GetByID(ctx context.Context, id string) (*entity.PayoutRequest, error) {
	if err := r.store.check("get_payout"); err != nil {
		return nil, err
	}
	if r.tx != nil {
		if payout, ok := r.tx.payouts[id]; ok {
			return copyPayout(payout), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	payout, ok := r.store.payouts[id]
	if !ok {
		return nil, errs.ErrPayoutNotFound
	}
	return copyPayout(payout), nil
}

func (r *payoutRepository) GetByExternalRef(ctx context.Context, externalRef string) (*entity.PayoutRequest, error) {
	if err := r.store.check("get_payout_by_ref"); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, payout := range r.store.payouts {
		if externalRef != "" && payout.ExternalRef == externalRef {
			return copyPayout(payout), nil
		}
	}
	return nil, errs.ErrPayoutNotFound
}

func (r *payoutRepository) LockByID(ctx context.Context, id string) (*entity.PayoutRequest, error) {
	if err := r.store.check("lock_payout"); err != nil {
		return nil, err
	}
	if r.tx != nil {
		key := payoutKey(id)
		if err := r.store.rows.lock(ctx, key); err != nil {
			return nil, err
		}
		r.tx.locks = append(r.tx.locks, key)
	}
	return r.GetByID(ctx, id)
}

func (r *payoutRepository) ListInFlight(ctx context.Context, updatedBefore time.Time, limit int) ([]*entity.PayoutRequest, error) {
	if err := r.store.check("list_payouts"); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	var out []*entity.PayoutRequest
	for _, payout := range r.store.payouts {
		inFlight := payout.Status == entity.PayoutPending || payout.Status == entity.PayoutSubmitted
		if inFlight && payout.UpdatedAt.Before(updatedBefore) {
			out = append(out, copyPayout(payout))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *payoutRepository) CountInFlight(ctx context.Context) (int64, error) {
	if err := r.store.check("count_payouts"); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, payout := range r.store.payouts {
		if !payout.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

var _ persistence.PayoutRepository = (*payoutRepository)(nil)
