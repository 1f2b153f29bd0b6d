package memory

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

type idempotencyRepository struct {
	store *Store
	tx    *staged
}

func (r *idempotencyRepository) Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error) {
	if err := r.store.check("find_idempotency_key"); err != nil {
		return nil, err
	}
	if r.tx != nil {
		if record, ok := r.tx.records[key]; ok {
			return copyRecord(record), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	record, ok := r.store.idempotency[key]
	if !ok {
		return nil, nil
	}
	return copyRecord(record), nil
}

func (r *idempotencyRepository) Save(ctx context.Context, record *entity.IdempotencyRecord) error {
	if err := r.store.check("save_idempotency_key"); err != nil {
		return err
	}

	s := r.store
	if r.tx != nil {
		s.mu.RLock()
		_, exists := s.idempotency[record.Key]
		s.mu.RUnlock()
		if _, staged := r.tx.records[record.Key]; exists || staged {
			return errs.ErrDuplicateIdempotencyKey
		}
		r.tx.records[record.Key] = copyRecord(record)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.idempotency[record.Key]; exists {
		return errs.ErrDuplicateIdempotencyKey
	}
	s.idempotency[record.Key] = copyRecord(record)
	return nil
}

var _ persistence.IdempotencyRepository = (*idempotencyRepository)(nil)
