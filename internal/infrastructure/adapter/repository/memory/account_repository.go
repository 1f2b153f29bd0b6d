package memory

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

type accountRepository struct {
	store *Store
	tx    *staged
}

func (r *accountRepository) GetByID(ctx context.Context, id uint64) (*entity.Account, error) {
	if err := r.store.check("get_account"); err != nil {
		return nil, err
	}
	if r.tx != nil {
		if account, ok := r.tx.accounts[id]; ok {
			return copyAccount(account), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return copyAccount(account), nil
}

func (r *accountRepository) GetByReferralCode(ctx context.Context, code string) (*entity.Account, error) {
	if err := r.store.check("get_account_by_code"); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	id, ok := r.store.codes[code]
	r.store.mu.RUnlock()
	if !ok {
		return nil, errs.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := r.store.check("create_account"); err != nil {
		return err
	}

	s := r.store
	if r.tx != nil {
		s.mu.RLock()
		_, exists := s.accounts[account.ID]
		owner, taken := s.codes[account.ReferralCode]
		s.mu.RUnlock()

		if exists || r.tx.created[account.ID] {
			return errs.ErrDuplicateAccount
		}
		if taken && owner != account.ID {
			return errs.ErrConstraintViolation
		}
		r.tx.accounts[account.ID] = copyAccount(account)
		r.tx.created[account.ID] = true
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return errs.ErrDuplicateAccount
	}
	if _, taken := s.codes[account.ReferralCode]; taken {
		return errs.ErrConstraintViolation
	}
	s.accounts[account.ID] = copyAccount(account)
	s.codes[account.ReferralCode] = account.ID
	return nil
}

func (r *accountRepository) LockForUpdate(ctx context.Context, ids ...uint64) (map[uint64]*entity.Account, error) {
	if err := r.store.check("lock_accounts"); err != nil {
		return nil, err
	}

	ordered := sortedIDs(ids)
	if r.tx != nil {
		for _, id := range ordered {
			key := accountKey(id)
			if err := r.store.rows.lock(ctx, key); err != nil {
				return nil, err
			}
			r.tx.locks = append(r.tx.locks, key)
		}
	}

	accounts := make(map[uint64]*entity.Account, len(ordered))
	for _, id := range ordered {
		account, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		accounts[id] = account
	}
	return accounts, nil
}

func (r *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	if err := r.store.check("update_account"); err != nil {
		return err
	}

	s := r.store
	if r.tx != nil {
		if staged, ok := r.tx.accounts[account.ID]; ok {
			if staged.Version != account.Version {
				return errs.ErrConcurrentModification
			}
		} else {
			s.mu.RLock()
			current, exists := s.accounts[account.ID]
			s.mu.RUnlock()
			if !exists {
				return errs.ErrAccountNotFound
			}
			if current.Version != account.Version {
				return errs.ErrConcurrentModification
			}
			r.tx.versions[account.ID] = current.Version
		}

		account.Version++
		r.tx.accounts[account.ID] = copyAccount(account)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.accounts[account.ID]
	if !exists {
		return errs.ErrAccountNotFound
	}
	if current.Version != account.Version {
		return errs.ErrConcurrentModification
	}
	account.Version++
	s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (r *accountRepository) CountReferredBy(ctx context.Context, id uint64) (int64, error) {
	if err := r.store.check("count_referred"); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, account := range r.store.accounts {
		if account.ReferredBy != nil && *account.ReferredBy == id {
			count++
		}
	}
	return count, nil
}

var _ persistence.AccountRepository = (*accountRepository)(nil)
