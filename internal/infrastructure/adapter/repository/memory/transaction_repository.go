package memory

import (
	"context"
	"sort"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

type transactionRepository struct {
	store *Store
	tx    *staged
}

func (r *transactionRepository) CreateBatch(ctx context.Context, transactions []*entity.Transaction) error {
	if err := r.store.check("create_transactions"); err != nil {
		return err
	}

	s := r.store
	if r.tx != nil {
		for _, t := range transactions {
			r.tx.transactions = append(r.tx.transactions, copyTransaction(t))
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range transactions {
		if _, exists := s.transactions[t.ID]; exists {
			return errs.ErrConstraintViolation
		}
	}
	for _, t := range transactions {
		s.transactions[t.ID] = copyTransaction(t)
		s.byAccount[t.AccountID] = append(s.byAccount[t.AccountID], t.ID)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	if err := r.store.check("get_transaction"); err != nil {
		return nil, err
	}
	for _, t := range r.all() {
		if t.ID == id {
			return copyTransaction(t), nil
		}
	}
	return nil, errs.ErrTransactionNotFound
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uint64, beforeID string, limit int) ([]*entity.Transaction, error) {
	if err := r.store.check("list_transactions"); err != nil {
		return nil, err
	}

	var items []*entity.Transaction
	for _, t := range r.forAccount(accountID) {
		if beforeID == "" || t.ID < beforeID {
			items = append(items, copyTransaction(t))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *transactionRepository) Summarize(ctx context.Context, accountID uint64) (int64, int64, error) {
	if err := r.store.check("summarize_transactions"); err != nil {
		return 0, 0, err
	}

	var sum, count int64
	for _, t := range r.forAccount(accountID) {
		sum += t.Amount
		count++
	}
	return sum, count, nil
}

func (r *transactionRepository) SumByKind(ctx context.Context, accountID uint64, kind entity.TransactionKind) (int64, error) {
	if err := r.store.check("sum_transactions"); err != nil {
		return 0, err
	}

	var sum int64
	for _, t := range r.forAccount(accountID) {
		if t.Kind == kind {
			sum += t.Amount
		}
	}
	return sum, nil
}

func (r *transactionRepository) ExistsByReference(ctx context.Context, kind entity.TransactionKind, referenceID string) (bool, error) {
	if err := r.store.check("find_reference"); err != nil {
		return false, err
	}

	for _, t := range r.all() {
		if t.Kind == kind && t.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

// all returns committed transactions followed by the ones staged in this unit of work
func (r *transactionRepository) all() []*entity.Transaction {
	r.store.mu.RLock()
	out := make([]*entity.Transaction, 0, len(r.store.transactions))
	for _, t := range r.store.transactions {
		out = append(out, t)
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		out = append(out, r.tx.transactions...)
	}
	return out
}

func (r *transactionRepository) forAccount(accountID uint64) []*entity.Transaction {
	r.store.mu.RLock()
	ids := r.store.byAccount[accountID]
	out := make([]*entity.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.store.transactions[id])
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		for _, t := range r.tx.transactions {
			if t.AccountID == accountID {
				out = append(out, t)
			}
		}
	}
	return out
}

var _ persistence.TransactionRepository = (*transactionRepository)(nil)
