package memory

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

type txKey struct{}

// staged holds the writes of one unit of work
type staged struct {
	accounts     map[uint64]*entity.Account
	versions     map[uint64]uint64 // committed version each staged update was based on
	created      map[uint64]bool
	transactions []*entity.Transaction
	records      map[string]*entity.IdempotencyRecord
	payouts      map[string]*entity.PayoutRequest
	newPayouts   map[string]bool
	locks        []string
	done         bool
}

func newStaged() *staged {
	return &staged{
		accounts:   make(map[uint64]*entity.Account),
		versions:   make(map[uint64]uint64),
		created:    make(map[uint64]bool),
		records:    make(map[string]*entity.IdempotencyRecord),
		payouts:    make(map[string]*entity.PayoutRequest),
		newPayouts: make(map[string]bool),
	}
}

func stagedFrom(ctx context.Context) *staged {
	if tx, ok := ctx.Value(txKey{}).(*staged); ok && !tx.done {
		return tx
	}
	return nil
}

// UnitOfWork implements persistence.UnitOfWork over a Store
type UnitOfWork struct {
	store *Store
}

// Begin starts a unit of work
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if err := u.store.check("begin"); err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, txKey{}, newStaged()), nil
}

// Commit applies the staged writes, or nothing if any check fails
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx := stagedFrom(ctx)
	if tx == nil {
		return errors.New("no active unit of work")
	}
	defer u.finish(tx)

	if err := u.store.check("commit"); err != nil {
		return err
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, account := range tx.accounts {
		current, exists := s.accounts[id]
		if tx.created[id] {
			if exists {
				return errs.ErrDuplicateAccount
			}
			if owner, taken := s.codes[account.ReferralCode]; taken && owner != id {
				return errs.ErrConstraintViolation
			}
			continue
		}
		if !exists || current.Version != tx.versions[id] {
			return errs.ErrConcurrentModification
		}
	}
	for key := range tx.records {
		if _, exists := s.idempotency[key]; exists {
			return errs.ErrConcurrentModification
		}
	}
	for _, t := range tx.transactions {
		if _, exists := s.transactions[t.ID]; exists {
			return errs.ErrConstraintViolation
		}
	}

	for id, account := range tx.accounts {
		s.accounts[id] = copyAccount(account)
		s.codes[account.ReferralCode] = id
	}
	for _, t := range tx.transactions {
		s.transactions[t.ID] = copyTransaction(t)
		s.byAccount[t.AccountID] = append(s.byAccount[t.AccountID], t.ID)
	}
	for key, record := range tx.records {
		s.idempotency[key] = copyRecord(record)
	}
	for id, payout := range tx.payouts {
		s.payouts[id] = copyPayout(payout)
	}
	return nil
}

// Rollback discards the staged writes
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx := stagedFrom(ctx)
	if tx == nil {
		return nil
	}
	u.finish(tx)
	return nil
}

func (u *UnitOfWork) finish(tx *staged) {
	tx.done = true
	for i := len(tx.locks) - 1; i >= 0; i-- {
		u.store.rows.unlock(tx.locks[i])
	}
	tx.locks = nil
}

// GetAccountRepository returns an account repository bound to ctx's unit of work, if any
func (u *UnitOfWork) GetAccountRepository(ctx context.Context) persistence.AccountRepository {
	return &accountRepository{store: u.store, tx: stagedFrom(ctx)}
}

// GetTransactionRepository returns a transaction repository bound to ctx's unit of work, if any
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return &transactionRepository{store: u.store, tx: stagedFrom(ctx)}
}

// GetIdempotencyRepository returns an idempotency repository bound to ctx's unit of work, if any
func (u *UnitOfWork) GetIdempotencyRepository(ctx context.Context) persistence.IdempotencyRepository {
	return &idempotencyRepository{store: u.store, tx: stagedFrom(ctx)}
}

// GetPayoutRepository returns a payout repository bound to ctx's unit of work, if any
func (u *UnitOfWork) GetPayoutRepository(ctx context.Context) persistence.PayoutRepository {
	return &payoutRepository{store: u.store, tx: stagedFrom(ctx)}
}

var _ persistence.UnitOfWork = (*UnitOfWork)(nil)
