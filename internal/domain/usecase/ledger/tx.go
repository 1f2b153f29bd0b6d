package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

// Tx is the view an Operation gets of its unit of work. Postings are applied
// to the locked accounts in memory and written when the operation succeeds.
type Tx struct {
	ctx           context.Context
	engine        *Engine
	op            Operation
	correlationID string
	now           time.Time
	accounts      map[uint64]*entity.Account
	dirty         map[uint64]bool
	postings      []*entity.Transaction
}

func newTx(ctx context.Context, engine *Engine, op Operation, accounts map[uint64]*entity.Account) *Tx {
	return &Tx{
		ctx:           ctx,
		engine:        engine,
		op:            op,
		correlationID: engine.ids.NewCorrelationID(),
		now:           engine.timeProvider.Now(),
		accounts:      accounts,
		dirty:         make(map[uint64]bool),
	}
}

// Now is the timestamp shared by every posting of this operation
func (t *Tx) Now() time.Time {
	return t.now
}

// CorrelationID links the postings of this operation
func (t *Tx) CorrelationID() string {
	return t.correlationID
}

// Account returns a locked account
func (t *Tx) Account(id uint64) (*entity.Account, error) {
	account, ok := t.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d is not locked by operation %s", id, t.op.Name)
	}
	return account, nil
}

// Touch marks a locked account as modified outside of a posting
func (t *Tx) Touch(id uint64) {
	t.dirty[id] = true
}

// Credit posts a positive amount to an account
func (t *Tx) Credit(params entity.TransactionParams) (*entity.Transaction, error) {
	return t.post(params, 1)
}

// Debit posts a negative amount, failing with InsufficientBalance if the account cannot cover it
func (t *Tx) Debit(params entity.TransactionParams) (*entity.Transaction, error) {
	return t.post(params, -1)
}

func (t *Tx) post(params entity.TransactionParams, sign int64) (*entity.Transaction, error) {
	account, err := t.Account(params.AccountID)
	if err != nil {
		return nil, err
	}

	if sign > 0 {
		err = account.Credit(params.Amount, t.now)
	} else {
		err = account.Debit(params.Amount, t.now)
	}
	if err != nil {
		return nil, err
	}

	signed := params
	signed.Amount = sign * params.Amount

	posting, err := entity.NewTransaction(
		t.engine.ids.NewTransactionID(),
		signed,
		t.correlationID,
		t.op.IdempotencyKey,
		account.Balance(),
		t.now,
	)
	if err != nil {
		return nil, err
	}

	t.postings = append(t.postings, posting)
	t.dirty[account.ID] = true
	return posting, nil
}

// Postings returns the postings made so far
func (t *Tx) Postings() []*entity.Transaction {
	return t.postings
}

// TouchedAccounts returns the modified account IDs in lock order
func (t *Tx) TouchedAccounts() []uint64 {
	ids := make([]uint64, 0, len(t.dirty))
	for id := range t.dirty {
		ids = append(ids, id)
	}
	return SortedAccountIDs(ids...)
}

// Accounts returns the account repository bound to this unit of work
func (t *Tx) Accounts() persistence.AccountRepository {
	return t.engine.uow.GetAccountRepository(t.ctx)
}

// Transactions returns the transaction repository bound to this unit of work
func (t *Tx) Transactions() persistence.TransactionRepository {
	return t.engine.uow.GetTransactionRepository(t.ctx)
}

// Payouts returns the payout repository bound to this unit of work
func (t *Tx) Payouts() persistence.PayoutRepository {
	return t.engine.uow.GetPayoutRepository(t.ctx)
}

// NewPayoutID allocates a payout request identifier
func (t *Tx) NewPayoutID() string {
	return t.engine.ids.NewPayoutID()
}

func (t *Tx) flush() error {
	if len(t.postings) > 0 {
		if err := t.Transactions().CreateBatch(t.ctx, t.postings); err != nil {
			return err
		}
	}

	accounts := t.Accounts()
	for _, id := range t.TouchedAccounts() {
		if err := accounts.Update(t.ctx, t.accounts[id]); err != nil {
			return err
		}
	}
	return nil
}
