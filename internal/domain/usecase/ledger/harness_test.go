package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/repository/memory"
	timeAdapter "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
)

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	store   *memory.Store
	uow     *memory.UnitOfWork
	clock   *timeAdapter.FixedTimeProvider
	ids     *idgen.Generator
	engine  *Engine
	service *Service
}

func newHarness(t *testing.T, opts ...EngineOption) *harness {
	t.Helper()

	clock := timeAdapter.NewFixedTimeProvider(testEpoch)
	store := memory.NewStore(clock)
	ids := idgen.NewGenerator(clock)
	log := logger.NewNoopLogger()

	engine := NewEngine(store.UnitOfWork(), ids, clock, log, opts...)
	return &harness{
		store:   store,
		uow:     store.UnitOfWork(),
		clock:   clock,
		ids:     ids,
		engine:  engine,
		service: NewService(engine, log),
	}
}

// seed creates an account whose balance is backed by a purchase posting,
// written straight to the store so no engine collaborators are involved
func (h *harness) seed(t *testing.T, id uint64, balance int64) {
	t.Helper()
	ctx := context.Background()

	account, err := entity.NewAccount(id, fmt.Sprintf("REF%d", id), testEpoch)
	require.NoError(t, err)

	if balance > 0 {
		require.NoError(t, account.Credit(balance, testEpoch))
		posting, err := entity.NewTransaction(h.ids.NewTransactionID(), entity.TransactionParams{
			AccountID: id,
			Amount:    balance,
			Kind:      entity.KindPurchase,
		}, h.ids.NewCorrelationID(), "", balance, testEpoch)
		require.NoError(t, err)
		require.NoError(t, h.uow.GetTransactionRepository(ctx).CreateBatch(ctx, []*entity.Transaction{posting}))
	}
	require.NoError(t, h.uow.GetAccountRepository(ctx).Create(ctx, account))
}

func (h *harness) balance(t *testing.T, id uint64) int64 {
	t.Helper()
	account, err := h.uow.GetAccountRepository(context.Background()).GetByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance()
}

func (h *harness) postings(t *testing.T, id uint64) int64 {
	t.Helper()
	_, count, err := h.uow.GetTransactionRepository(context.Background()).Summarize(context.Background(), id)
	require.NoError(t, err)
	return count
}

// requireConsistent checks balance == sum(postings) for every id
func (h *harness) requireConsistent(t *testing.T, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		sum, _, err := h.uow.GetTransactionRepository(context.Background()).Summarize(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, sum, h.balance(t, id), "ledger sum and balance differ for account %d", id)
	}
}
