package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	timeAdapter "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, ids ...uint64) (*Store, *UnitOfWork) {
	t.Helper()
	store := NewStore(timeAdapter.NewFixedTimeProvider(epoch))
	uow := store.UnitOfWork()

	for _, id := range ids {
		account, err := entity.NewAccount(id, fmt.Sprintf("CODE%d", id), epoch)
		require.NoError(t, err)
		require.NoError(t, uow.GetAccountRepository(context.Background()).Create(context.Background(), account))
	}
	return store, uow
}

func TestUnitOfWork(t *testing.T) {
	ctx := context.Background()

	t.Run("Staged writes are invisible until commit", func(t *testing.T) {
		_, uow := newTestStore(t, 1)

		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)

		accounts, err := uow.GetAccountRepository(txCtx).LockForUpdate(txCtx, 1)
		require.NoError(t, err)
		account := accounts[1]
		require.NoError(t, account.Credit(100, epoch))
		require.NoError(t, uow.GetAccountRepository(txCtx).Update(txCtx, account))

		outside, err := uow.GetAccountRepository(ctx).GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), outside.Balance())

		inside, err := uow.GetAccountRepository(txCtx).GetByID(txCtx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), inside.Balance())

		require.NoError(t, uow.Commit(txCtx))

		after, err := uow.GetAccountRepository(ctx).GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), after.Balance())
		assert.Equal(t, uint64(1), after.Version)
	})

	t.Run("Rollback discards everything", func(t *testing.T) {
		_, uow := newTestStore(t, 1)

		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, uow.GetTransactionRepository(txCtx).CreateBatch(txCtx, []*entity.Transaction{
			{ID: "01A", AccountID: 1, Amount: 5, Kind: entity.KindPurchase},
		}))
		require.NoError(t, uow.Rollback(txCtx))

		sum, count, err := uow.GetTransactionRepository(ctx).Summarize(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, sum)
		assert.Zero(t, count)
	})

	t.Run("Stale version is rejected", func(t *testing.T) {
		_, uow := newTestStore(t, 1)
		repo := uow.GetAccountRepository(ctx)

		first, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		second, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, first))
		err = repo.Update(ctx, second)
		assert.ErrorIs(t, err, errs.ErrConcurrentModification)
	})

	t.Run("Commit fails when another writer won", func(t *testing.T) {
		_, uow := newTestStore(t, 1)

		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		account, err := uow.GetAccountRepository(txCtx).GetByID(txCtx, 1)
		require.NoError(t, err)
		require.NoError(t, uow.GetAccountRepository(txCtx).Update(txCtx, account))

		other, err := uow.GetAccountRepository(ctx).GetByID(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, uow.GetAccountRepository(ctx).Update(ctx, other))

		assert.ErrorIs(t, uow.Commit(txCtx), errs.ErrConcurrentModification)
	})

	t.Run("Row locks block a second unit of work", func(t *testing.T) {
		_, uow := newTestStore(t, 1)

		first, err := uow.Begin(ctx)
		require.NoError(t, err)
		_, err = uow.GetAccountRepository(first).LockForUpdate(first, 1)
		require.NoError(t, err)

		second, err := uow.Begin(ctx)
		require.NoError(t, err)
		waitCtx, cancel := context.WithTimeout(second, 20*time.Millisecond)
		defer cancel()
		_, err = uow.GetAccountRepository(waitCtx).LockForUpdate(waitCtx, 1)
		assert.ErrorIs(t, err, errs.ErrStoreUnavailable)

		require.NoError(t, uow.Rollback(first))
		_, err = uow.GetAccountRepository(second).LockForUpdate(second, 1)
		require.NoError(t, err)
		require.NoError(t, uow.Rollback(second))
	})
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Duplicate id and code", func(t *testing.T) {
		_, uow := newTestStore(t, 1)
		repo := uow.GetAccountRepository(ctx)

		dup, _ := entity.NewAccount(1, "OTHER", epoch)
		assert.ErrorIs(t, repo.Create(ctx, dup), errs.ErrDuplicateAccount)

		taken, _ := entity.NewAccount(2, "CODE1", epoch)
		assert.ErrorIs(t, repo.Create(ctx, taken), errs.ErrConstraintViolation)
	})

	t.Run("Lookup by referral code", func(t *testing.T) {
		_, uow := newTestStore(t, 1)
		repo := uow.GetAccountRepository(ctx)

		account, err := repo.GetByReferralCode(ctx, "CODE1")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), account.ID)

		_, err = repo.GetByReferralCode(ctx, "NOPE")
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})

	t.Run("Returned accounts are copies", func(t *testing.T) {
		_, uow := newTestStore(t, 1)
		repo := uow.GetAccountRepository(ctx)

		account, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		account.SetBalance(999)

		again, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, again.Balance())
	})
}

func TestTransactionRepository(t *testing.T) {
	ctx := context.Background()
	_, uow := newTestStore(t, 1)
	repo := uow.GetTransactionRepository(ctx)

	require.NoError(t, repo.CreateBatch(ctx, []*entity.Transaction{
		{ID: "01", AccountID: 1, Amount: 100, Kind: entity.KindPurchase},
		{ID: "02", AccountID: 1, Amount: -30, Kind: entity.KindTipSent},
		{ID: "03", AccountID: 1, Amount: 10, Kind: entity.KindReferralBonus, ReferenceID: "referral:9"},
	}))

	t.Run("History is newest first and pages by id", func(t *testing.T) {
		page, err := repo.ListByAccount(ctx, 1, "", 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "03", page[0].ID)
		assert.Equal(t, "02", page[1].ID)

		rest, err := repo.ListByAccount(ctx, 1, "02", 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "01", rest[0].ID)
	})

	t.Run("Aggregates", func(t *testing.T) {
		sum, count, err := repo.Summarize(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(80), sum)
		assert.Equal(t, int64(3), count)

		bonus, err := repo.SumByKind(ctx, 1, entity.KindReferralBonus)
		require.NoError(t, err)
		assert.Equal(t, int64(10), bonus)

		exists, err := repo.ExistsByReference(ctx, entity.KindReferralBonus, "referral:9")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Duplicate posting id", func(t *testing.T) {
		err := repo.CreateBatch(ctx, []*entity.Transaction{{ID: "01", AccountID: 1, Amount: 1, Kind: entity.KindPurchase}})
		assert.ErrorIs(t, err, errs.ErrConstraintViolation)
	})
}

func TestIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	_, uow := newTestStore(t)
	repo := uow.GetIdempotencyRepository(ctx)

	missing, err := repo.Find(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, missing)

	record := &entity.IdempotencyRecord{Key: "k", Operation: "transfer", Result: &entity.TransferResult{Success: true}}
	require.NoError(t, repo.Save(ctx, record))
	assert.ErrorIs(t, repo.Save(ctx, record), errs.ErrDuplicateIdempotencyKey)

	found, err := repo.Find(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found.Result.Success)
}

func TestPayoutRepository(t *testing.T) {
	ctx := context.Background()
	clock := timeAdapter.NewFixedTimeProvider(epoch)
	store := NewStore(clock)
	repo := store.UnitOfWork().GetPayoutRepository(ctx)

	account := &entity.Account{ID: 1}
	old := entity.NewPayoutRequest("p1", account, 1000, "USD", decimal.RequireFromString("1.00"), "t1", "", epoch)
	fresh := entity.NewPayoutRequest("p2", account, 1000, "USD", decimal.RequireFromString("1.00"), "t2", "", epoch.Add(time.Hour))
	done := entity.NewPayoutRequest("p3", account, 1000, "USD", decimal.RequireFromString("1.00"), "t3", "", epoch)
	require.NoError(t, done.MarkSucceeded("ext-3", epoch))

	for _, p := range []*entity.PayoutRequest{old, fresh, done} {
		require.NoError(t, repo.Create(ctx, p))
	}

	inFlight, err := repo.ListInFlight(ctx, epoch.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, inFlight, 1)
	assert.Equal(t, "p1", inFlight[0].ID)

	count, err := repo.CountInFlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	byRef, err := repo.GetByExternalRef(ctx, "ext-3")
	require.NoError(t, err)
	assert.Equal(t, "p3", byRef.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrPayoutNotFound)
}

func TestLeaseRepository(t *testing.T) {
	ctx := context.Background()
	clock := timeAdapter.NewFixedTimeProvider(epoch)
	leases := NewStore(clock).Leases()

	require.NoError(t, leases.Acquire(ctx, "reconciler", "a", time.Minute))
	require.NoError(t, leases.Acquire(ctx, "reconciler", "a", time.Minute))
	assert.ErrorIs(t, leases.Acquire(ctx, "reconciler", "b", time.Minute), errs.ErrLeaseHeld)

	clock.Advance(2 * time.Minute)
	require.NoError(t, leases.Acquire(ctx, "reconciler", "b", time.Minute))

	require.NoError(t, leases.Release(ctx, "reconciler", "a"))
	assert.ErrorIs(t, leases.Acquire(ctx, "reconciler", "a", time.Minute), errs.ErrLeaseHeld)
	require.NoError(t, leases.Release(ctx, "reconciler", "b"))
	require.NoError(t, leases.Acquire(ctx, "reconciler", "a", time.Minute))
}

func TestFaultInjection(t *testing.T) {
	ctx := context.Background()
	store, uow := newTestStore(t, 1)

	store.SetFault(func(op string) error {
		if op == "commit" {
			return errors.New("connection reset")
		}
		return nil
	})

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	err = uow.Commit(txCtx)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)

	store.SetFault(nil)
	assert.NoError(t, store.Ping(ctx))
}
