package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/repository/memory"
	timeAdapter "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
)

var fixedTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// scriptedCodes hands out predefined referral codes before falling back to the generator
type scriptedCodes struct {
	*idgen.Generator
	codes []string
}

func (s *scriptedCodes) NewReferralCode() string {
	if len(s.codes) == 0 {
		return s.Generator.NewReferralCode()
	}
	code := s.codes[0]
	s.codes = s.codes[1:]
	return code
}

func newTestService(t *testing.T, codes ...string) (*Service, *memory.Store) {
	t.Helper()
	clock := timeAdapter.NewFixedTimeProvider(fixedTime)
	store := memory.NewStore(clock)
	ids := &scriptedCodes{Generator: idgen.NewGenerator(clock), codes: codes}
	return NewService(store.UnitOfWork(), ids, clock, logger.NewNoopLogger()), store
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful account creation", func(t *testing.T) {
		service, _ := newTestService(t)

		account, err := service.CreateAccount(ctx, 42, " acct_ext_42 ")
		require.NoError(t, err)
		assert.Equal(t, uint64(42), account.ID)
		assert.Zero(t, account.Balance())
		assert.Zero(t, account.Version)
		assert.Len(t, account.ReferralCode, 10)
		assert.Equal(t, "acct_ext_42", account.PayoutProfileRef)
		assert.Equal(t, fixedTime, account.CreatedAt)

		stored, err := service.GetAccount(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, account.ReferralCode, stored.ReferralCode)
	})

	t.Run("Invalid account ID", func(t *testing.T) {
		service, _ := newTestService(t)
		_, err := service.CreateAccount(ctx, 0, "")
		assert.ErrorIs(t, err, errs.ErrInvalidAccountID)
	})

	t.Run("Duplicate account", func(t *testing.T) {
		service, _ := newTestService(t)
		_, err := service.CreateAccount(ctx, 7, "")
		require.NoError(t, err)

		_, err = service.CreateAccount(ctx, 7, "")
		assert.ErrorIs(t, err, errs.ErrDuplicateAccount)
	})

	t.Run("Referral code collision retries", func(t *testing.T) {
		service, _ := newTestService(t, "TAKEN00001", "TAKEN00001", "FRESH00002")
		first, err := service.CreateAccount(ctx, 1, "")
		require.NoError(t, err)
		assert.Equal(t, "TAKEN00001", first.ReferralCode)

		second, err := service.CreateAccount(ctx, 2, "")
		require.NoError(t, err)
		assert.Equal(t, "FRESH00002", second.ReferralCode)
	})

	t.Run("Gives up after repeated collisions", func(t *testing.T) {
		codes := make([]string, maxCodeAttempts+1)
		for i := range codes {
			codes[i] = "SAME000000"
		}
		service, _ := newTestService(t, codes...)
		_, err := service.CreateAccount(ctx, 1, "")
		require.NoError(t, err)

		_, err = service.CreateAccount(ctx, 2, "")
		assert.ErrorIs(t, err, errs.ErrConstraintViolation)
	})

	t.Run("Store unavailable", func(t *testing.T) {
		service, store := newTestService(t)
		store.SetFault(func(op string) error {
			if op == "create_account" {
				return errors.New("connection refused")
			}
			return nil
		})

		_, err := service.CreateAccount(ctx, 1, "")
		assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	})
}

func TestAccountExists(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)
	_, err := service.CreateAccount(ctx, 3, "")
	require.NoError(t, err)

	exists, err := service.AccountExists(ctx, 3)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = service.AccountExists(ctx, 4)
	require.NoError(t, err)
	assert.False(t, exists)

	store.SetFault(func(string) error { return errors.New("down") })
	_, err = service.AccountExists(ctx, 3)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
}

func TestSetPayoutProfile(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	_, err := service.CreateAccount(ctx, 5, "")
	require.NoError(t, err)

	account, err := service.SetPayoutProfile(ctx, 5, "acct_ext_5")
	require.NoError(t, err)
	assert.True(t, account.HasPayoutProfile())
	assert.Equal(t, uint64(1), account.Version)

	stored, err := service.GetAccount(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "acct_ext_5", stored.PayoutProfileRef)

	_, err = service.SetPayoutProfile(ctx, 5, "   ")
	assert.ErrorIs(t, err, errs.ErrInvalidRequest)

	_, err = service.SetPayoutProfile(ctx, 99, "acct_ext_99")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	clock := timeAdapter.NewFixedTimeProvider(fixedTime)
	store := memory.NewStore(clock)
	ids := idgen.NewGenerator(clock)
	log := logger.NewNoopLogger()
	service := NewService(store.UnitOfWork(), ids, clock, log)
	ledgerService := ledger.NewService(ledger.NewEngine(store.UnitOfWork(), ids, clock, log), log)

	seeds := []SeedAccount{
		{ID: 1, Balance: 1000, PayoutProfileRef: "demo_1"},
		{ID: 2},
	}

	// Running twice must not double-fund
	require.NoError(t, service.Seed(ctx, ledgerService, seeds))
	require.NoError(t, service.Seed(ctx, ledgerService, seeds))

	first, err := service.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first.Balance())
	assert.Equal(t, "demo_1", first.PayoutProfileRef)

	sum, count, err := store.UnitOfWork().GetTransactionRepository(ctx).Summarize(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sum)
	assert.Equal(t, int64(1), count)

	second, err := service.GetAccount(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, second.Balance())
}
