package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
)

var accountColumns = []string{"id", "balance", "referral_code", "referred_by", "payout_profile_ref", "version", "created_at", "updated_at"}

func TestAccountRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, logger.NewNoopLogger())
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(7, 250, "ALICE00001", nil, "acct_7", 3, now, now))

	account, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), account.ID)
	assert.Equal(t, int64(250), account.Balance())
	assert.Equal(t, "ALICE00001", account.ReferralCode)
	assert.Nil(t, account.ReferredBy)
	assert.Equal(t, uint64(3), account.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, logger.NewNoopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID_StoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, logger.NewNoopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts"`)).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
}

func TestAccountRepository_GetByReferralCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, logger.NewNoopLogger())
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE referral_code = $1`)).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(2, 0, "BOB0000002", nil, "", 0, now, now))

	account, err := repo.GetByReferralCode(context.Background(), "BOB0000002")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), account.ID)
}

func TestAccountRepository_Create(t *testing.T) {
	now := time.Now()

	t.Run("inserts the account", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())
		account, err := entity.NewAccount(1, "ALICE00001", now)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(context.Background(), account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())
		account, err := entity.NewAccount(1, "ALICE00001", now)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"})

		assert.ErrorIs(t, repo.Create(context.Background(), account), errs.ErrDuplicateAccount)
	})

	t.Run("referral code collision", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())
		account, err := entity.NewAccount(2, "TAKEN00000", now)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_accounts_referral_code"})

		assert.ErrorIs(t, repo.Create(context.Background(), account), errs.ErrConstraintViolation)
	})
}

func TestAccountRepository_LockForUpdate(t *testing.T) {
	now := time.Now()
	lockQuery := regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE id IN ($1,$2) ORDER BY id FOR UPDATE`)

	t.Run("locks every account", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())

		mock.ExpectQuery(lockQuery).
			WithArgs(2, 1).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow(1, 100, "ALICE00001", nil, "", 1, now, now).
				AddRow(2, 50, "BOB0000002", 1, "", 4, now, now))

		accounts, err := repo.LockForUpdate(context.Background(), 2, 1)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, int64(100), accounts[1].Balance())
		require.NotNil(t, accounts[2].ReferredBy)
		assert.Equal(t, uint64(1), *accounts[2].ReferredBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())

		mock.ExpectQuery(lockQuery).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow(1, 100, "ALICE00001", nil, "", 1, now, now))

		_, err := repo.LockForUpdate(context.Background(), 1, 9)
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})

	t.Run("lock timeout is a conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())

		mock.ExpectQuery(lockQuery).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		_, err := repo.LockForUpdate(context.Background(), 1, 2)
		assert.ErrorIs(t, err, errs.ErrConcurrentModification)
	})
}

func TestAccountRepository_Update(t *testing.T) {
	now := time.Now()
	updateQuery := regexp.QuoteMeta(`UPDATE "accounts" SET`)
	countQuery := regexp.QuoteMeta(`SELECT count(*) FROM "accounts" WHERE id = $1`)

	newAccount := func(t *testing.T) *entity.Account {
		account, err := entity.NewAccount(5, "EVE0000005", now)
		require.NoError(t, err)
		account.SetBalance(40)
		account.Version = 2
		return account
	}

	t.Run("bumps the version", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())
		account := newAccount(t)

		mock.ExpectExec(updateQuery).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), account))
		assert.Equal(t, uint64(3), account.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())
		account := newAccount(t)

		mock.ExpectExec(updateQuery).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(countQuery).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.Update(context.Background(), account)
		assert.ErrorIs(t, err, errs.ErrConcurrentModification)
		assert.Equal(t, uint64(2), account.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished account", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db, logger.NewNoopLogger())

		mock.ExpectExec(updateQuery).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(countQuery).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		assert.ErrorIs(t, repo.Update(context.Background(), newAccount(t)), errs.ErrAccountNotFound)
	})
}

func TestAccountRepository_CountReferredBy(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db, logger.NewNoopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "accounts" WHERE referred_by = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountReferredBy(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
