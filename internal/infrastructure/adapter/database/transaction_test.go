package database

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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
	timeprovider "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newTestUnitOfWork(db *gorm.DB, lockTimeout time.Duration) *UnitOfWork {
	return NewUnitOfWork(db, logger.NewNoopLogger(), timeprovider.NewRealTimeProvider(), lockTimeout)
}

func TestUnitOfWork_BeginCommit(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 1500*time.Millisecond)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '1500ms'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "accounts" WHERE referred_by = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	// Repositories obtained from the transactional context run inside it
	_, err = uow.GetAccountRepository(txCtx).CountReferredBy(txCtx, 1)
	require.NoError(t, err)

	require.NoError(t, uow.Commit(txCtx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_WithoutLockTimeout(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 0)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := uow.Begin(context.Background())
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
}

func TestUnitOfWork_SerializationFailureOnCommit(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	err = uow.Commit(txCtx)
	assert.ErrorIs(t, err, errs.ErrConcurrentModification)
	assert.True(t, errs.IsRetryable(err))
}

func TestUnitOfWork_RollbackAfterCommit(t *testing.T) {
	db, mock := newMockDB(t)
	uow := newTestUnitOfWork(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Commit(txCtx))

	// Deferred rollbacks run after every successful commit
	assert.NoError(t, uow.Rollback(txCtx))
}

func TestUnitOfWork_NoTransactionInContext(t *testing.T) {
	db, _ := newMockDB(t)
	uow := newTestUnitOfWork(db, 0)

	assert.Error(t, uow.Commit(context.Background()))
	assert.Error(t, uow.Rollback(context.Background()))
}

func TestErrorMapper_MapError(t *testing.T) {
	mapper := NewErrorMapper()

	assert.NoError(t, mapper.MapError(nil, "op"))
	assert.ErrorIs(t, mapper.MapError(gorm.ErrRecordNotFound, "op"), errs.ErrAccountNotFound)
	assert.ErrorIs(t, mapper.MapError(context.DeadlineExceeded, "commit"), errs.ErrStoreUnavailable)
	assert.ErrorIs(t, mapper.MapError(&pgconn.PgError{Code: "23505"}, "commit"), errs.ErrConstraintViolation)
	assert.ErrorIs(t, mapper.MapError(&pgconn.PgError{Code: "40P01"}, "commit"), errs.ErrConcurrentModification)
	assert.ErrorIs(t, mapper.MapError(errors.New("broken pipe"), "begin"), errs.ErrStoreUnavailable)
}
