package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/repository"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Context keys
const txKey contextKey = "tx"

// UnitOfWork implements the unit of work pattern for database transactions
type UnitOfWork struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	errorMapper  *ErrorMapper
	lockTimeout  time.Duration
}

// NewUnitOfWork creates a new UnitOfWork instance. lockTimeout bounds how long
// a statement waits for a row lock; zero leaves the server default.
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider, lockTimeout time.Duration) *UnitOfWork {
	return &UnitOfWork{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		errorMapper:  NewErrorMapper(),
		lockTimeout:  lockTimeout,
	}
}

// Begin starts a SERIALIZABLE transaction and returns a context carrying it
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.logger.Debug("Beginning database transaction with SERIALIZABLE isolation", nil)

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, u.errorMapper.MapError(tx.Error, "begin")
	}

	if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").Error; err != nil {
		tx.Rollback()
		u.logger.Error("Failed to set transaction isolation level", map[string]any{"error": err.Error()})
		return ctx, u.errorMapper.MapError(err, "begin")
	}

	if u.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			tx.Rollback()
			u.logger.Error("Failed to set lock timeout", map[string]any{"error": err.Error()})
			return ctx, u.errorMapper.MapError(err, "begin")
		}
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction. Serialization failures surface as
// concurrent modifications so the caller retries the whole unit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return errors.New("no transaction found in context")
	}

	u.logger.Debug("Committing database transaction", nil)
	if err := tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		return u.errorMapper.MapError(err, "commit")
	}

	return nil
}

// Rollback rolls back the current transaction. Rolling back a finished
// transaction is not an error.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return errors.New("no transaction found in context")
	}

	u.logger.Debug("Rolling back database transaction", nil)

	err := tx.Rollback().Error
	if err != nil && errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}
	if err != nil && isAlreadyFinished(err) {
		u.logger.Warn("Transaction has already been committed or rolled back", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	if err != nil {
		u.logger.Error("Failed to rollback transaction", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// GetAccountRepository returns an account repository in the current transaction
func (u *UnitOfWork) GetAccountRepository(ctx context.Context) persistence.AccountRepository {
	return repository.NewAccountRepository(u.getDbFromContext(ctx), u.logger)
}

// GetTransactionRepository returns a transaction repository in the current transaction
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.getDbFromContext(ctx), u.logger)
}

// GetIdempotencyRepository returns an idempotency repository in the current transaction
func (u *UnitOfWork) GetIdempotencyRepository(ctx context.Context) persistence.IdempotencyRepository {
	return repository.NewIdempotencyRepository(u.getDbFromContext(ctx), u.logger)
}

// GetPayoutRepository returns a payout repository in the current transaction
func (u *UnitOfWork) GetPayoutRepository(ctx context.Context) persistence.PayoutRepository {
	return repository.NewPayoutRepository(u.getDbFromContext(ctx), u.logger)
}

// getDbFromContext retrieves the database instance from context
func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}

var _ persistence.UnitOfWork = (*UnitOfWork)(nil)
