package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/model"
)

// LeaseRepository implements expiring named leases on top of an upsert
type LeaseRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewLeaseRepository creates a new LeaseRepository instance
func NewLeaseRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *LeaseRepository {
	return &LeaseRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Acquire takes the lease when it is free or expired, and renews it for its holder.
// The conflict branch only updates when the WHERE holds, so zero affected rows
// means another holder still owns it.
func (r *LeaseRepository) Acquire(ctx context.Context, name, holder string, ttl time.Duration) error {
	now := r.timeProvider.Now()
	expiresAt := now.Add(ttl)

	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO ledger_leases (name, holder, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET holder = EXCLUDED.holder,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		WHERE ledger_leases.holder = EXCLUDED.holder OR ledger_leases.expires_at <= ?`,
		name, holder, expiresAt, now,
		now,
	)
	if result.Error != nil {
		r.logger.Error("Failed to acquire lease", map[string]any{
			"lease":  name,
			"holder": holder,
			"error":  result.Error.Error(),
		})
		return r.errorClassifier.ToDomainError("acquire_lease", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("Lease held by another worker", map[string]any{
			"lease":  name,
			"holder": holder,
		})
		return errs.ErrLeaseHeld
	}
	return nil
}

// Release deletes the lease if holder still owns it
func (r *LeaseRepository) Release(ctx context.Context, name, holder string) error {
	err := r.db.WithContext(ctx).
		Where("name = ? AND holder = ?", name, holder).
		Delete(&model.Lease{}).Error
	if err != nil {
		return r.errorClassifier.ToDomainError("release_lease", err)
	}
	return nil
}

var _ persistence.LeaseRepository = (*LeaseRepository)(nil)
