package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/model"
)

// IdempotencyRepository stores keyed operation results using GORM
type IdempotencyRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewIdempotencyRepository creates a new IdempotencyRepository instance
func NewIdempotencyRepository(db *gorm.DB, logger coreport.Logger) *IdempotencyRepository {
	return &IdempotencyRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Find returns the record for key, or nil when the key is unused
func (r *IdempotencyRepository) Find(ctx context.Context, key string) (*entity.IdempotencyRecord, error) {
	var m model.IdempotencyRecord
	if err := r.db.WithContext(ctx).Take(&m, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to look up idempotency key", map[string]any{
			"idempotency_key": key,
			"error":           err.Error(),
		})
		return nil, r.errorClassifier.ToDomainError("find_idempotency_key", err)
	}

	return &entity.IdempotencyRecord{
		Key:         m.Key,
		Operation:   m.Operation,
		Fingerprint: m.Fingerprint,
		Result:      m.Result,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// Save inserts the record. The primary key makes a concurrent second writer fail.
func (r *IdempotencyRepository) Save(ctx context.Context, record *entity.IdempotencyRecord) error {
	err := r.db.WithContext(ctx).Create(&model.IdempotencyRecord{
		Key:         record.Key,
		Operation:   record.Operation,
		Fingerprint: record.Fingerprint,
		Result:      record.Result,
		CreatedAt:   record.CreatedAt,
	}).Error
	if err == nil {
		return nil
	}

	if r.errorClassifier.IsDuplicateKeyError(err) {
		return errs.ErrDuplicateIdempotencyKey
	}
	r.logger.Error("Failed to save idempotency key", map[string]any{
		"idempotency_key": record.Key,
		"error":           err.Error(),
	})
	return r.errorClassifier.ToDomainError("save_idempotency_key", err)
}

var _ persistence.IdempotencyRepository = (*IdempotencyRepository)(nil)
