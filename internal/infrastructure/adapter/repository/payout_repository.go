package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/model"
)

var (
	// retryableStatuses are picked up by the reconciler
	retryableStatuses = []string{string(entity.PayoutPending), string(entity.PayoutSubmitted)}
	// reservedStatuses still hold coins out of the account
	reservedStatuses = []string{string(entity.PayoutPending), string(entity.PayoutSubmitted), string(entity.PayoutNeedsReview)}
)

// PayoutRepository implements persistence.PayoutRepository using GORM
type PayoutRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewPayoutRepository creates a new PayoutRepository instance
func NewPayoutRepository(db *gorm.DB, logger coreport.Logger) *PayoutRepository {
	return &PayoutRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func payoutToModel(p *entity.PayoutRequest) *model.PayoutRequest {
	return &model.PayoutRequest{
		ID:               p.ID,
		AccountID:        p.AccountID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		FiatAmount:       p.FiatAmount,
		PayoutProfileRef: p.PayoutProfileRef,
		Status:           string(p.Status),
		ReservationTxID:  p.ReservationTxID,
		ReversalTxID:     p.ReversalTxID,
		ExternalRef:      p.ExternalRef,
		Attempts:         p.Attempts,
		LastError:        p.LastError,
		IdempotencyKey:   p.IdempotencyKey,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		CompletedAt:      p.CompletedAt,
	}
}

func payoutToEntity(m *model.PayoutRequest) *entity.PayoutRequest {
	return &entity.PayoutRequest{
		ID:               m.ID,
		AccountID:        m.AccountID,
		Amount:           m.Amount,
		Currency:         m.Currency,
		FiatAmount:       m.FiatAmount,
		PayoutProfileRef: m.PayoutProfileRef,
		Status:           entity.PayoutStatus(m.Status),
		ReservationTxID:  m.ReservationTxID,
		ReversalTxID:     m.ReversalTxID,
		ExternalRef:      m.ExternalRef,
		Attempts:         m.Attempts,
		LastError:        m.LastError,
		IdempotencyKey:   m.IdempotencyKey,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CompletedAt:      m.CompletedAt,
	}
}

func (r *PayoutRepository) handleDatabaseError(operation string, err error, payoutID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrPayoutNotFound
	}

	r.logger.Error("Database error on payout requests", map[string]any{
		"operation":         operation,
		"payout_request_id": payoutID,
		"error":             err.Error(),
	})
	return r.errorClassifier.ToDomainError(operation, err)
}

// Create stores a new payout request
func (r *PayoutRepository) Create(ctx context.Context, payout *entity.PayoutRequest) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(payoutToModel(payout)).Error
	if err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			return errs.ErrConstraintViolation
		}
		return r.handleDatabaseError("create_payout", err, payout.ID)
	}
	return nil
}

// Update overwrites the mutable fields of a payout request
func (r *PayoutRepository) Update(ctx context.Context, payout *entity.PayoutRequest) error {
	result := r.db.WithContext(ctx).Model(&model.PayoutRequest{}).
		Where("id = ?", payout.ID).
		Updates(map[string]any{
			"status":         string(payout.Status),
			"reversal_tx_id": payout.ReversalTxID,
			"external_ref":   payout.ExternalRef,
			"attempts":       payout.Attempts,
			"last_error":     payout.LastError,
			"updated_at":     payout.UpdatedAt,
			"completed_at":   payout.CompletedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("update_payout", result.Error, payout.ID)
	}
	if result.RowsAffected == 0 {
		return errs.ErrPayoutNotFound
	}
	return nil
}

// GetByID retrieves a payout request
func (r *PayoutRepository) GetByID(ctx context.Context, id string) (*entity.PayoutRequest, error) {
	var m model.PayoutRequest
	if err := r.db.WithContext(ctx).Take(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("get_payout", err, id)
	}
	return payoutToEntity(&m), nil
}

// GetByExternalRef finds a request by the processor's reference
func (r *PayoutRepository) GetByExternalRef(ctx context.Context, externalRef string) (*entity.PayoutRequest, error) {
	var m model.PayoutRequest
	if err := r.db.WithContext(ctx).Take(&m, "external_ref = ?", externalRef).Error; err != nil {
		return nil, r.handleDatabaseError("get_payout_by_ref", err, "")
	}
	return payoutToEntity(&m), nil
}

// LockByID loads the request with SELECT ... FOR UPDATE
func (r *PayoutRepository) LockByID(ctx context.Context, id string) (*entity.PayoutRequest, error) {
	var m model.PayoutRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&m, "id = ?", id).Error
	if err != nil {
		return nil, r.handleDatabaseError("lock_payout", err, id)
	}
	return payoutToEntity(&m), nil
}

// ListInFlight returns pending and submitted requests untouched since updatedBefore, oldest first
func (r *PayoutRepository) ListInFlight(ctx context.Context, updatedBefore time.Time, limit int) ([]*entity.PayoutRequest, error) {
	var models []model.PayoutRequest
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", retryableStatuses, updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("list_payouts", err, "")
	}

	payouts := make([]*entity.PayoutRequest, len(models))
	for i := range models {
		payouts[i] = payoutToEntity(&models[i])
	}
	return payouts, nil
}

// CountInFlight counts requests still holding a reservation
func (r *PayoutRepository) CountInFlight(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PayoutRequest{}).
		Where("status IN ?", reservedStatuses).
		Count(&count).Error
	if err != nil {
		return 0, r.handleDatabaseError("count_payouts", err, "")
	}
	return count, nil
}

var _ persistence.PayoutRepository = (*PayoutRepository)(nil)
