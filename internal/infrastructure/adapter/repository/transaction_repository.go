package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/model"
)

// TransactionRepository implements the append-only transaction log using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func transactionToModel(t *entity.Transaction) model.LedgerTransaction {
	return model.LedgerTransaction{
		ID:             t.ID,
		AccountID:      t.AccountID,
		Amount:         t.Amount,
		Kind:           string(t.Kind),
		Description:    t.Description,
		RelatedPostID:  t.RelatedPostID,
		CounterpartyID: t.CounterpartyID,
		CorrelationID:  t.CorrelationID,
		IdempotencyKey: t.IdempotencyKey,
		ReferenceID:    t.ReferenceID,
		BalanceAfter:   t.BalanceAfter,
		CreatedAt:      t.CreatedAt,
	}
}

func transactionToEntity(m *model.LedgerTransaction) *entity.Transaction {
	return &entity.Transaction{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Amount:         m.Amount,
		Kind:           entity.TransactionKind(m.Kind),
		Description:    m.Description,
		RelatedPostID:  m.RelatedPostID,
		CounterpartyID: m.CounterpartyID,
		CorrelationID:  m.CorrelationID,
		IdempotencyKey: m.IdempotencyKey,
		ReferenceID:    m.ReferenceID,
		BalanceAfter:   m.BalanceAfter,
		CreatedAt:      m.CreatedAt,
	}
}

func (r *TransactionRepository) handleDatabaseError(operation string, err error) error {
	r.logger.Error("Database error on ledger transactions", map[string]any{
		"operation": operation,
		"error":     err.Error(),
	})
	return r.errorClassifier.ToDomainError(operation, err)
}

// CreateBatch appends postings in one statement
func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*entity.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	models := make([]model.LedgerTransaction, len(transactions))
	for i, t := range transactions {
		models[i] = transactionToModel(t)
	}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&models).Error
	if err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate ledger transaction id", map[string]any{
				"transaction_id": transactions[0].ID,
			})
			return errs.ErrConstraintViolation
		}
		return r.handleDatabaseError("create_transactions", err)
	}
	return nil
}

// GetByID retrieves a posting
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var m model.LedgerTransaction
	if err := r.db.WithContext(ctx).Take(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, r.handleDatabaseError("get_transaction", err)
	}
	return transactionToEntity(&m), nil
}

// ListByAccount returns postings older than beforeID, newest first. Ids are
// ULIDs, so ordering by id is ordering by creation.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uint64, beforeID string, limit int) ([]*entity.Transaction, error) {
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if beforeID != "" {
		query = query.Where("id < ?", beforeID)
	}

	var models []model.LedgerTransaction
	if err := query.Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, r.handleDatabaseError("list_transactions", err)
	}

	transactions := make([]*entity.Transaction, len(models))
	for i := range models {
		transactions[i] = transactionToEntity(&models[i])
	}
	return transactions, nil
}

type summaryRow struct {
	Total int64
	Count int64
}

// Summarize returns the sum and count of an account's postings
func (r *TransactionRepository) Summarize(ctx context.Context, accountID uint64) (int64, int64, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("account_id = ?", accountID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, r.handleDatabaseError("summarize_transactions", err)
	}
	return row.Total, row.Count, nil
}

// SumByKind sums the amounts of one kind for an account
func (r *TransactionRepository) SumByKind(ctx context.Context, accountID uint64, kind entity.TransactionKind) (int64, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("account_id = ? AND kind = ?", accountID, string(kind)).
		Scan(&row).Error
	if err != nil {
		return 0, r.handleDatabaseError("sum_transactions", err)
	}
	return row.Total, nil
}

// ExistsByReference reports whether a posting of kind carries referenceID
func (r *TransactionRepository) ExistsByReference(ctx context.Context, kind entity.TransactionKind, referenceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LedgerTransaction{}).
		Where("kind = ? AND reference_id = ?", string(kind), referenceID).
		Count(&count).Error
	if err != nil {
		return false, r.handleDatabaseError("find_reference", err)
	}
	return count > 0, nil
}

var _ persistence.TransactionRepository = (*TransactionRepository)(nil)
