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

// accountsPrimaryKey is the constraint postgres reports for a duplicate account id
const accountsPrimaryKey = "accounts_pkey"

// AccountRepository implements persistence.AccountRepository using GORM
type AccountRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB, logger coreport.Logger) *AccountRepository {
	return &AccountRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func accountToEntity(m *model.Account) *entity.Account {
	account := &entity.Account{
		ID:               m.ID,
		ReferralCode:     m.ReferralCode,
		ReferredBy:       m.ReferredBy,
		PayoutProfileRef: m.PayoutProfileRef,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	account.SetBalance(m.Balance)
	return account
}

func accountToModel(a *entity.Account) *model.Account {
	return &model.Account{
		ID:               a.ID,
		Balance:          a.Balance(),
		ReferralCode:     a.ReferralCode,
		ReferredBy:       a.ReferredBy,
		PayoutProfileRef: a.PayoutProfileRef,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// handleDatabaseError standardizes database error handling
func (r *AccountRepository) handleDatabaseError(operation string, err error, accountID uint64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrAccountNotFound
	}

	r.logger.Error("Database error on accounts", map[string]any{
		"operation":  operation,
		"account_id": accountID,
		"error":      err.Error(),
	})
	return r.errorClassifier.ToDomainError(operation, err)
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uint64) (*entity.Account, error) {
	var m model.Account
	if err := r.db.WithContext(ctx).Take(&m, "id = ?", id).Error; err != nil {
		return nil, r.handleDatabaseError("get_account", err, id)
	}
	return accountToEntity(&m), nil
}

// GetByReferralCode resolves a referral code to its owner
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*entity.Account, error) {
	var m model.Account
	if err := r.db.WithContext(ctx).Take(&m, "referral_code = ?", code).Error; err != nil {
		return nil, r.handleDatabaseError("get_account_by_code", err, 0)
	}
	return accountToEntity(&m), nil
}

// Create stores a new account
func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	err := r.db.WithContext(ctx).Create(accountToModel(account)).Error
	if err == nil {
		return nil
	}

	if r.errorClassifier.IsDuplicateKeyError(err) {
		// Postgres names the violated index; without it assume the id clashed
		switch r.errorClassifier.ConstraintName(err) {
		case accountsPrimaryKey, "":
			return errs.ErrDuplicateAccount
		default:
			return errs.ErrConstraintViolation
		}
	}
	return r.handleDatabaseError("create_account", err, account.ID)
}

// LockForUpdate loads the accounts with SELECT ... FOR UPDATE in ascending id order
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids ...uint64) (map[uint64]*entity.Account, error) {
	var models []model.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, r.handleDatabaseError("lock_accounts", err, 0)
	}

	accounts := make(map[uint64]*entity.Account, len(models))
	for i := range models {
		accounts[models[i].ID] = accountToEntity(&models[i])
	}
	for _, id := range ids {
		if _, ok := accounts[id]; !ok {
			return nil, errs.ErrAccountNotFound
		}
	}
	return accounts, nil
}

// Update writes the account only if its version is unchanged since it was read
func (r *AccountRepository) Update(ctx context.Context, account *entity.Account) error {
	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]any{
			"balance":            account.Balance(),
			"referred_by":        account.ReferredBy,
			"payout_profile_ref": account.PayoutProfileRef,
			"version":            account.Version + 1,
			"updated_at":         account.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("update_account", result.Error, account.ID)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", account.ID).Count(&count).Error; err != nil {
			return r.handleDatabaseError("update_account", err, account.ID)
		}
		if count == 0 {
			return errs.ErrAccountNotFound
		}

		r.logger.Warn("Stale account version", map[string]any{
			"account_id": account.ID,
			"version":    account.Version,
		})
		return errs.ErrConcurrentModification
	}

	account.Version++
	return nil
}

// CountReferredBy counts accounts that redeemed id's referral code
func (r *AccountRepository) CountReferredBy(ctx context.Context, id uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("referred_by = ?", id).Count(&count).Error
	if err != nil {
		return 0, r.handleDatabaseError("count_referred", err, id)
	}
	return count, nil
}

var _ persistence.AccountRepository = (*AccountRepository)(nil)
