package query

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

// Config bounds history pages
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Facade serves read-only views. Balances may come from the cache and are then
// at most cache.TTL() old; everything else reads the store.
type Facade struct {
	uow    persistence.UnitOfWork
	cache  gateway.BalanceCache
	config Config
	logger coreport.Logger
}

// NewFacade creates a new query facade. cache may be nil.
func NewFacade(uow persistence.UnitOfWork, cache gateway.BalanceCache, config Config, logger coreport.Logger) *Facade {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	if config.MaxPageSize < config.DefaultPageSize {
		config.MaxPageSize = config.DefaultPageSize
	}
	return &Facade{
		uow:    uow,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// GetBalance returns the account balance, from the cache when possible
func (f *Facade) GetBalance(ctx context.Context, accountID uint64) (*entity.BalanceView, error) {
	if f.cache != nil {
		balance, ok, err := f.cache.Get(ctx, accountID)
		switch {
		case err != nil:
			f.logger.Warn("Balance cache read failed, falling back to store", map[string]any{
				"account_id": accountID,
				"error":      err.Error(),
			})
		case ok:
			return &entity.BalanceView{
				AccountID:    accountID,
				Balance:      balance,
				MaxStaleness: f.cache.TTL(),
				Cached:       true,
			}, nil
		}
	}

	account, err := f.uow.GetAccountRepository(ctx).GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, accountID, account.Balance()); err != nil {
			f.logger.Warn("Balance cache write failed", map[string]any{
				"account_id": accountID,
				"error":      err.Error(),
			})
		}
	}

	return &entity.BalanceView{AccountID: accountID, Balance: account.Balance()}, nil
}

// GetTransactionHistory returns one page of postings, most recent first
func (f *Facade) GetTransactionHistory(ctx context.Context, accountID uint64, cursor string, limit int) (*entity.TransactionPage, error) {
	beforeID, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = f.config.DefaultPageSize
	case limit > f.config.MaxPageSize:
		limit = f.config.MaxPageSize
	}

	if _, err := f.uow.GetAccountRepository(ctx).GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	items, err := f.uow.GetTransactionRepository(ctx).ListByAccount(ctx, accountID, beforeID, limit+1)
	if err != nil {
		return nil, err
	}

	page := &entity.TransactionPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = EncodeCursor(page.Items[limit-1].ID)
	}
	return page, nil
}

// GetReferralStats returns the account's code, how many accounts redeemed it,
// and the referral-bonus coins the account has received
func (f *Facade) GetReferralStats(ctx context.Context, accountID uint64) (*entity.ReferralStats, error) {
	account, err := f.uow.GetAccountRepository(ctx).GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	referred, err := f.uow.GetAccountRepository(ctx).CountReferredBy(ctx, accountID)
	if err != nil {
		return nil, err
	}

	earned, err := f.uow.GetTransactionRepository(ctx).SumByKind(ctx, accountID, entity.KindReferralBonus)
	if err != nil {
		return nil, err
	}

	return &entity.ReferralStats{
		AccountID:     accountID,
		Code:          account.ReferralCode,
		ReferredCount: referred,
		TotalEarned:   earned,
	}, nil
}

// AuditAccount compares the stored balance with the transaction log
func (f *Facade) AuditAccount(ctx context.Context, accountID uint64) (*entity.AuditReport, error) {
	account, err := f.uow.GetAccountRepository(ctx).GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sum, count, err := f.uow.GetTransactionRepository(ctx).Summarize(ctx, accountID)
	if err != nil {
		return nil, err
	}

	report := &entity.AuditReport{
		AccountID:        accountID,
		Balance:          account.Balance(),
		LedgerSum:        sum,
		TransactionCount: count,
	}
	if !report.Consistent() {
		f.logger.Error("Ledger and balance disagree", map[string]any{
			"account_id": accountID,
			"balance":    report.Balance,
			"ledger_sum": report.LedgerSum,
		})
	}
	return report, nil
}

var _ usecase.QueryUseCase = (*Facade)(nil)
