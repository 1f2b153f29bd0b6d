package usecase

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// QueryUseCase serves read-only views of the ledger
type QueryUseCase interface {
	GetBalance(ctx context.Context, accountID uint64) (*entity.BalanceView, error)
	GetTransactionHistory(ctx context.Context, accountID uint64, cursor string, limit int) (*entity.TransactionPage, error)
	GetReferralStats(ctx context.Context, accountID uint64) (*entity.ReferralStats, error)
	AuditAccount(ctx context.Context, accountID uint64) (*entity.AuditReport, error)
}

// AccountUseCase manages account records
type AccountUseCase interface {
	CreateAccount(ctx context.Context, id uint64, payoutProfileRef string) (*entity.Account, error)
	GetAccount(ctx context.Context, id uint64) (*entity.Account, error)
	SetPayoutProfile(ctx context.Context, id uint64, payoutProfileRef string) (*entity.Account, error)
	AccountExists(ctx context.Context, id uint64) (bool, error)
}
