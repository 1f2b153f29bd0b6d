package account

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

// SeedAccount describes a demo account created in development
type SeedAccount struct {
	ID               uint64
	Balance          int64
	PayoutProfileRef string
}

// DefaultSeedAccounts are the demo accounts created at startup in development
var DefaultSeedAccounts = []SeedAccount{
	{ID: 1, Balance: 1000, PayoutProfileRef: "demo_profile_1"},
	{ID: 2, Balance: 2000, PayoutProfileRef: "demo_profile_2"},
	{ID: 3, Balance: 3000},
	{ID: 4, Balance: 4000},
	{ID: 5, Balance: 5000},
}

// Seed creates the given accounts if missing and funds them with purchase
// credits. The credits are keyed per account so re-running it is a no-op.
func (s *Service) Seed(ctx context.Context, ledgerUseCase usecase.LedgerUseCase, accounts []SeedAccount) error {
	for _, seed := range accounts {
		exists, err := s.AccountExists(ctx, seed.ID)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := s.CreateAccount(ctx, seed.ID, seed.PayoutProfileRef); err != nil {
				return err
			}
		}

		if seed.Balance <= 0 {
			continue
		}

		result, err := ledgerUseCase.Credit(ctx, usecase.PostingRequest{
			AccountID:      seed.ID,
			Amount:         seed.Balance,
			Kind:           entity.KindPurchase,
			Description:    "Demo balance",
			IdempotencyKey: fmt.Sprintf("seed:%d", seed.ID),
		})
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("seed account %d: %s: %s", seed.ID, result.Error, result.Message)
		}
	}

	s.logger.Info("Demo accounts created or verified", map[string]any{"count": len(accounts)})
	return nil
}
