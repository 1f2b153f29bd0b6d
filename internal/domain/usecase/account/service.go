package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/ledger"
)

const (
	// maxCodeAttempts bounds referral code generation when codes collide
	maxCodeAttempts = 5
	// MaxPayoutProfileRefLength bounds the opaque payout profile reference
	MaxPayoutProfileRefLength = 128
)

// Service implements usecase.AccountUseCase
type Service struct {
	uow          persistence.UnitOfWork
	ids          coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	retry        ledger.RetryConfig
}

// NewService creates a new account service
func NewService(
	uow persistence.UnitOfWork,
	ids coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		ids:          ids,
		timeProvider: timeProvider,
		logger:       logger,
		retry:        ledger.DefaultRetryConfig(),
	}
}

// CreateAccount creates an empty account with a fresh referral code
func (s *Service) CreateAccount(ctx context.Context, id uint64, payoutProfileRef string) (*entity.Account, error) {
	if id == 0 {
		return nil, errs.ErrInvalidAccountID
	}
	payoutProfileRef = strings.TrimSpace(payoutProfileRef)
	if len(payoutProfileRef) > MaxPayoutProfileRefLength {
		return nil, fmt.Errorf("%w: payout profile reference too long", errs.ErrInvalidRequest)
	}

	repo := s.uow.GetAccountRepository(ctx)
	for attempt := 1; ; attempt++ {
		now := s.timeProvider.Now()
		account, err := entity.NewAccount(id, s.ids.NewReferralCode(), now)
		if err != nil {
			return nil, err
		}
		if payoutProfileRef != "" {
			account.SetPayoutProfile(payoutProfileRef, now)
		}

		err = repo.Create(ctx, account)
		switch {
		case err == nil:
			s.logger.Info("Account created", map[string]any{
				"account_id":    id,
				"referral_code": account.ReferralCode,
			})
			return account, nil
		case errors.Is(err, errs.ErrConstraintViolation) && attempt < maxCodeAttempts:
			s.logger.Warn("Referral code collision, generating another", map[string]any{
				"account_id": id,
				"attempt":    attempt,
			})
		default:
			if !errors.Is(err, errs.ErrDuplicateAccount) {
				s.logger.Error("Failed to create account", map[string]any{
					"account_id": id,
					"error":      err,
				})
			}
			return nil, err
		}
	}
}

// GetAccount returns the account with the given id
func (s *Service) GetAccount(ctx context.Context, id uint64) (*entity.Account, error) {
	if id == 0 {
		return nil, errs.ErrInvalidAccountID
	}
	return s.uow.GetAccountRepository(ctx).GetByID(ctx, id)
}

// AccountExists reports whether an account exists
func (s *Service) AccountExists(ctx context.Context, id uint64) (bool, error) {
	_, err := s.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetPayoutProfile links the account to its external payout profile
func (s *Service) SetPayoutProfile(ctx context.Context, id uint64, payoutProfileRef string) (*entity.Account, error) {
	if id == 0 {
		return nil, errs.ErrInvalidAccountID
	}
	payoutProfileRef = strings.TrimSpace(payoutProfileRef)
	if payoutProfileRef == "" || len(payoutProfileRef) > MaxPayoutProfileRefLength {
		return nil, fmt.Errorf("%w: payout profile reference must be 1-%d characters", errs.ErrInvalidRequest, MaxPayoutProfileRefLength)
	}

	var updated *entity.Account
	err := ledger.RetryOnConflict(ctx, s.retry, s.timeProvider, s.logger, "set_payout_profile", func() error {
		txCtx, err := s.uow.Begin(ctx)
		if err != nil {
			return err
		}

		committed := false
		defer func() {
			if !committed {
				_ = s.uow.Rollback(txCtx)
			}
		}()

		repo := s.uow.GetAccountRepository(txCtx)
		locked, err := repo.LockForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		account := locked[id]
		account.SetPayoutProfile(payoutProfileRef, s.timeProvider.Now())
		if err := repo.Update(txCtx, account); err != nil {
			return err
		}

		if err := s.uow.Commit(txCtx); err != nil {
			return err
		}
		committed = true
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payout profile linked", map[string]any{"account_id": id})
	return updated, nil
}

var _ usecase.AccountUseCase = (*Service)(nil)
