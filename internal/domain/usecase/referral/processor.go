package referral

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

// OpReferral is the operation name used for idempotency and metrics
const OpReferral = "referral"

// Config holds the bonus amounts
type Config struct {
	ReferrerBonus int64 // Paid to the owner of the redeemed code
	RefereeBonus  int64 // Paid to the redeeming account, 0 disables it
}

// Processor pays referral bonuses through the ledger engine
type Processor struct {
	engine *ledger.Engine
	uow    persistence.UnitOfWork
	config Config
	logger coreport.Logger
}

// NewProcessor creates a new referral processor
func NewProcessor(engine *ledger.Engine, uow persistence.UnitOfWork, config Config, logger coreport.Logger) *Processor {
	return &Processor{
		engine: engine,
		uow:    uow,
		config: config,
		logger: logger,
	}
}

// NormalizeCode canonicalizes a user-entered referral code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyReferralBonus redeems code for accountID. The referred-by relation and
// the bonus postings are written in the same unit of work, and an account can
// redeem at most once no matter how many codes or retries it tries.
func (p *Processor) ApplyReferralBonus(ctx context.Context, accountID uint64, referralCode, idempotencyKey string) (*entity.TransferResult, error) {
	code := NormalizeCode(referralCode)
	if accountID == 0 {
		return entity.FailedResult(errs.ErrInvalidAccountID), nil
	}
	if code == "" {
		return entity.FailedResult(errs.ErrInvalidReferralCode), nil
	}
	if err := ledger.ValidateIdempotencyKey(idempotencyKey); err != nil {
		return entity.FailedResult(err), nil
	}

	referrer, err := p.uow.GetAccountRepository(ctx).GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, errs.ErrAccountNotFound) {
			p.logger.Info("Unknown referral code", map[string]any{
				"account_id": accountID,
				"code":       code,
			})
			return entity.FailedResult(errs.ErrInvalidReferralCode), nil
		}
		return nil, err
	}
	if referrer.ID == accountID {
		return entity.FailedResult(fmt.Errorf("%w: own code", errs.ErrInvalidReferralCode)), nil
	}

	referrerID := referrer.ID
	return p.engine.Execute(ctx, ledger.Operation{
		Name:           OpReferral,
		IdempotencyKey: idempotencyKey,
		Fingerprint:    ledger.Fingerprint(OpReferral, accountID, code),
		AccountIDs:     []uint64{accountID, referrerID},
		Apply: func(ctx context.Context, tx *ledger.Tx) (*entity.TransferResult, error) {
			account, err := tx.Account(accountID)
			if err != nil {
				return nil, err
			}

			reference := entity.ReferralReference(accountID)
			if account.HasRedeemedReferral() {
				return nil, errs.ErrReferralAlreadyRedeemed
			}
			paid, err := tx.Transactions().ExistsByReference(ctx, entity.KindReferralBonus, reference)
			if err != nil {
				return nil, err
			}
			if paid {
				return nil, errs.ErrReferralAlreadyRedeemed
			}

			if err := account.SetReferredBy(referrerID, tx.Now()); err != nil {
				return nil, err
			}
			tx.Touch(accountID)

			bonus, err := tx.Credit(entity.TransactionParams{
				AccountID:      referrerID,
				Amount:         p.config.ReferrerBonus,
				Kind:           entity.KindReferralBonus,
				Description:    "Referral bonus",
				CounterpartyID: &accountID,
				ReferenceID:    reference,
			})
			if err != nil {
				return nil, err
			}
			postings := []*entity.Transaction{bonus}

			if p.config.RefereeBonus > 0 {
				welcome, err := tx.Credit(entity.TransactionParams{
					AccountID:      accountID,
					Amount:         p.config.RefereeBonus,
					Kind:           entity.KindReferralBonus,
					Description:    "Welcome bonus",
					CounterpartyID: &referrerID,
					ReferenceID:    reference,
				})
				if err != nil {
					return nil, err
				}
				postings = append(postings, welcome)
			}

			result := entity.SucceededResult("Referral code applied", postings...)
			balance := account.Balance()
			result.Balance = &balance
			return result, nil
		},
	})
}

var _ usecase.ReferralUseCase = (*Processor)(nil)
