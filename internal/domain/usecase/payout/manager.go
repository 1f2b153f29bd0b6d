package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/ledger"
)

// Operation names
const (
	OpPayoutRequest  = "payout_request"
	OpPayoutReversal = "payout_reversal"
)

// Manager reserves coins for withdrawals and follows them through the processor
type Manager struct {
	engine       *ledger.Engine
	uow          persistence.UnitOfWork
	leases       persistence.LeaseRepository
	gateway      gateway.PayoutGateway
	timeProvider coreport.TimeProvider
	metrics      coreport.Metrics
	logger       coreport.Logger
	config       Config
	retry        ledger.RetryConfig
}

// NewManager creates a new payout manager
func NewManager(
	engine *ledger.Engine,
	uow persistence.UnitOfWork,
	leases persistence.LeaseRepository,
	payoutGateway gateway.PayoutGateway,
	timeProvider coreport.TimeProvider,
	metrics coreport.Metrics,
	logger coreport.Logger,
	config Config,
) *Manager {
	if metrics == nil {
		metrics = coreport.NoopMetrics{}
	}
	return &Manager{
		engine:       engine,
		uow:          uow,
		leases:       leases,
		gateway:      payoutGateway,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		config:       config,
		retry:        ledger.DefaultRetryConfig(),
	}
}

// RequestPayout reserves the coins and hands the payout to the processor
func (m *Manager) RequestPayout(ctx context.Context, input usecase.PayoutRequestInput) (*entity.TransferResult, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = m.config.DefaultCurrency
	}

	fiat, err := m.quote(input, currency)
	if err != nil {
		m.logger.Info("Payout request rejected", map[string]any{
			"account_id": input.AccountID,
			"amount":     input.Amount,
			"currency":   currency,
			"error":      err.Error(),
		})
		return entity.FailedResult(err), nil
	}

	accountID, amount := input.AccountID, input.Amount
	result, err := m.engine.Execute(ctx, ledger.Operation{
		Name:           OpPayoutRequest,
		IdempotencyKey: input.IdempotencyKey,
		Fingerprint:    ledger.Fingerprint(OpPayoutRequest, accountID, amount, currency),
		AccountIDs:     []uint64{accountID},
		Apply: func(ctx context.Context, tx *ledger.Tx) (*entity.TransferResult, error) {
			account, err := tx.Account(accountID)
			if err != nil {
				return nil, err
			}
			if !account.HasPayoutProfile() {
				return nil, errs.ErrPayoutProfileMissing
			}

			payoutID := tx.NewPayoutID()
			reservation, err := tx.Debit(entity.TransactionParams{
				AccountID:   accountID,
				Amount:      amount,
				Kind:        entity.KindWithdrawal,
				Description: "Payout " + payoutID,
				ReferenceID: payoutID,
			})
			if err != nil {
				return nil, err
			}

			payout := entity.NewPayoutRequest(payoutID, account, amount, currency, fiat, reservation.ID, input.IdempotencyKey, tx.Now())
			if err := tx.Payouts().Create(ctx, payout); err != nil {
				return nil, err
			}

			result := entity.SucceededResult(
				fmt.Sprintf("Payout of %s %s requested", entity.FormatFiat(fiat), currency),
				reservation,
			)
			result.PayoutRequestID = payoutID
			return result, nil
		},
	})
	if err != nil || !result.Success {
		return result, err
	}
	if result.Replayed {
		return m.describe(ctx, result), nil
	}

	m.metrics.ObservePayoutTransition(string(entity.PayoutPending))
	m.logger.Info("Payout reserved", map[string]any{
		"payout_id":  result.PayoutRequestID,
		"account_id": accountID,
		"amount":     amount,
		"currency":   currency,
	})

	// The reservation is committed; finish the hand-off even if the caller goes away
	m.handOff(context.WithoutCancel(ctx), result.PayoutRequestID)
	return m.describe(ctx, result), nil
}

// quote validates the currency and amount and converts the coins to fiat
func (m *Manager) quote(input usecase.PayoutRequestInput, currency string) (fiat decimal.Decimal, err error) {
	if input.AccountID == 0 {
		return fiat, errs.ErrInvalidAccountID
	}
	if err := ledger.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return fiat, err
	}

	rates, ok := m.config.Currencies[currency]
	if !ok {
		return fiat, fmt.Errorf("%w: %s", errs.ErrUnsupportedCurrency, currency)
	}
	if err := entity.ValidateCoinAmount(input.Amount); err != nil {
		return fiat, err
	}

	fiat, err = entity.CoinsToFiat(input.Amount, rates.CoinsPerUnit)
	if err != nil {
		return fiat, err
	}
	if fiat.LessThan(rates.MinimumWithdrawal) {
		return fiat, errs.NewMinimumWithdrawalError(currency, entity.FormatFiat(rates.MinimumWithdrawal), entity.FormatFiat(fiat))
	}
	return fiat, nil
}

// handOff submits a freshly reserved payout. Failures to reach the processor
// leave the request pending for the reconciler.
func (m *Manager) handOff(ctx context.Context, payoutID string) {
	payout, err := m.uow.GetPayoutRepository(ctx).GetByID(ctx, payoutID)
	if err != nil {
		m.logger.Error("Failed to load reserved payout", mergeFields(errs.LogFields(err), map[string]any{"payout_id": payoutID}))
		return
	}

	if _, err := m.submit(ctx, payout); err != nil {
		m.logger.Warn("Payout hand-off incomplete, left for reconciliation", map[string]any{
			"payout_id": payoutID,
			"error":     err.Error(),
		})
	}
}

// submit sends the payout to the processor and applies the answer
func (m *Manager) submit(ctx context.Context, payout *entity.PayoutRequest) (*entity.PayoutRequest, error) {
	submitCtx, cancel := m.timeProvider.WithTimeout(ctx, m.config.SubmitTimeout)
	defer cancel()

	receipt, err := m.gateway.Submit(submitCtx, gateway.PayoutInstruction{
		PayoutRequestID:  payout.ID,
		AccountID:        payout.AccountID,
		PayoutProfileRef: payout.PayoutProfileRef,
		Amount:           payout.FiatAmount,
		Currency:         payout.Currency,
		ReservationTxID:  payout.ReservationTxID,
	})

	switch {
	case errors.Is(err, gateway.ErrPayoutRejected):
		return m.reverse(ctx, payout.ID, entity.PayoutFailed, err.Error())
	case err != nil:
		if _, recErr := m.recordAttempt(ctx, payout.ID, err.Error()); recErr != nil {
			m.logger.Warn("Failed to record payout attempt", map[string]any{"payout_id": payout.ID, "error": recErr.Error()})
		}
		return nil, err
	}

	return m.applyReceipt(ctx, payout.ID, receipt)
}

func (m *Manager) applyReceipt(ctx context.Context, payoutID string, receipt *gateway.PayoutReceipt) (*entity.PayoutRequest, error) {
	switch receipt.Status {
	case gateway.ExternalSucceeded:
		return m.finalize(ctx, payoutID, receipt.ExternalRef)
	case gateway.ExternalFailed:
		return m.reverse(ctx, payoutID, entity.PayoutFailed, receipt.Reason)
	default:
		return m.markSubmitted(ctx, payoutID, receipt.ExternalRef)
	}
}

// describe reports the payout's current state on top of the reservation result
func (m *Manager) describe(ctx context.Context, reserved *entity.TransferResult) *entity.TransferResult {
	result := reserved.Clone()

	payout, err := m.uow.GetPayoutRepository(ctx).GetByID(ctx, reserved.PayoutRequestID)
	if err != nil {
		return result
	}

	if payout.Status.IsReversed() {
		result.Success = false
		result.Error = errs.KindExternalPayoutFailed
		result.Message = fmt.Sprintf("Payout %s: %s, coins returned to balance", payout.Status, payout.LastError)
		if payout.ReversalTxID != "" {
			result.TransactionIDs = append(result.TransactionIDs, payout.ReversalTxID)
		}
		return result
	}

	result.Message = fmt.Sprintf("Payout of %s %s is %s", entity.FormatFiat(payout.FiatAmount), payout.Currency, payout.Status)
	return result
}

// GetPayout returns a payout request
func (m *Manager) GetPayout(ctx context.Context, payoutID string) (*entity.PayoutRequest, error) {
	return m.uow.GetPayoutRepository(ctx).GetByID(ctx, payoutID)
}

// CancelPayout reverses a payout the processor has not acknowledged yet
func (m *Manager) CancelPayout(ctx context.Context, payoutID string) (*entity.TransferResult, error) {
	payout, err := m.uow.GetPayoutRepository(ctx).GetByID(ctx, payoutID)
	if err != nil {
		if errors.Is(err, errs.ErrPayoutNotFound) {
			return entity.FailedResult(err), nil
		}
		return nil, err
	}

	if payout.Status == entity.PayoutCancelled {
		return m.cancelledResult(payout), nil
	}
	if payout.Status != entity.PayoutPending {
		return entity.FailedResult(errs.NewPayoutStateError(payout.ID, string(payout.Status), string(entity.PayoutCancelled))), nil
	}

	// The processor may have accepted a submission whose answer never arrived
	statusCtx, cancel := m.timeProvider.WithTimeout(ctx, m.config.SubmitTimeout)
	receipt, err := m.gateway.Status(statusCtx, payout.ID, payout.ExternalRef)
	cancel()
	switch {
	case errors.Is(err, gateway.ErrPayoutUnknown):
	case err != nil:
		return nil, fmt.Errorf("cannot confirm payout %s with processor: %w", payout.ID, err)
	case receipt == nil || receipt.Status == gateway.ExternalFailed:
	default:
		updated, applyErr := m.applyReceipt(ctx, payout.ID, receipt)
		if applyErr != nil {
			return nil, applyErr
		}
		return entity.FailedResult(errs.NewPayoutStateError(payout.ID, string(updated.Status), string(entity.PayoutCancelled))), nil
	}

	reversed, err := m.reverse(ctx, payout.ID, entity.PayoutCancelled, "cancelled by request")
	if err != nil {
		if errs.IsBusinessRule(err) {
			return entity.FailedResult(err), nil
		}
		return nil, err
	}
	return m.cancelledResult(reversed), nil
}

func (m *Manager) cancelledResult(payout *entity.PayoutRequest) *entity.TransferResult {
	result := &entity.TransferResult{
		Success:         true,
		PayoutRequestID: payout.ID,
		Message:         fmt.Sprintf("Payout cancelled, %d coins returned", payout.Amount),
	}
	if payout.ReversalTxID != "" {
		result.TransactionIDs = []string{payout.ReversalTxID}
	}
	return result
}

// HandlePayoutStatus applies a status report from the processor. Repeated
// reports are no-ops; a report contradicting a terminal state is an error.
func (m *Manager) HandlePayoutStatus(ctx context.Context, update usecase.PayoutStatusUpdate) (*entity.PayoutRequest, error) {
	payoutID := update.PayoutRequestID
	if payoutID == "" {
		if update.ExternalRef == "" {
			return nil, fmt.Errorf("%w: payout id or external reference required", errs.ErrInvalidRequest)
		}
		payout, err := m.uow.GetPayoutRepository(ctx).GetByExternalRef(ctx, update.ExternalRef)
		if err != nil {
			return nil, err
		}
		payoutID = payout.ID
	}

	m.logger.Info("Payout status received", map[string]any{
		"payout_id":    payoutID,
		"external_ref": update.ExternalRef,
		"status":       string(update.Status),
	})

	switch update.Status {
	case entity.PayoutSucceeded:
		return m.finalize(ctx, payoutID, update.ExternalRef)
	case entity.PayoutFailed:
		reason := update.Reason
		if reason == "" {
			reason = "reported failed by processor"
		}
		return m.reverse(ctx, payoutID, entity.PayoutFailed, reason)
	case entity.PayoutSubmitted:
		return m.markSubmitted(ctx, payoutID, update.ExternalRef)
	default:
		return nil, fmt.Errorf("%w: unsupported payout status %q", errs.ErrInvalidRequest, update.Status)
	}
}

// reverse returns the reserved coins with an adjustment credit referencing the
// reservation and moves the payout to target. It is safe to call repeatedly.
func (m *Manager) reverse(ctx context.Context, payoutID string, target entity.PayoutStatus, reason string) (*entity.PayoutRequest, error) {
	payout, err := m.uow.GetPayoutRepository(ctx).GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.Status == target {
		return payout, nil
	}
	if !payout.CanReverse(target) {
		return payout, errs.NewPayoutStateError(payout.ID, string(payout.Status), string(target))
	}

	result, err := m.engine.Execute(ctx, ledger.Operation{
		Name:           OpPayoutReversal,
		IdempotencyKey: "payout-reversal:" + payoutID,
		Fingerprint:    ledger.Fingerprint(OpPayoutReversal, payoutID),
		AccountIDs:     []uint64{payout.AccountID},
		Apply: func(ctx context.Context, tx *ledger.Tx) (*entity.TransferResult, error) {
			locked, err := tx.Payouts().LockByID(ctx, payoutID)
			if err != nil {
				return nil, err
			}
			if !locked.CanReverse(target) {
				return nil, errs.NewPayoutStateError(locked.ID, string(locked.Status), string(target))
			}

			refund, err := tx.Credit(entity.TransactionParams{
				AccountID:   locked.AccountID,
				Amount:      locked.Amount,
				Kind:        entity.KindAdjustment,
				Description: fmt.Sprintf("Payout %s %s", locked.ID, target),
				ReferenceID: locked.ReservationTxID,
			})
			if err != nil {
				return nil, err
			}

			if err := locked.MarkReversed(target, refund.ID, reason, tx.Now()); err != nil {
				return nil, err
			}
			if err := tx.Payouts().Update(ctx, locked); err != nil {
				return nil, err
			}
			return entity.SucceededResult("Payout reversed", refund), nil
		},
	})
	if err != nil {
		return nil, err
	}

	current, loadErr := m.uow.GetPayoutRepository(ctx).GetByID(ctx, payoutID)
	if loadErr != nil {
		return nil, loadErr
	}
	if !result.Success {
		if result.Error == errs.KindInvalidPayoutState {
			return current, errs.NewPayoutStateError(current.ID, string(current.Status), string(target))
		}
		return current, fmt.Errorf("payout %s reversal rejected: %s", payoutID, result.Message)
	}

	if !result.Replayed {
		m.metrics.ObservePayoutTransition(string(target))
		m.logger.Info("Payout reversed", map[string]any{
			"payout_id":   payoutID,
			"account_id":  current.AccountID,
			"amount":      current.Amount,
			"status":      string(target),
			"reason":      reason,
			"reversal_tx": current.ReversalTxID,
		})
	}
	return current, nil
}

func (m *Manager) finalize(ctx context.Context, payoutID, externalRef string) (*entity.PayoutRequest, error) {
	return m.updatePayout(ctx, payoutID, func(payout *entity.PayoutRequest, now time.Time) (bool, error) {
		if payout.Status == entity.PayoutSucceeded {
			return false, nil
		}
		if err := payout.MarkSucceeded(externalRef, now); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (m *Manager) markSubmitted(ctx context.Context, payoutID, externalRef string) (*entity.PayoutRequest, error) {
	return m.updatePayout(ctx, payoutID, func(payout *entity.PayoutRequest, now time.Time) (bool, error) {
		switch payout.Status {
		case entity.PayoutSubmitted, entity.PayoutNeedsReview:
			if externalRef == "" || externalRef == payout.ExternalRef {
				return false, nil
			}
			payout.ExternalRef = externalRef
			payout.UpdatedAt = now
			return true, nil
		}
		if err := payout.MarkSubmitted(externalRef, now); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (m *Manager) recordAttempt(ctx context.Context, payoutID, failure string) (*entity.PayoutRequest, error) {
	return m.updatePayout(ctx, payoutID, func(payout *entity.PayoutRequest, now time.Time) (bool, error) {
		if payout.Status.IsTerminal() {
			return false, nil
		}
		payout.RecordAttempt(failure, now)
		return true, nil
	})
}

func (m *Manager) markNeedsReview(ctx context.Context, payoutID, reason string) (*entity.PayoutRequest, error) {
	return m.updatePayout(ctx, payoutID, func(payout *entity.PayoutRequest, now time.Time) (bool, error) {
		if payout.Status == entity.PayoutNeedsReview {
			return false, nil
		}
		if err := payout.MarkNeedsReview(reason, now); err != nil {
			return false, err
		}
		return true, nil
	})
}

// updatePayout applies mutate to the locked payout in its own unit of work.
// A status change is counted once the unit of work has committed.
func (m *Manager) updatePayout(
	ctx context.Context,
	payoutID string,
	mutate func(payout *entity.PayoutRequest, now time.Time) (bool, error),
) (*entity.PayoutRequest, error) {
	var updated *entity.PayoutRequest
	var previous entity.PayoutStatus

	err := ledger.RetryOnConflict(ctx, m.retry, m.timeProvider, m.logger, "payout_update", func() error {
		txCtx, err := m.uow.Begin(ctx)
		if err != nil {
			return err
		}

		committed := false
		defer func() {
			if !committed {
				_ = m.uow.Rollback(txCtx)
			}
		}()

		repo := m.uow.GetPayoutRepository(txCtx)
		payout, err := repo.LockByID(txCtx, payoutID)
		if err != nil {
			return err
		}
		previous = payout.Status

		changed, err := mutate(payout, m.timeProvider.Now())
		if err != nil {
			return err
		}
		if changed {
			if err := repo.Update(txCtx, payout); err != nil {
				return err
			}
		}

		if err := m.uow.Commit(txCtx); err != nil {
			return err
		}
		committed = true
		updated = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.Status != previous {
		m.metrics.ObservePayoutTransition(string(updated.Status))
	}
	return updated, nil
}

func mergeFields(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var _ usecase.PayoutUseCase = (*Manager)(nil)
