package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

// ReconcilerLease is the lease name that keeps reconciliation single-instance
const ReconcilerLease = "payout-reconciler"

// Reconcile settles in-flight payouts that have gone quiet. Pending requests
// are resubmitted (the processor dedupes by payout id) until MaxAttempts, then
// settled by what the processor reports for them. Submitted requests are polled and finalized or reversed, or flagged
// for review once they are older than ReviewAfter.
func (m *Manager) Reconcile(ctx context.Context) (*usecase.ReconcileReport, error) {
	report := &usecase.ReconcileReport{}

	if err := m.leases.Acquire(ctx, ReconcilerLease, m.config.InstanceID, m.config.LeaseTTL); err != nil {
		if errors.Is(err, errs.ErrLeaseHeld) {
			m.logger.Debug("Payout reconciliation running elsewhere", map[string]any{"instance": m.config.InstanceID})
			return report, nil
		}
		return nil, err
	}
	defer func() {
		if err := m.leases.Release(context.WithoutCancel(ctx), ReconcilerLease, m.config.InstanceID); err != nil {
			m.logger.Warn("Failed to release reconciler lease", map[string]any{"error": err.Error()})
		}
	}()

	now := m.timeProvider.Now()
	payouts, err := m.uow.GetPayoutRepository(ctx).ListInFlight(ctx, now.Add(-m.config.StaleAfter), m.config.BatchSize)
	if err != nil {
		return nil, err
	}

	for _, payout := range payouts {
		if ctx.Err() != nil {
			break
		}
		report.Checked++
		if err := m.reconcileOne(ctx, payout, now, report); err != nil {
			report.Errors++
			m.logger.Warn("Payout reconciliation step failed", mergeFields(errs.LogFields(err), map[string]any{
				"payout_id": payout.ID,
				"status":    string(payout.Status),
				"attempts":  payout.Attempts,
			}))
		}
	}

	if count, err := m.uow.GetPayoutRepository(ctx).CountInFlight(ctx); err == nil {
		m.metrics.SetPayoutsInFlight(int(count))
	}

	m.logger.Info("Payout reconciliation finished", map[string]any{
		"checked":     report.Checked,
		"resubmitted": report.Resubmitted,
		"finalized":   report.Finalized,
		"reversed":    report.Reversed,
		"flagged":     report.Flagged,
		"errors":      report.Errors,
	})
	return report, nil
}

func (m *Manager) reconcileOne(ctx context.Context, payout *entity.PayoutRequest, now time.Time, report *usecase.ReconcileReport) error {
	switch payout.Status {
	case entity.PayoutPending:
		if payout.Attempts >= m.config.MaxAttempts {
			return m.settleExhausted(ctx, payout, report)
		}

		report.Resubmitted++
		updated, err := m.submit(ctx, payout)
		if err != nil {
			return err
		}
		m.count(updated, report)
		return nil

	case entity.PayoutSubmitted:
		statusCtx, cancel := m.timeProvider.WithTimeout(ctx, m.config.SubmitTimeout)
		receipt, err := m.gateway.Status(statusCtx, payout.ID, payout.ExternalRef)
		cancel()

		if err == nil && receipt != nil && receipt.Status != gateway.ExternalAccepted {
			updated, err := m.applyReceipt(ctx, payout.ID, receipt)
			if err != nil {
				return err
			}
			m.count(updated, report)
			return nil
		}

		if now.Sub(payout.CreatedAt) > m.config.ReviewAfter {
			reason := "no terminal status from processor"
			if err != nil {
				reason = err.Error()
			}
			if _, flagErr := m.markNeedsReview(ctx, payout.ID, reason); flagErr != nil {
				return flagErr
			}
			report.Flagged++
			return nil
		}

		failure := ""
		if err != nil {
			failure = err.Error()
		}
		if _, recErr := m.recordAttempt(ctx, payout.ID, failure); recErr != nil {
			return recErr
		}
		return err
	}
	return nil
}

// settleExhausted decides a pending payout whose submissions all ended
// ambiguously. Coins are only returned once the processor confirms it never
// paid; an unanswered status query leaves the reservation for an operator.
func (m *Manager) settleExhausted(ctx context.Context, payout *entity.PayoutRequest, report *usecase.ReconcileReport) error {
	statusCtx, cancel := m.timeProvider.WithTimeout(ctx, m.config.SubmitTimeout)
	receipt, err := m.gateway.Status(statusCtx, payout.ID, payout.ExternalRef)
	cancel()

	switch {
	case errors.Is(err, gateway.ErrPayoutUnknown):
		reason := fmt.Sprintf("not acknowledged after %d attempts", payout.Attempts)
		if _, err := m.reverse(ctx, payout.ID, entity.PayoutFailed, reason); err != nil {
			return err
		}
		report.Reversed++
		return nil

	case err != nil, receipt == nil:
		reason := fmt.Sprintf("status unconfirmed after %d attempts", payout.Attempts)
		if err != nil {
			reason = fmt.Sprintf("%s: %s", reason, err.Error())
		}
		if _, flagErr := m.markNeedsReview(ctx, payout.ID, reason); flagErr != nil {
			return flagErr
		}
		report.Flagged++
		return nil
	}

	updated, err := m.applyReceipt(ctx, payout.ID, receipt)
	if err != nil {
		return err
	}
	m.count(updated, report)
	return nil
}

func (m *Manager) count(payout *entity.PayoutRequest, report *usecase.ReconcileReport) {
	if payout == nil {
		return
	}
	switch {
	case payout.Status == entity.PayoutSucceeded:
		report.Finalized++
	case payout.Status.IsReversed():
		report.Reversed++
	}
}
