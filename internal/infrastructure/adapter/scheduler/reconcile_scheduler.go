package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

// cronLogger adapts the core logger to cron's logger
type cronLogger struct {
	logger coreport.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := pairs(keysAndValues)
	fields["error"] = err.Error()
	l.logger.Error("cron: "+msg, fields)
}

func pairs(keysAndValues []interface{}) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// ReconcileScheduler runs payout reconciliation on a cron schedule
type ReconcileScheduler struct {
	cron    *cron.Cron
	payouts usecase.PayoutUseCase
	timeout time.Duration
	logger  coreport.Logger
}

// NewReconcileScheduler schedules payouts.Reconcile. Overlapping runs are
// skipped; the store lease keeps other instances out.
func NewReconcileScheduler(schedule string, timeout time.Duration, payouts usecase.PayoutUseCase, logger coreport.Logger) (*ReconcileScheduler, error) {
	adapter := cronLogger{logger: logger}
	s := &ReconcileScheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		payouts: payouts,
		timeout: timeout,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs a single reconciliation pass
func (s *ReconcileScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.payouts.Reconcile(ctx)
	if err != nil {
		s.logger.Error("Payout reconciliation failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if report.Checked > 0 {
		s.logger.Info("Payout reconciliation finished", map[string]any{
			"checked":     report.Checked,
			"resubmitted": report.Resubmitted,
			"finalized":   report.Finalized,
			"reversed":    report.Reversed,
			"flagged":     report.Flagged,
			"errors":      report.Errors,
		})
	}
}

// Start begins running the schedule in the background
func (s *ReconcileScheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running pass to finish or ctx to end
func (s *ReconcileScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Reconciliation still running at shutdown", nil)
	}
}
