package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

// Operation outcomes used for metrics labels
const (
	OutcomeSuccess  = "success"
	OutcomeReplay   = "replay"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

const postCommitTimeout = 2 * time.Second

// Operation is one atomic ledger mutation. Apply runs inside a unit of work
// with every account in AccountIDs locked; returning an error or a failed
// result discards everything it did.
type Operation struct {
	Name           string
	IdempotencyKey string
	Fingerprint    string
	AccountIDs     []uint64
	Apply          func(ctx context.Context, tx *Tx) (*entity.TransferResult, error)
}

// Engine executes ledger operations atomically, serialized per account
type Engine struct {
	uow          persistence.UnitOfWork
	locks        *AccountLocks
	idempotency  *IdempotencyHandler
	ids          coreport.IDGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	metrics      coreport.Metrics
	publisher    gateway.EventPublisher
	cache        gateway.BalanceCache
	retry        RetryConfig
	lockTimeout  time.Duration
}

// EngineOption configures optional collaborators
type EngineOption func(*Engine)

// WithEventPublisher streams committed postings
func WithEventPublisher(publisher gateway.EventPublisher) EngineOption {
	return func(e *Engine) { e.publisher = publisher }
}

// WithBalanceCache invalidates cached balances after each commit
func WithBalanceCache(cache gateway.BalanceCache) EngineOption {
	return func(e *Engine) { e.cache = cache }
}

// WithMetrics records operation outcomes
func WithMetrics(metrics coreport.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// WithRetryConfig overrides the conflict retry policy
func WithRetryConfig(config RetryConfig) EngineOption {
	return func(e *Engine) { e.retry = config }
}

// WithLockTimeout bounds the wait for per-account locks
func WithLockTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) { e.lockTimeout = timeout }
}

// NewEngine creates a new ledger engine
func NewEngine(
	uow persistence.UnitOfWork,
	ids coreport.IDGenerator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		uow:          uow,
		locks:        NewAccountLocks(),
		idempotency:  NewIdempotencyHandler(),
		ids:          ids,
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      coreport.NoopMetrics{},
		retry:        DefaultRetryConfig(),
		lockTimeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs op. Business-rule failures come back as a failed result; only
// faults are returned as errors, and a fault means nothing was applied.
func (e *Engine) Execute(ctx context.Context, op Operation) (*entity.TransferResult, error) {
	start := e.timeProvider.Now()
	result, err := e.execute(ctx, op)

	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = OutcomeError
		e.logger.Error("Ledger operation failed", mergeFields(errs.LogFields(err), map[string]any{
			"operation":       op.Name,
			"idempotency_key": op.IdempotencyKey,
			"accounts":        op.AccountIDs,
		}))
	case result.Replayed:
		outcome = OutcomeReplay
		e.metrics.ObserveReplay(op.Name)
	case !result.Success:
		outcome = OutcomeRejected
		e.logger.Info("Ledger operation rejected", map[string]any{
			"operation": op.Name,
			"error":     string(result.Error),
			"accounts":  op.AccountIDs,
		})
	}
	e.metrics.ObserveOperation(op.Name, outcome, e.timeProvider.Since(start))

	return result, err
}

func (e *Engine) execute(ctx context.Context, op Operation) (*entity.TransferResult, error) {
	if op.IdempotencyKey != "" {
		replay, err := e.idempotency.CheckIdempotency(ctx, e.uow.GetIdempotencyRepository(ctx), op)
		if err != nil {
			return e.classify(op, err)
		}
		if replay != nil {
			return replay, nil
		}
	}

	ids := SortedAccountIDs(op.AccountIDs...)
	lockCtx, cancel := e.timeProvider.WithTimeout(ctx, e.lockTimeout)
	release, err := e.locks.Acquire(lockCtx, ids...)
	cancel()
	if err != nil {
		return nil, errs.NewStoreError(op.Name+": waiting for account lock", err)
	}
	defer release()

	var (
		result *entity.TransferResult
		tx     *Tx
	)
	err = RetryOnConflict(ctx, e.retry, e.timeProvider, e.logger, op.Name, func() error {
		var runErr error
		result, tx, runErr = e.runOnce(ctx, op, ids)
		return runErr
	})
	if err != nil {
		if errors.Is(err, errs.ErrConcurrentModification) {
			err = errs.NewStoreError(op.Name, err)
		}
		return nil, err
	}

	if tx != nil {
		e.afterCommit(ctx, op, tx)
	}
	return result, nil
}

// runOnce performs a single attempt. A nil Tx means nothing was committed.
func (e *Engine) runOnce(ctx context.Context, op Operation, ids []uint64) (*entity.TransferResult, *Tx, error) {
	txCtx, err := e.uow.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := e.uow.Rollback(txCtx); rbErr != nil {
			e.logger.Warn("Failed to roll back ledger unit of work", map[string]any{
				"operation": op.Name,
				"error":     rbErr.Error(),
			})
		}
	}()

	idempotencyRepo := e.uow.GetIdempotencyRepository(txCtx)
	if op.IdempotencyKey != "" {
		replay, err := e.idempotency.CheckIdempotency(txCtx, idempotencyRepo, op)
		if err != nil {
			result, faultErr := e.classify(op, err)
			return result, nil, faultErr
		}
		if replay != nil {
			return replay, nil, nil
		}
	}

	accounts, err := e.uow.GetAccountRepository(txCtx).LockForUpdate(txCtx, ids...)
	if err != nil {
		result, faultErr := e.classify(op, err)
		return result, nil, faultErr
	}

	tx := newTx(txCtx, e, op, accounts)
	result, err := op.Apply(txCtx, tx)
	if err != nil {
		result, faultErr := e.classify(op, err)
		return result, nil, faultErr
	}
	if !result.Success {
		return result, nil, nil
	}

	if err := tx.flush(); err != nil {
		return nil, nil, err
	}

	if op.IdempotencyKey != "" {
		if err := e.idempotency.Record(txCtx, idempotencyRepo, op, result, tx.Now()); err != nil {
			if errors.Is(err, errs.ErrDuplicateIdempotencyKey) {
				// Another request committed the key first; the retry replays it.
				return nil, nil, errs.ErrConcurrentModification
			}
			return nil, nil, err
		}
	}

	if err := e.uow.Commit(txCtx); err != nil {
		return nil, nil, err
	}
	committed = true

	return result, tx, nil
}

// classify turns business-rule errors into failed results and passes faults through
func (e *Engine) classify(op Operation, err error) (*entity.TransferResult, error) {
	if errs.IsBusinessRule(err) {
		return entity.FailedResult(err), nil
	}
	return nil, err
}

func (e *Engine) afterCommit(ctx context.Context, op Operation, tx *Tx) {
	postings := tx.Postings()
	if len(postings) == 0 {
		return
	}

	bgCtx, cancel := e.timeProvider.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if e.cache != nil {
		if err := e.cache.Invalidate(bgCtx, tx.TouchedAccounts()...); err != nil {
			e.logger.Warn("Failed to invalidate cached balances", map[string]any{
				"operation": op.Name,
				"accounts":  tx.TouchedAccounts(),
				"error":     err.Error(),
			})
		}
	}

	if e.publisher != nil {
		events := make([]entity.LedgerEvent, 0, len(postings))
		for _, posting := range postings {
			events = append(events, entity.NewLedgerEvent(posting))
		}
		if err := e.publisher.Publish(bgCtx, events); err != nil {
			e.logger.Warn("Failed to publish ledger events", map[string]any{
				"operation":      op.Name,
				"correlation_id": tx.CorrelationID(),
				"events":         len(events),
				"error":          err.Error(),
			})
		}
	}

	e.logger.Debug("Ledger operation committed", map[string]any{
		"operation":      op.Name,
		"correlation_id": tx.CorrelationID(),
		"postings":       len(postings),
	})
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
