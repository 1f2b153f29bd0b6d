package ledger

import (
	"context"
	"math/rand"
	"time"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // Factor to add randomness to retry intervals (0.0-1.0)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		RetryInterval: 20 * time.Millisecond,
		MaxInterval:   500 * time.Millisecond,
		JitterFactor:  0.2,
	}
}

// RetryOnConflict runs operation until it succeeds, fails with a non-retryable
// error, or the attempts run out. Conflicts and store hiccups are retried.
func RetryOnConflict(
	ctx context.Context,
	config RetryConfig,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	operationName string,
	operation func() error,
) error {
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = operation()
		if err == nil || !errs.IsRetryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		backoff := backoffWithJitter(attempt, config)
		logger.Warn("Retryable ledger error, retrying operation", map[string]any{
			"operation":   operationName,
			"attempt":     attempt + 1,
			"max_retries": attempts,
			"error":       err.Error(),
			"retry_after": backoff.String(),
		})

		select {
		case <-timeProvider.After(backoff):
		case <-ctx.Done():
			return errs.NewStoreError(operationName, ctx.Err())
		}
	}

	logger.Error("All retry attempts failed", map[string]any{
		"operation":   operationName,
		"max_retries": attempts,
		"error":       err.Error(),
	})
	return err
}

func backoffWithJitter(attempt int, config RetryConfig) time.Duration {
	backoff := config.RetryInterval * (1 << uint(attempt))
	if config.MaxInterval > 0 && backoff > config.MaxInterval {
		backoff = config.MaxInterval
	}

	if config.JitterFactor > 0 {
		backoff += time.Duration(float64(backoff) * config.JitterFactor * rand.Float64())
	}
	return backoff
}
