package time

import (
	"context"
	"sync"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

// FixedTimeProvider is a manually advanced clock. Timeouts and waits still use
// real time so that blocking code under test cannot hang forever.
type FixedTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedTimeProvider creates a clock stopped at now
func NewFixedTimeProvider(now time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{now: now}
}

// Now returns the current fixed time
func (p *FixedTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// Advance moves the clock forward
func (p *FixedTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// Since returns the fixed-clock time elapsed since t
func (p *FixedTimeProvider) Since(t time.Time) time.Duration {
	return p.Now().Sub(t)
}

// After fires immediately
func (p *FixedTimeProvider) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- p.Now()
	return ch
}

// WithTimeout returns a context bounded by real time
func (p *FixedTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

var _ core.TimeProvider = (*FixedTimeProvider)(nil)
