package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedAccountIDs(t *testing.T) {
	assert.Equal(t, []uint64{1, 3, 7}, SortedAccountIDs(7, 3, 1, 3))
	assert.Empty(t, SortedAccountIDs())
}

func TestAccountLocks(t *testing.T) {
	ctx := context.Background()

	t.Run("Acquire and release", func(t *testing.T) {
		locks := NewAccountLocks()

		release, err := locks.Acquire(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, locks.Held())

		release()
		assert.Equal(t, 0, locks.Held())
	})

	t.Run("Same account waits", func(t *testing.T) {
		locks := NewAccountLocks()

		release, err := locks.Acquire(ctx, 1)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = locks.Acquire(waitCtx, 1, 2)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		release()
		assert.Equal(t, 0, locks.Held(), "timed out waiter must not leak slots")
	})

	t.Run("Disjoint accounts do not block", func(t *testing.T) {
		locks := NewAccountLocks()

		first, err := locks.Acquire(ctx, 1, 2)
		require.NoError(t, err)
		defer first()

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		second, err := locks.Acquire(waitCtx, 3, 4)
		require.NoError(t, err)
		second()
	})

	t.Run("Opposite order pairs do not deadlock", func(t *testing.T) {
		locks := NewAccountLocks()
		var (
			wg      sync.WaitGroup
			inside  atomic.Int32
			overlap atomic.Bool
		)

		for i := 0; i < 50; i++ {
			wg.Add(2)
			for _, pair := range [][]uint64{{1, 2}, {2, 1}} {
				go func(pair []uint64) {
					defer wg.Done()
					release, err := locks.Acquire(ctx, pair...)
					if !assert.NoError(t, err) {
						return
					}
					if inside.Add(1) > 1 {
						overlap.Store(true)
					}
					inside.Add(-1)
					release()
				}(pair)
			}
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("lock acquisition deadlocked")
		}
		assert.False(t, overlap.Load())
	})
}
