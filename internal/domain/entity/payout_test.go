package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

func newTestPayout(t *testing.T) *PayoutRequest {
	t.Helper()

	account, err := NewAccount(1, "CODE", fixedTime)
	require.NoError(t, err)
	account.SetPayoutProfile("acct_1", fixedTime)

	return NewPayoutRequest("po-1", account, 1000, "USD", decimal.RequireFromString("1.00"), "tx-1", "key", fixedTime)
}

func TestPayoutRequestLifecycle(t *testing.T) {
	later := fixedTime.Add(time.Minute)

	t.Run("New request is pending and in flight", func(t *testing.T) {
		payout := newTestPayout(t)

		assert.Equal(t, PayoutPending, payout.Status)
		assert.Equal(t, "acct_1", payout.PayoutProfileRef)
		assert.False(t, payout.Status.IsTerminal())
	})

	t.Run("Submitted then succeeded", func(t *testing.T) {
		payout := newTestPayout(t)

		require.NoError(t, payout.MarkSubmitted("ext-1", later))
		require.NoError(t, payout.MarkSucceeded("", later))

		assert.Equal(t, PayoutSucceeded, payout.Status)
		assert.Equal(t, "ext-1", payout.ExternalRef)
		require.NotNil(t, payout.CompletedAt)
	})

	t.Run("Cancel only while pending", func(t *testing.T) {
		payout := newTestPayout(t)
		require.NoError(t, payout.MarkSubmitted("ext-1", later))

		err := payout.MarkReversed(PayoutCancelled, "tx-2", "user cancelled", later)
		assert.ErrorIs(t, err, errs.ErrInvalidPayoutState)
		assert.Equal(t, PayoutSubmitted, payout.Status)
	})

	t.Run("Failure reverses a submitted request", func(t *testing.T) {
		payout := newTestPayout(t)
		require.NoError(t, payout.MarkSubmitted("ext-1", later))

		require.NoError(t, payout.MarkReversed(PayoutFailed, "tx-2", "account closed", later))
		assert.Equal(t, PayoutFailed, payout.Status)
		assert.True(t, payout.Status.IsReversed())
		assert.Equal(t, "tx-2", payout.ReversalTxID)
	})

	t.Run("Terminal requests cannot change", func(t *testing.T) {
		payout := newTestPayout(t)
		require.NoError(t, payout.MarkSucceeded("ext", later))

		assert.ErrorIs(t, payout.MarkReversed(PayoutFailed, "tx-2", "", later), errs.ErrInvalidPayoutState)
		assert.ErrorIs(t, payout.MarkNeedsReview("late", later), errs.ErrInvalidPayoutState)
		assert.ErrorIs(t, payout.MarkSubmitted("x", later), errs.ErrInvalidPayoutState)
	})

	t.Run("Attempts are counted", func(t *testing.T) {
		payout := newTestPayout(t)

		payout.RecordAttempt("timeout", later)
		payout.RecordAttempt("timeout", later)

		assert.Equal(t, 2, payout.Attempts)
		assert.Equal(t, "timeout", payout.LastError)
	})
}
