package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

func TestFingerprint(t *testing.T) {
	base := Fingerprint(OpTransfer, uint64(1), uint64(2), int64(100), "tip", "")

	assert.Equal(t, base, Fingerprint(OpTransfer, uint64(1), uint64(2), int64(100), "tip", ""))
	assert.NotEqual(t, base, Fingerprint(OpTransfer, uint64(1), uint64(2), int64(101), "tip", ""))
	assert.NotEqual(t, base, Fingerprint(OpCredit, uint64(1), uint64(2), int64(100), "tip", ""))
	// Field boundaries are preserved
	assert.NotEqual(t, Fingerprint("op", "ab", "c"), Fingerprint("op", "a", "bc"))
}

func TestIdempotencyHandler(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	handler := NewIdempotencyHandler()
	repo := h.uow.GetIdempotencyRepository(ctx)

	op := Operation{Name: OpCredit, IdempotencyKey: "buy-1", Fingerprint: Fingerprint(OpCredit, 1, 100)}

	t.Run("Unused key", func(t *testing.T) {
		replay, err := handler.CheckIdempotency(ctx, repo, op)
		require.NoError(t, err)
		assert.Nil(t, replay)
	})

	balance := int64(100)
	original := &entity.TransferResult{Success: true, TransactionIDs: []string{"tx-1"}, Balance: &balance}
	require.NoError(t, handler.Record(ctx, repo, op, original, testEpoch))

	t.Run("Same request replays a copy", func(t *testing.T) {
		replay, err := handler.CheckIdempotency(ctx, repo, op)
		require.NoError(t, err)
		require.NotNil(t, replay)
		assert.True(t, replay.Replayed)
		assert.Equal(t, []string{"tx-1"}, replay.TransactionIDs)
		assert.False(t, original.Replayed)
	})

	t.Run("Different request conflicts", func(t *testing.T) {
		other := op
		other.Fingerprint = Fingerprint(OpCredit, 1, 200)

		_, err := handler.CheckIdempotency(ctx, repo, other)
		assert.ErrorIs(t, err, errs.ErrIdempotencyKeyMismatch)
	})

	t.Run("Key reuse across operations conflicts", func(t *testing.T) {
		other := op
		other.Name = OpDebit

		_, err := handler.CheckIdempotency(ctx, repo, other)
		assert.ErrorIs(t, err, errs.ErrIdempotencyKeyMismatch)
	})
}
