package idgen

import (
	"regexp"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	timeAdapter "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
)

func TestGenerator(t *testing.T) {
	clock := timeAdapter.NewFixedTimeProvider(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	gen := NewGenerator(clock)

	t.Run("Transaction ids increase within the same millisecond", func(t *testing.T) {
		prev := gen.NewTransactionID()
		for i := 0; i < 1000; i++ {
			next := gen.NewTransactionID()
			require.Greater(t, next, prev)
			prev = next
		}
	})

	t.Run("Ids carry the clock timestamp", func(t *testing.T) {
		id, err := ulid.Parse(gen.NewPayoutID())
		require.NoError(t, err)
		assert.Equal(t, ulid.Timestamp(clock.Now()), id.Time())
	})

	t.Run("Later clock sorts after", func(t *testing.T) {
		before := gen.NewTransactionID()
		clock.Advance(time.Second)
		assert.Greater(t, gen.NewTransactionID(), before)
	})

	t.Run("Referral codes are short upper hex", func(t *testing.T) {
		code := gen.NewReferralCode()
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{10}$`), code)
		assert.NotEqual(t, code, gen.NewReferralCode())
	})

	t.Run("Correlation ids are unique", func(t *testing.T) {
		assert.NotEqual(t, gen.NewCorrelationID(), gen.NewCorrelationID())
	})
}
