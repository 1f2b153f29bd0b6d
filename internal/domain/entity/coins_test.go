package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinsToFiat(t *testing.T) {
	testCases := []struct {
		coins    int64
		rate     string
		expected string
	}{
		{1000, "1000", "1.00"},
		{25000, "1000", "25.00"},
		{1999, "1000", "1.99"},
		{1, "1000", "0.00"},
		{1100, "1100", "1.00"},
		{5000, "1100", "4.54"},
	}

	for _, tc := range testCases {
		t.Run(tc.rate+"/"+tc.expected, func(t *testing.T) {
			fiat, err := CoinsToFiat(tc.coins, decimal.RequireFromString(tc.rate))

			require.NoError(t, err)
			assert.Equal(t, tc.expected, FormatFiat(fiat))
		})
	}

	t.Run("Rate must be positive", func(t *testing.T) {
		_, err := CoinsToFiat(1000, decimal.Zero)
		assert.Error(t, err)
	})
}

func TestAddCoins(t *testing.T) {
	sum, err := AddCoins(10, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), sum)

	_, err = AddCoins(10, 0)
	assert.Error(t, err)
}
