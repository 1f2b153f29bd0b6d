package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyConfig prices coins in one fiat currency
type CurrencyConfig struct {
	CoinsPerUnit      decimal.Decimal // 1000 means 1000 coins buy one unit
	MinimumWithdrawal decimal.Decimal // In fiat units
}

// Config holds payout policy
type Config struct {
	Currencies      map[string]CurrencyConfig
	DefaultCurrency string
	SubmitTimeout   time.Duration // Bound on a single processor call
	StaleAfter      time.Duration // In-flight requests untouched this long are reconciled
	ReviewAfter     time.Duration // Submitted requests older than this are flagged for review
	MaxAttempts     int           // Unacknowledged submissions before the reservation is reversed
	BatchSize       int
	LeaseTTL        time.Duration
	InstanceID      string
}

// DefaultConfig returns a USD-only configuration
func DefaultConfig() Config {
	return Config{
		Currencies: map[string]CurrencyConfig{
			"USD": {
				CoinsPerUnit:      decimal.NewFromInt(1000),
				MinimumWithdrawal: decimal.NewFromInt(1),
			},
		},
		DefaultCurrency: "USD",
		SubmitTimeout:   10 * time.Second,
		StaleAfter:      5 * time.Minute,
		ReviewAfter:     72 * time.Hour,
		MaxAttempts:     5,
		BatchSize:       100,
		LeaseTTL:        time.Minute,
		InstanceID:      "local",
	}
}
