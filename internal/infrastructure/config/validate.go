package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/payout"
)

// Validate checks the settings that have no safe fallback
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Ledger.DefaultPageSize <= 0 || c.Ledger.MaxPageSize < c.Ledger.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d", c.Ledger.DefaultPageSize, c.Ledger.MaxPageSize)
	}
	if c.Ledger.RetryAttempts < 1 {
		return fmt.Errorf("ledger retry attempts must be at least 1, got: %d", c.Ledger.RetryAttempts)
	}
	if c.Referral.ReferrerBonus <= 0 {
		return errors.New("referrer bonus must be positive")
	}
	if c.Referral.RefereeBonus < 0 {
		return errors.New("referee bonus must not be negative")
	}
	if _, err := c.PayoutPolicy(); err != nil {
		return err
	}
	if c.Environment == Production && c.Payout.WebhookSecret == "" {
		return errors.New("payout webhook secret is required in production")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	if c.Events.Enabled && (len(c.Events.Brokers) == 0 || c.Events.Topic == "") {
		return errors.New("events require brokers and a topic")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive rate and burst")
	}
	return nil
}

// PayoutPolicy converts the payout settings into the payout manager's configuration
func (c *Config) PayoutPolicy() (payout.Config, error) {
	policy := payout.DefaultConfig()
	policy.Currencies = make(map[string]payout.CurrencyConfig, len(c.Payout.Currencies))

	for code, currency := range c.Payout.Currencies {
		rate, err := decimal.NewFromString(currency.CoinsPerUnit)
		if err != nil || !rate.IsPositive() {
			return payout.Config{}, fmt.Errorf("invalid coinsPerUnit for %s: %q", code, currency.CoinsPerUnit)
		}
		minimum, err := decimal.NewFromString(currency.MinimumWithdrawal)
		if err != nil || minimum.IsNegative() {
			return payout.Config{}, fmt.Errorf("invalid minimumWithdrawal for %s: %q", code, currency.MinimumWithdrawal)
		}
		policy.Currencies[code] = payout.CurrencyConfig{
			CoinsPerUnit:      rate,
			MinimumWithdrawal: minimum,
		}
	}

	if _, ok := policy.Currencies[c.Payout.DefaultCurrency]; !ok {
		return payout.Config{}, fmt.Errorf("default currency %q is not configured", c.Payout.DefaultCurrency)
	}
	policy.DefaultCurrency = c.Payout.DefaultCurrency

	if c.Payout.SubmitTimeout > 0 {
		policy.SubmitTimeout = c.Payout.SubmitTimeout
	}
	if c.Payout.StaleAfter > 0 {
		policy.StaleAfter = c.Payout.StaleAfter
	}
	if c.Payout.ReviewAfter > 0 {
		policy.ReviewAfter = c.Payout.ReviewAfter
	}
	if c.Payout.MaxAttempts > 0 {
		policy.MaxAttempts = c.Payout.MaxAttempts
	}
	if c.Payout.BatchSize > 0 {
		policy.BatchSize = c.Payout.BatchSize
	}
	if c.Payout.LeaseTTL > 0 {
		policy.LeaseTTL = c.Payout.LeaseTTL
	}
	if c.Payout.InstanceID != "" {
		policy.InstanceID = c.Payout.InstanceID
	}
	return policy, nil
}
