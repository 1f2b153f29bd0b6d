package entity

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

// FiatDecimalPlaces is the precision used for payout amounts
const FiatDecimalPlaces = 2

// ValidateCoinAmount rejects zero and negative amounts
func ValidateCoinAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", errs.ErrInvalidAmount, amount)
	}
	return nil
}

// AddCoins adds a positive amount to a balance, failing on overflow
func AddCoins(balance, amount int64) (int64, error) {
	if err := ValidateCoinAmount(amount); err != nil {
		return 0, err
	}
	if balance > math.MaxInt64-amount {
		return 0, fmt.Errorf("%w: balance would overflow", errs.ErrInvalidAmount)
	}
	return balance + amount, nil
}

// CoinsToFiat converts coins at the given coins-per-unit rate, truncated to cents.
// 1000 coins at a rate of 1000 is 1.00.
func CoinsToFiat(coins int64, coinsPerUnit decimal.Decimal) (decimal.Decimal, error) {
	if !coinsPerUnit.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: conversion rate must be positive", errs.ErrUnsupportedCurrency)
	}
	return decimal.NewFromInt(coins).DivRound(coinsPerUnit, FiatDecimalPlaces+4).Truncate(FiatDecimalPlaces), nil
}

// FormatFiat renders a fiat amount with exactly two decimal places
func FormatFiat(amount decimal.Decimal) string {
	return amount.StringFixed(FiatDecimalPlaces)
}
