package entity

import (
	"time"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

// Account holds a user's coin balance. The balance only changes through ledger postings.
type Account struct {
	ID               uint64    // Unique identifier, shared with the user id of the managed backend
	balance          int64     // Whole coins, never negative
	ReferralCode     string    // Unique code other users redeem at signup
	ReferredBy       *uint64   // Account whose referral code this account redeemed
	PayoutProfileRef string    // Opaque reference to the external payout profile
	Version          uint64    // Optimistic concurrency version, incremented on every write
	CreatedAt        time.Time // When the account was created
	UpdatedAt        time.Time // When the account was last updated
}

// NewAccount creates an account with a zero balance
func NewAccount(id uint64, referralCode string, now time.Time) (*Account, error) {
	if id == 0 {
		return nil, errs.ErrInvalidAccountID
	}
	if referralCode == "" {
		return nil, errs.ErrInvalidReferralCode
	}

	return &Account{
		ID:           id,
		ReferralCode: referralCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Balance returns the current balance in coins
func (a *Account) Balance() int64 {
	return a.balance
}

// SetBalance updates the balance directly (for repositories restoring state)
func (a *Account) SetBalance(balance int64) {
	a.balance = balance
}

// CanDebit checks if the account holds at least amount coins
func (a *Account) CanDebit(amount int64) bool {
	return amount > 0 && a.balance >= amount
}

// Credit adds amount to the balance
func (a *Account) Credit(amount int64, now time.Time) error {
	next, err := AddCoins(a.balance, amount)
	if err != nil {
		return err
	}

	a.balance = next
	a.UpdatedAt = now
	return nil
}

// Debit subtracts amount from the balance, refusing to go below zero
func (a *Account) Debit(amount int64, now time.Time) error {
	if err := ValidateCoinAmount(amount); err != nil {
		return err
	}
	if a.balance < amount {
		return errs.NewInsufficientBalanceError(a.ID, a.balance, amount)
	}

	a.balance -= amount
	a.UpdatedAt = now
	return nil
}

// HasRedeemedReferral reports whether the referred-by relation is already set
func (a *Account) HasRedeemedReferral() bool {
	return a.ReferredBy != nil
}

// SetReferredBy records the referring account. It can only be set once.
func (a *Account) SetReferredBy(referrerID uint64, now time.Time) error {
	if referrerID == 0 || referrerID == a.ID {
		return errs.ErrInvalidReferralCode
	}
	if a.HasRedeemedReferral() {
		return errs.ErrReferralAlreadyRedeemed
	}

	a.ReferredBy = &referrerID
	a.UpdatedAt = now
	return nil
}

// HasPayoutProfile reports whether payouts can be routed for this account
func (a *Account) HasPayoutProfile() bool {
	return a.PayoutProfileRef != ""
}

// SetPayoutProfile links an external payout profile
func (a *Account) SetPayoutProfile(ref string, now time.Time) {
	a.PayoutProfileRef = ref
	a.UpdatedAt = now
}
