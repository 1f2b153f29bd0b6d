package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

// TransactionKind classifies a ledger posting
type TransactionKind string

// Transaction kinds
const (
	KindPurchase      TransactionKind = "purchase"
	KindTipSent       TransactionKind = "tip-sent"
	KindTipReceived   TransactionKind = "tip-received"
	KindReferralBonus TransactionKind = "referral-bonus"
	KindWithdrawal    TransactionKind = "withdrawal"
	KindAdjustment    TransactionKind = "adjustment"
)

// IsValid reports whether k is a known kind
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindPurchase, KindTipSent, KindTipReceived, KindReferralBonus, KindWithdrawal, KindAdjustment:
		return true
	}
	return false
}

// AllowsCredit reports whether a posting of this kind may increase a balance
func (k TransactionKind) AllowsCredit() bool {
	return k == KindPurchase || k == KindTipReceived || k == KindReferralBonus || k == KindAdjustment
}

// AllowsDebit reports whether a posting of this kind may decrease a balance
func (k TransactionKind) AllowsDebit() bool {
	return k == KindTipSent || k == KindWithdrawal || k == KindAdjustment
}

// Transaction is an immutable ledger posting. Amount is signed: credits positive, debits negative.
type Transaction struct {
	ID             string
	AccountID      uint64
	Amount         int64
	Kind           TransactionKind
	Description    string
	RelatedPostID  string  // Post that triggered a tip, if any
	CounterpartyID *uint64 // Other side of a transfer or referral
	CorrelationID  string  // Shared by every posting of one operation
	IdempotencyKey string
	ReferenceID    string // Original transaction for adjustments, referee marker for referral bonuses
	BalanceAfter   int64
	CreatedAt      time.Time
}

// TransactionParams describes a posting before it is applied
type TransactionParams struct {
	AccountID      uint64
	Amount         int64
	Kind           TransactionKind
	Description    string
	RelatedPostID  string
	CounterpartyID *uint64
	ReferenceID    string
}

// NewTransaction validates params and builds the posting
func NewTransaction(id string, params TransactionParams, correlationID, idempotencyKey string, balanceAfter int64, now time.Time) (*Transaction, error) {
	if params.AccountID == 0 {
		return nil, errs.ErrInvalidAccountID
	}
	if params.Amount == 0 {
		return nil, fmt.Errorf("%w: zero amount posting", errs.ErrInvalidAmount)
	}
	if !params.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidTransactionKind, params.Kind)
	}
	if params.Amount > 0 && !params.Kind.AllowsCredit() {
		return nil, fmt.Errorf("%w: %s cannot credit", errs.ErrInvalidTransactionKind, params.Kind)
	}
	if params.Amount < 0 && !params.Kind.AllowsDebit() {
		return nil, fmt.Errorf("%w: %s cannot debit", errs.ErrInvalidTransactionKind, params.Kind)
	}

	return &Transaction{
		ID:             id,
		AccountID:      params.AccountID,
		Amount:         params.Amount,
		Kind:           params.Kind,
		Description:    params.Description,
		RelatedPostID:  params.RelatedPostID,
		CounterpartyID: params.CounterpartyID,
		CorrelationID:  correlationID,
		IdempotencyKey: idempotencyKey,
		ReferenceID:    params.ReferenceID,
		BalanceAfter:   balanceAfter,
		CreatedAt:      now,
	}, nil
}

// IsCredit returns true if this transaction increased the balance
func (t *Transaction) IsCredit() bool {
	return t.Amount > 0
}

// IsDebit returns true if this transaction decreased the balance
func (t *Transaction) IsDebit() bool {
	return t.Amount < 0
}

// ReferralReferencePrefix starts every reference written by a referral redemption
const ReferralReferencePrefix = "referral:"

// ReferralReference marks the referral-bonus postings of one redemption
func ReferralReference(refereeID uint64) string {
	return ReferralReferencePrefix + strconv.FormatUint(refereeID, 10)
}

// IsReferralReference reports whether reference belongs to the referral namespace
func IsReferralReference(reference string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(reference)), ReferralReferencePrefix)
}
