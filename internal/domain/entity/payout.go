package entity

import (
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

// PayoutStatus tracks a withdrawal through the external processor
type PayoutStatus string

// Payout statuses
const (
	PayoutPending     PayoutStatus = "pending"      // coins reserved, processor has not acknowledged
	PayoutSubmitted   PayoutStatus = "submitted"    // processor acknowledged, awaiting terminal status
	PayoutSucceeded   PayoutStatus = "succeeded"    // money left the platform
	PayoutFailed      PayoutStatus = "failed"       // reservation reversed
	PayoutCancelled   PayoutStatus = "cancelled"    // reservation reversed on request
	PayoutNeedsReview PayoutStatus = "needs_review" // still reserved, needs an operator
)

// IsTerminal reports whether no further transitions are expected
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutSucceeded || s == PayoutFailed || s == PayoutCancelled
}

// IsReversed reports whether the reserved coins were returned
func (s PayoutStatus) IsReversed() bool {
	return s == PayoutFailed || s == PayoutCancelled
}

// PayoutRequest is a withdrawal whose coins have been reserved by a withdrawal posting
type PayoutRequest struct {
	ID               string
	AccountID        uint64
	Amount           int64
	Currency         string
	FiatAmount       decimal.Decimal
	PayoutProfileRef string
	Status           PayoutStatus
	ReservationTxID  string
	ReversalTxID     string
	ExternalRef      string
	Attempts         int
	LastError        string
	IdempotencyKey   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// NewPayoutRequest creates a pending request for an already reserved amount
func NewPayoutRequest(id string, account *Account, amount int64, currency string, fiat decimal.Decimal, reservationTxID, idempotencyKey string, now time.Time) *PayoutRequest {
	return &PayoutRequest{
		ID:               id,
		AccountID:        account.ID,
		Amount:           amount,
		Currency:         currency,
		FiatAmount:       fiat,
		PayoutProfileRef: account.PayoutProfileRef,
		Status:           PayoutPending,
		ReservationTxID:  reservationTxID,
		IdempotencyKey:   idempotencyKey,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// MarkSubmitted records the processor's acknowledgement
func (p *PayoutRequest) MarkSubmitted(externalRef string, now time.Time) error {
	if p.Status != PayoutPending && p.Status != PayoutSubmitted {
		return p.transitionError(PayoutSubmitted)
	}

	p.Status = PayoutSubmitted
	if externalRef != "" {
		p.ExternalRef = externalRef
	}
	p.LastError = ""
	p.UpdatedAt = now
	return nil
}

// MarkSucceeded finalizes the reservation
func (p *PayoutRequest) MarkSucceeded(externalRef string, now time.Time) error {
	if p.Status.IsTerminal() {
		return p.transitionError(PayoutSucceeded)
	}

	p.Status = PayoutSucceeded
	if externalRef != "" {
		p.ExternalRef = externalRef
	}
	p.UpdatedAt = now
	p.CompletedAt = &now
	return nil
}

// CanReverse reports whether the reservation can still be returned with status target
func (p *PayoutRequest) CanReverse(target PayoutStatus) bool {
	switch target {
	case PayoutCancelled:
		return p.Status == PayoutPending
	case PayoutFailed:
		return !p.Status.IsTerminal()
	}
	return false
}

// MarkReversed records the compensating posting that returned the coins
func (p *PayoutRequest) MarkReversed(target PayoutStatus, reversalTxID, reason string, now time.Time) error {
	if !p.CanReverse(target) {
		return p.transitionError(target)
	}

	p.Status = target
	p.ReversalTxID = reversalTxID
	p.LastError = reason
	p.UpdatedAt = now
	p.CompletedAt = &now
	return nil
}

// MarkNeedsReview flags a request the reconciler could not settle
func (p *PayoutRequest) MarkNeedsReview(reason string, now time.Time) error {
	if p.Status.IsTerminal() {
		return p.transitionError(PayoutNeedsReview)
	}

	p.Status = PayoutNeedsReview
	p.LastError = reason
	p.UpdatedAt = now
	return nil
}

// RecordAttempt counts a hand-off attempt to the processor
func (p *PayoutRequest) RecordAttempt(failure string, now time.Time) {
	p.Attempts++
	p.LastError = failure
	p.UpdatedAt = now
}

func (p *PayoutRequest) transitionError(target PayoutStatus) error {
	return errs.NewPayoutStateError(p.ID, string(p.Status), string(target))
}
