package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPayoutRejected is returned by a gateway when the processor definitively refused the payout.
// Any other error is ambiguous: the payout may or may not have been accepted.
var ErrPayoutRejected = errors.New("payout rejected by processor")

// ErrPayoutUnknown is returned by Status when the processor has no record of the payout
var ErrPayoutUnknown = errors.New("payout unknown to processor")

// ExternalStatus is the processor's view of a payout
type ExternalStatus string

const (
	ExternalAccepted  ExternalStatus = "accepted"
	ExternalSucceeded ExternalStatus = "succeeded"
	ExternalFailed    ExternalStatus = "failed"
)

// PayoutInstruction is what the processor needs to move money. PayoutRequestID
// doubles as the processor idempotency key so resubmission is safe.
type PayoutInstruction struct {
	PayoutRequestID  string
	AccountID        uint64
	PayoutProfileRef string
	Amount           decimal.Decimal
	Currency         string
	ReservationTxID  string
}

// PayoutReceipt is the processor's answer to a submission or status query
type PayoutReceipt struct {
	ExternalRef string
	Status      ExternalStatus
	Reason      string
}

// PayoutGateway hands payouts to the external processor
type PayoutGateway interface {
	Submit(ctx context.Context, instruction PayoutInstruction) (*PayoutReceipt, error)
	Status(ctx context.Context, payoutRequestID, externalRef string) (*PayoutReceipt, error)
}
