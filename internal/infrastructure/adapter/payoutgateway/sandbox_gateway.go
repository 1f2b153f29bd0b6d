package payoutgateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
)

// SandboxGateway accepts payouts in memory. Amounts at or above RejectAbove
// are refused, which lets local setups exercise the reversal path.
type SandboxGateway struct {
	mu          sync.Mutex
	payouts     map[string]*gateway.PayoutReceipt
	rejectAbove decimal.Decimal
	autoSettle  bool
	logger      coreport.Logger
}

// NewSandboxGateway creates a sandbox processor. A zero rejectAbove accepts everything.
func NewSandboxGateway(rejectAbove decimal.Decimal, autoSettle bool, logger coreport.Logger) *SandboxGateway {
	return &SandboxGateway{
		payouts:     make(map[string]*gateway.PayoutReceipt),
		rejectAbove: rejectAbove,
		autoSettle:  autoSettle,
		logger:      logger,
	}
}

// Submit records the payout, returning the existing receipt for a known id
func (g *SandboxGateway) Submit(_ context.Context, instruction gateway.PayoutInstruction) (*gateway.PayoutReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if receipt, ok := g.payouts[instruction.PayoutRequestID]; ok {
		copied := *receipt
		return &copied, nil
	}

	if g.rejectAbove.IsPositive() && instruction.Amount.GreaterThanOrEqual(g.rejectAbove) {
		return nil, fmt.Errorf("%w: sandbox limit is %s %s", gateway.ErrPayoutRejected, g.rejectAbove.StringFixed(2), instruction.Currency)
	}

	receipt := &gateway.PayoutReceipt{
		ExternalRef: "sbx_" + uuid.NewString(),
		Status:      gateway.ExternalAccepted,
	}
	if g.autoSettle {
		receipt.Status = gateway.ExternalSucceeded
	}
	g.payouts[instruction.PayoutRequestID] = receipt

	g.logger.Info("Sandbox payout accepted", map[string]any{
		"payout_request_id": instruction.PayoutRequestID,
		"external_ref":      receipt.ExternalRef,
		"amount":            instruction.Amount.String(),
		"currency":          instruction.Currency,
	})

	copied := *receipt
	return &copied, nil
}

// Status returns the recorded receipt
func (g *SandboxGateway) Status(_ context.Context, payoutRequestID, _ string) (*gateway.PayoutReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	receipt, ok := g.payouts[payoutRequestID]
	if !ok {
		return nil, gateway.ErrPayoutUnknown
	}
	copied := *receipt
	return &copied, nil
}

// Settle moves an accepted payout to a terminal status, as a processor would
func (g *SandboxGateway) Settle(payoutRequestID string, status gateway.ExternalStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	receipt, ok := g.payouts[payoutRequestID]
	if !ok {
		return gateway.ErrPayoutUnknown
	}
	receipt.Status = status
	return nil
}

var _ gateway.PayoutGateway = (*SandboxGateway)(nil)
