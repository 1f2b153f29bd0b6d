package usecase

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// PayoutRequestInput asks for a withdrawal of coins
type PayoutRequestInput struct {
	AccountID      uint64
	Amount         int64
	Currency       string // Defaults to the configured currency when empty
	IdempotencyKey string
}

// PayoutStatusUpdate is the terminal status reported by the processor
type PayoutStatusUpdate struct {
	PayoutRequestID string
	ExternalRef     string
	Status          entity.PayoutStatus // succeeded or failed
	Reason          string
}

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Checked     int `json:"checked"`
	Resubmitted int `json:"resubmitted"`
	Finalized   int `json:"finalized"`
	Reversed    int `json:"reversed"`
	Flagged     int `json:"flagged"`
	Errors      int `json:"errors"`
}

// PayoutUseCase manages withdrawals through their external lifecycle
type PayoutUseCase interface {
	RequestPayout(ctx context.Context, input PayoutRequestInput) (*entity.TransferResult, error)
	GetPayout(ctx context.Context, payoutID string) (*entity.PayoutRequest, error)
	CancelPayout(ctx context.Context, payoutID string) (*entity.TransferResult, error)
	HandlePayoutStatus(ctx context.Context, update PayoutStatusUpdate) (*entity.PayoutRequest, error)
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}
