package dto

import (
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// PayoutRequest represents the API request for withdrawing coins as fiat
type PayoutRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency" binding:"omitempty,len=3,alpha"`
}

// PayoutResponse represents a payout request as exposed by the API
type PayoutResponse struct {
	ID              string     `json:"id"`
	AccountID       uint64     `json:"accountId"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	FiatAmount      string     `json:"fiatAmount"`
	Status          string     `json:"status"`
	ReservationTxID string     `json:"reservationTransactionId"`
	ReversalTxID    string     `json:"reversalTransactionId,omitempty"`
	ExternalRef     string     `json:"externalRef,omitempty"`
	Attempts        int        `json:"attempts"`
	LastError       string     `json:"lastError,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// NewPayoutResponse converts a payout request entity
func NewPayoutResponse(payout *entity.PayoutRequest) PayoutResponse {
	return PayoutResponse{
		ID:              payout.ID,
		AccountID:       payout.AccountID,
		Amount:          payout.Amount,
		Currency:        payout.Currency,
		FiatAmount:      payout.FiatAmount.StringFixed(2),
		Status:          string(payout.Status),
		ReservationTxID: payout.ReservationTxID,
		ReversalTxID:    payout.ReversalTxID,
		ExternalRef:     payout.ExternalRef,
		Attempts:        payout.Attempts,
		LastError:       payout.LastError,
		CreatedAt:       payout.CreatedAt,
		UpdatedAt:       payout.UpdatedAt,
		CompletedAt:     payout.CompletedAt,
	}
}

// PayoutWebhookRequest represents a terminal status notification from the payment processor
type PayoutWebhookRequest struct {
	PayoutRequestID string `json:"payoutRequestId" binding:"required_without=ExternalRef"`
	ExternalRef     string `json:"externalRef" binding:"required_without=PayoutRequestID"`
	Status          string `json:"status" binding:"required,oneof=succeeded failed"`
	Reason          string `json:"reason" binding:"omitempty,max=512"`
}
