package entity

import "time"

// LedgerEvent is published after a posting is committed, for read-side projections
type LedgerEvent struct {
	EventType      string    `json:"eventType"`
	TransactionID  string    `json:"transactionId"`
	AccountID      uint64    `json:"accountId"`
	Amount         int64     `json:"amount"`
	Kind           string    `json:"kind"`
	BalanceAfter   int64     `json:"balanceAfter"`
	CorrelationID  string    `json:"correlationId"`
	CounterpartyID *uint64   `json:"counterpartyId,omitempty"`
	RelatedPostID  string    `json:"relatedPostId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// NewLedgerEvent builds the event for a committed transaction
func NewLedgerEvent(tx *Transaction) LedgerEvent {
	return LedgerEvent{
		EventType:      "ledger." + string(tx.Kind),
		TransactionID:  tx.ID,
		AccountID:      tx.AccountID,
		Amount:         tx.Amount,
		Kind:           string(tx.Kind),
		BalanceAfter:   tx.BalanceAfter,
		CorrelationID:  tx.CorrelationID,
		CounterpartyID: tx.CounterpartyID,
		RelatedPostID:  tx.RelatedPostID,
		OccurredAt:     tx.CreatedAt,
	}
}
