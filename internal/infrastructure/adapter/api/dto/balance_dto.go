package dto

import (
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// BalanceResponse represents the API response for an account balance
type BalanceResponse struct {
	AccountID      uint64 `json:"accountId"`
	Balance        int64  `json:"balance"`
	MaxStalenessMs int64  `json:"maxStalenessMs"`
	Cached         bool   `json:"cached"`
}

// NewBalanceResponse converts a balance view
func NewBalanceResponse(view *entity.BalanceView) BalanceResponse {
	return BalanceResponse{
		AccountID:      view.AccountID,
		Balance:        view.Balance,
		MaxStalenessMs: view.MaxStaleness.Milliseconds(),
		Cached:         view.Cached,
	}
}

// TransactionResponse represents one ledger posting
type TransactionResponse struct {
	ID             string    `json:"id"`
	AccountID      uint64    `json:"accountId"`
	Amount         int64     `json:"amount"`
	Kind           string    `json:"kind"`
	Description    string    `json:"description,omitempty"`
	RelatedPostID  string    `json:"relatedPostId,omitempty"`
	CounterpartyID *uint64   `json:"counterpartyId,omitempty"`
	CorrelationID  string    `json:"correlationId"`
	ReferenceID    string    `json:"referenceId,omitempty"`
	BalanceAfter   int64     `json:"balanceAfter"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HistoryResponse represents one page of transaction history
type HistoryResponse struct {
	Items      []TransactionResponse `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

// NewHistoryResponse converts a transaction page
func NewHistoryResponse(page *entity.TransactionPage) HistoryResponse {
	items := make([]TransactionResponse, 0, len(page.Items))
	for _, tx := range page.Items {
		items = append(items, TransactionResponse{
			ID:             tx.ID,
			AccountID:      tx.AccountID,
			Amount:         tx.Amount,
			Kind:           string(tx.Kind),
			Description:    tx.Description,
			RelatedPostID:  tx.RelatedPostID,
			CounterpartyID: tx.CounterpartyID,
			CorrelationID:  tx.CorrelationID,
			ReferenceID:    tx.ReferenceID,
			BalanceAfter:   tx.BalanceAfter,
			CreatedAt:      tx.CreatedAt,
		})
	}

	return HistoryResponse{Items: items, NextCursor: page.NextCursor}
}

// AuditResponse represents the result of an account audit
type AuditResponse struct {
	AccountID        uint64 `json:"accountId"`
	Balance          int64  `json:"balance"`
	LedgerSum        int64  `json:"ledgerSum"`
	TransactionCount int64  `json:"transactionCount"`
	Consistent       bool   `json:"consistent"`
}

// NewAuditResponse converts an audit report
func NewAuditResponse(report *entity.AuditReport) AuditResponse {
	return AuditResponse{
		AccountID:        report.AccountID,
		Balance:          report.Balance,
		LedgerSum:        report.LedgerSum,
		TransactionCount: report.TransactionCount,
		Consistent:       report.Consistent(),
	}
}
