package entity

import (
	"errors"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
)

// TransferResult is returned by every mutating ledger operation. Business-rule
// failures are reported here instead of as errors.
type TransferResult struct {
	Success         bool           `json:"success"`
	TransactionIDs  []string       `json:"transactionIds,omitempty"`
	CorrelationID   string         `json:"correlationId,omitempty"`
	PayoutRequestID string         `json:"payoutRequestId,omitempty"`
	Message         string         `json:"message,omitempty"`
	Error           errs.ErrorKind `json:"error,omitempty"`
	Balance         *int64         `json:"balance,omitempty"`
	Replayed        bool           `json:"replayed,omitempty"`
}

// SucceededResult builds a success result for the applied postings
func SucceededResult(message string, txs ...*Transaction) *TransferResult {
	result := &TransferResult{
		Success: true,
		Message: message,
	}

	for _, tx := range txs {
		result.TransactionIDs = append(result.TransactionIDs, tx.ID)
		if result.CorrelationID == "" {
			result.CorrelationID = tx.CorrelationID
		}
	}
	if len(txs) > 0 {
		balance := txs[0].BalanceAfter
		result.Balance = &balance
	}

	return result
}

// FailedResult classifies err into a failed result
func FailedResult(err error) *TransferResult {
	result := &TransferResult{
		Success: false,
		Error:   errs.Kind(err),
		Message: errs.Message(err),
	}

	var insufficient *errs.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		available := insufficient.Available
		result.Balance = &available
	}

	return result
}

// TransactionID returns the first posting id, which is the source leg for transfers
func (r *TransferResult) TransactionID() string {
	if len(r.TransactionIDs) == 0 {
		return ""
	}
	return r.TransactionIDs[0]
}

// Clone returns a copy safe to hand to another caller
func (r *TransferResult) Clone() *TransferResult {
	if r == nil {
		return nil
	}

	c := *r
	c.TransactionIDs = append([]string(nil), r.TransactionIDs...)
	if r.Balance != nil {
		balance := *r.Balance
		c.Balance = &balance
	}
	return &c
}
