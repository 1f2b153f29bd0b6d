package entity

import "time"

// TransactionPage is one page of history, most recent first
type TransactionPage struct {
	Items      []*Transaction
	NextCursor string // Empty when there are no older transactions
}

// BalanceView is a balance read with its freshness bound
type BalanceView struct {
	AccountID    uint64
	Balance      int64
	MaxStaleness time.Duration // Zero when read from the store
	Cached       bool
}

// AuditReport compares the stored balance with the sum of the account's postings
type AuditReport struct {
	AccountID        uint64
	Balance          int64
	LedgerSum        int64
	TransactionCount int64
}

// Consistent reports whether balance equals the ledger sum
func (r *AuditReport) Consistent() bool {
	return r.Balance == r.LedgerSum
}
