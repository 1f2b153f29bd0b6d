package model

import (
	"time"
)

// LedgerTransaction is one immutable posting. Rows are inserted, never updated.
type LedgerTransaction struct {
	ID             string `gorm:"primaryKey;size:26"`
	AccountID      uint64 `gorm:"not null;index:idx_ledger_tx_account_id,priority:1"`
	Amount         int64  `gorm:"not null"`
	Kind           string `gorm:"not null;size:32;index:idx_ledger_tx_kind_reference,priority:1"`
	Description    string `gorm:"size:500"`
	RelatedPostID  string `gorm:"size:64"`
	CounterpartyID *uint64
	CorrelationID  string    `gorm:"not null;size:64;index"`
	IdempotencyKey string    `gorm:"size:128"`
	ReferenceID    string    `gorm:"size:64;index:idx_ledger_tx_kind_reference,priority:2"`
	BalanceAfter   int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`

	Account Account `gorm:"foreignKey:AccountID;references:ID"`
}

// TableName specifies the table name for LedgerTransaction
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
