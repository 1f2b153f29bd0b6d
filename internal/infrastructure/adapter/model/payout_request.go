package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutRequest represents the database model for withdrawals to the payout processor
type PayoutRequest struct {
	ID               string          `gorm:"primaryKey;size:26"`
	AccountID        uint64          `gorm:"not null;index"`
	Amount           int64           `gorm:"not null"`
	Currency         string          `gorm:"not null;size:8"`
	FiatAmount       decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	PayoutProfileRef string          `gorm:"not null;size:128"`
	Status           string          `gorm:"not null;size:16;index:idx_payout_requests_status_updated,priority:1"`
	ReservationTxID  string          `gorm:"not null;size:26"`
	ReversalTxID     string          `gorm:"size:26"`
	ExternalRef      string          `gorm:"size:128;index"`
	Attempts         int             `gorm:"not null"`
	LastError        string          `gorm:"type:text"`
	IdempotencyKey   string          `gorm:"size:128"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null;index:idx_payout_requests_status_updated,priority:2"`
	CompletedAt      *time.Time

	Account Account `gorm:"foreignKey:AccountID;references:ID"`
}

// TableName specifies the table name for PayoutRequest
func (PayoutRequest) TableName() string {
	return "payout_requests"
}
