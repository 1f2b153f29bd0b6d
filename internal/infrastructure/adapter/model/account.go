package model

import (
	"time"
)

// Account represents the database model for coin accounts
type Account struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement:false"`
	Balance          int64     `gorm:"not null;check:chk_accounts_balance_non_negative,balance >= 0"` // Whole coins
	ReferralCode     string    `gorm:"not null;size:32;uniqueIndex:idx_accounts_referral_code"`
	ReferredBy       *uint64   `gorm:"index:idx_accounts_referred_by"`
	PayoutProfileRef string    `gorm:"size:128"`
	Version          uint64    `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
