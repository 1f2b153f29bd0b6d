package model

import (
	"time"
)

// Lease is a named lock with an expiry, used to elect one background worker
type Lease struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Holder    string    `gorm:"not null;size:128"`
	ExpiresAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Lease
func (Lease) TableName() string {
	return "ledger_leases"
}
