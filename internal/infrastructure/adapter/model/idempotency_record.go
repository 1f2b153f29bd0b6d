package model

import (
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// IdempotencyRecord stores the result of a successful keyed operation
type IdempotencyRecord struct {
	Key         string                 `gorm:"primaryKey;size:128"`
	Operation   string                 `gorm:"not null;size:32"`
	Fingerprint string                 `gorm:"not null;size:64"`
	Result      *entity.TransferResult `gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time              `gorm:"not null;index"`
}

// TableName specifies the table name for IdempotencyRecord
func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}
