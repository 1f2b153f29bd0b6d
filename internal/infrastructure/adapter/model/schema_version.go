package model

import "time"

// SchemaVersion records one applied schema step. Rows are append-only; the
// highest id is the current version.
type SchemaVersion struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Version   string    `gorm:"type:varchar(20);not null;index:idx_schema_version"`
	Details   string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName keeps the historical table name
func (SchemaVersion) TableName() string {
	return "migration_versions"
}
