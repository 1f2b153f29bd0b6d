package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

// AdvancedIndexManager manages PostgreSQL-specific indexes and storage settings
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

type indexDefinition struct {
	name string
	sql  string
}

// CreateAdvancedIndexes creates the partial and BRIN indexes gorm tags cannot express
func (m *AdvancedIndexManager) CreateAdvancedIndexes(ctx context.Context) error {
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	indexes := []indexDefinition{
		{
			// History pages walk (account_id, id DESC)
			name: "idx_ledger_tx_account_history",
			sql: `CREATE INDEX IF NOT EXISTS idx_ledger_tx_account_history
				ON ledger_transactions (account_id, id DESC)`,
		},
		{
			// A referee produces at most one referral bonus posting per account
			name: "idx_ledger_tx_referral_once",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_tx_referral_once
				ON ledger_transactions (reference_id, account_id)
				WHERE kind = 'referral-bonus'`,
		},
		{
			name: "idx_ledger_tx_created_at_brin",
			sql: `CREATE INDEX IF NOT EXISTS idx_ledger_tx_created_at_brin
				ON ledger_transactions USING BRIN (created_at)
				WITH (pages_per_range = 32)`,
		},
		{
			// Reconciler scan
			name: "idx_payout_requests_in_flight",
			sql: `CREATE INDEX IF NOT EXISTS idx_payout_requests_in_flight
				ON payout_requests (updated_at)
				WHERE status IN ('pending', 'submitted')`,
		},
		{
			name: "idx_payout_requests_external_ref_unique",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_payout_requests_external_ref_unique
				ON payout_requests (external_ref)
				WHERE external_ref <> ''`,
		},
	}

	db := m.db.WithContext(ctx)
	for _, index := range indexes {
		if err := db.Exec(index.sql).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": index.name,
				"error": err.Error(),
			})
			return err
		}
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies storage settings. Failures are logged, not fatal.
func (m *AdvancedIndexManager) CreatePerformanceTweaks(ctx context.Context) error {
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	db := m.db.WithContext(ctx)

	// Balance updates rewrite account rows constantly; leave room for HOT updates
	if err := db.Exec(`ALTER TABLE accounts SET (fillfactor = 80)`).Error; err != nil {
		m.logger.Warn("Failed to set fillfactor for accounts table", map[string]any{
			"error": err.Error(),
		})
	}

	if err := db.Exec(`ALTER TABLE ledger_transactions ALTER COLUMN account_id SET STATISTICS 1000`).Error; err != nil {
		m.logger.Warn("Failed to set statistics target for account_id", map[string]any{
			"error": err.Error(),
		})
	}

	m.logger.Info("PostgreSQL performance tweaks applied", nil)
	return nil
}
