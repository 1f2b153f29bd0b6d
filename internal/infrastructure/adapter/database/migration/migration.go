package migration

import (
	"context"
	"errors"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/model"
)

// schemaStep is one versioned change applied after AutoMigrate
type schemaStep struct {
	version string
	details string
	run     func(ctx context.Context) error
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db               *gorm.DB
	logger           coreport.Logger
	timeProvider     coreport.TimeProvider
	advancedIndexMgr *AdvancedIndexManager
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:               db,
		logger:           logger,
		timeProvider:     timeProvider,
		advancedIndexMgr: NewAdvancedIndexManager(db, logger),
	}
}

// steps lists schema versions in order. Append, never edit.
func (m *MigrationManager) steps() []schemaStep {
	return []schemaStep{
		{version: "1.0.0", details: "Ledger constraints", run: m.createConstraints},
		{version: "1.1.0", details: "History and reconciliation indexes", run: m.advancedIndexMgr.CreateAdvancedIndexes},
		{version: "1.1.1", details: "Storage tuning", run: m.advancedIndexMgr.CreatePerformanceTweaks},
	}
}

// CurrentSchemaVersion returns the version MigrateAll brings the schema to
func (m *MigrationManager) CurrentSchemaVersion() string {
	steps := m.steps()
	return steps[len(steps)-1].version
}

// MigrateAll creates the tables and applies every step newer than the recorded version
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	target := m.CurrentSchemaVersion()
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": target,
	})

	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&model.SchemaVersion{}); err != nil {
		m.logger.Error("Failed to create migration version table", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		m.logger.Error("Failed to check current schema version", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if currentVersion == target {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	if err := m.autoMigrateModels(ctx); err != nil {
		m.logger.Error("Failed to auto-migrate models", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	for _, step := range m.pendingSteps(currentVersion) {
		m.logger.Info("Applying schema step", map[string]any{
			"version": step.version,
			"details": step.details,
		})
		if err := step.run(ctx); err != nil {
			m.logger.Error("Schema step failed", map[string]any{
				"version": step.version,
				"error":   err.Error(),
			})
			return err
		}
		if err := m.setVersion(ctx, step.version, step.details); err != nil {
			return err
		}
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": target,
	})
	return nil
}

// pendingSteps returns the steps after currentVersion, or all of them for a fresh database
func (m *MigrationManager) pendingSteps(currentVersion string) []schemaStep {
	steps := m.steps()
	if currentVersion == "" {
		return steps
	}
	for i, step := range steps {
		if step.version == currentVersion {
			return steps[i+1:]
		}
	}

	m.logger.Warn("Unknown schema version, reapplying all steps", map[string]any{
		"version": currentVersion,
	})
	return steps
}

// GetCurrentVersion gets the current migration version
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	var version model.SchemaVersion
	result := m.db.WithContext(ctx).Order("id desc").Take(&version)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}

	return version.Version, nil
}

// setVersion records a new migration version
func (m *MigrationManager) setVersion(ctx context.Context, version string, details string) error {
	return m.db.WithContext(ctx).Create(&model.SchemaVersion{
		Version:   version,
		AppliedAt: m.timeProvider.Now(),
		Details:   details,
	}).Error
}

func (m *MigrationManager) autoMigrateModels(ctx context.Context) error {
	m.logger.Info("Auto-migrating database models", nil)

	return m.db.WithContext(ctx).AutoMigrate(
		&model.Account{},
		&model.LedgerTransaction{},
		&model.IdempotencyRecord{},
		&model.PayoutRequest{},
		&model.Lease{},
	)
}

// createConstraints adds the checks gorm tags cannot express
func (m *MigrationManager) createConstraints(ctx context.Context) error {
	statements := []string{
		`DO $$ BEGIN
			ALTER TABLE ledger_transactions ADD CONSTRAINT chk_ledger_tx_amount_non_zero CHECK (amount <> 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
			ALTER TABLE ledger_transactions ADD CONSTRAINT chk_ledger_tx_balance_after CHECK (balance_after >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
			ALTER TABLE payout_requests ADD CONSTRAINT chk_payout_amount_positive CHECK (amount > 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}

	db := m.db.WithContext(ctx)
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
