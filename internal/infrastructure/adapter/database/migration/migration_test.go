package migration

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
	timeAdapter "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
)

var appliedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*MigrationManager, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewMigrationManager(db, logger.NewNoopLogger(), timeAdapter.NewFixedTimeProvider(appliedAt)), mock
}

func TestPendingSteps(t *testing.T) {
	m, _ := newTestManager(t)
	all := m.steps()

	testCases := []struct {
		name     string
		current  string
		expected int
	}{
		{"Fresh database", "", len(all)},
		{"First step applied", "1.0.0", len(all) - 1},
		{"Up to date", m.CurrentSchemaVersion(), 0},
		{"Unknown version reapplies everything", "0.9.0", len(all)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, m.pendingSteps(tc.current), tc.expected)
		})
	}
}

func TestStepsAreOrdered(t *testing.T) {
	m, _ := newTestManager(t)

	steps := m.steps()
	for i := 1; i < len(steps); i++ {
		assert.Less(t, steps[i-1].version, steps[i].version)
	}
	assert.Equal(t, steps[len(steps)-1].version, m.CurrentSchemaVersion())
}

func TestGetCurrentVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty table", func(t *testing.T) {
		m, mock := newTestManager(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM "migration_versions" ORDER BY id desc`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "version"}))

		version, err := m.GetCurrentVersion(ctx)
		require.NoError(t, err)
		assert.Empty(t, version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Latest row wins", func(t *testing.T) {
		m, mock := newTestManager(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM "migration_versions" ORDER BY id desc`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "version", "details", "applied_at"}).
				AddRow(2, "1.1.0", "History and reconciliation indexes", appliedAt))

		version, err := m.GetCurrentVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1.1.0", version)
	})
}

func TestSetVersion(t *testing.T) {
	m, mock := newTestManager(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "migration_versions"`)).
		WithArgs("1.0.0", "Ledger constraints", appliedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	require.NoError(t, m.setVersion(context.Background(), "1.0.0", "Ledger constraints"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
