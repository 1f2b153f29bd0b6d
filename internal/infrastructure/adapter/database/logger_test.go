package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	timeprovider "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
	mockcore "github.com/amirhossein-jamali/coin-ledger/mocks/port/core"
)

func TestDatabaseLogger_Trace(t *testing.T) {
	now := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	query := func(sql string) func() (string, int64) {
		return func() (string, int64) { return sql, 1 }
	}

	t.Run("slow query is a warning", func(t *testing.T) {
		coreLogger := mockcore.NewMockLogger(t)
		coreLogger.On("Warn", "Slow SQL Query", mock.MatchedBy(func(fields map[string]any) bool {
			return fields["type"] == "UPDATE" && fields["elapsed_ms"] == int64(500)
		})).Once()

		dbLogger := NewDatabaseLogger(coreLogger, timeprovider.NewFixedTimeProvider(now), "warn", 200*time.Millisecond)
		dbLogger.Trace(context.Background(), now.Add(-500*time.Millisecond), query(`UPDATE "accounts" SET balance = 1`), nil)
	})

	t.Run("errors are reported", func(t *testing.T) {
		coreLogger := mockcore.NewMockLogger(t)
		coreLogger.On("Error", "SQL Error", mock.MatchedBy(func(fields map[string]any) bool {
			return fields["error"] == "boom" && fields["type"] == "SELECT"
		})).Once()

		dbLogger := NewDatabaseLogger(coreLogger, timeprovider.NewFixedTimeProvider(now), "error", 0)
		dbLogger.Trace(context.Background(), now, query(`SELECT * FROM "accounts"`), errors.New("boom"))
	})

	t.Run("missing rows are not errors", func(t *testing.T) {
		coreLogger := mockcore.NewMockLogger(t)

		dbLogger := NewDatabaseLogger(coreLogger, timeprovider.NewFixedTimeProvider(now), "warn", time.Second)
		dbLogger.Trace(context.Background(), now, query(`SELECT * FROM "accounts"`), gorm.ErrRecordNotFound)
		coreLogger.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		coreLogger := mockcore.NewMockLogger(t)

		dbLogger := NewDatabaseLogger(coreLogger, timeprovider.NewFixedTimeProvider(now), "silent", 0)
		dbLogger.Trace(context.Background(), now, query(`DELETE FROM "ledger_leases"`), errors.New("boom"))
	})
}

func TestDatabaseLogger_LogMode(t *testing.T) {
	coreLogger := mockcore.NewMockLogger(t)
	dbLogger := NewDatabaseLogger(coreLogger, timeprovider.NewRealTimeProvider(), "warn", 0)

	quiet := dbLogger.LogMode(gormlogger.Silent).(*DatabaseLogger)
	assert.Equal(t, gormlogger.Silent, quiet.logLevel)
	assert.Equal(t, gormlogger.Warn, dbLogger.logLevel)
}

func TestExtractQueryType(t *testing.T) {
	assert.Equal(t, "SELECT", extractQueryType("  select 1"))
	assert.Equal(t, "INSERT", extractQueryType(`INSERT INTO "accounts"`))
	assert.Equal(t, "", extractQueryType("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE"))
}
