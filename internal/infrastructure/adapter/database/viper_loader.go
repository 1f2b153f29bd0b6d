package database

import (
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/config"
)

// ConfigFromAppConfig adapts the application configuration to database configuration
func ConfigFromAppConfig(conf *config.Config) *Config {
	dbConf := DefaultConfig()

	if conf.Database.Driver != "" {
		dbConf.Driver = conf.Database.Driver
	}
	dbConf.Host = conf.Database.Host
	if conf.Database.Port > 0 {
		dbConf.Port = conf.Database.Port
	}
	dbConf.Username = conf.Database.Username
	dbConf.Password = conf.Database.Password
	dbConf.Database = conf.Database.Database

	if conf.Database.SSLMode != "" {
		dbConf.SSLMode = conf.Database.SSLMode
	}
	if conf.Database.MaxOpenConns > 0 {
		dbConf.MaxOpenConns = conf.Database.MaxOpenConns
	}
	if conf.Database.MaxIdleConns > 0 {
		dbConf.MaxIdleConns = conf.Database.MaxIdleConns
	}
	if conf.Database.ConnMaxLifetime > 0 {
		dbConf.ConnMaxLifetime = conf.Database.ConnMaxLifetime
	}
	if conf.Database.ConnMaxIdleTime > 0 {
		dbConf.ConnMaxIdleTime = conf.Database.ConnMaxIdleTime
	}
	if conf.Database.QueryTimeout > 0 {
		dbConf.QueryTimeout = conf.Database.QueryTimeout
	}
	if conf.Database.SlowThreshold > 0 {
		dbConf.SlowThreshold = conf.Database.SlowThreshold
	}
	if conf.Database.LogLevel != "" {
		dbConf.LogLevel = conf.Database.LogLevel
	}
	if conf.Database.RetryAttempts > 0 {
		dbConf.RetryAttempts = conf.Database.RetryAttempts
	}
	if conf.Database.RetryDelay > 0 {
		dbConf.RetryDelay = conf.Database.RetryDelay
	}
	dbConf.LockTimeout = conf.Ledger.LockTimeout

	return dbConf
}
