package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPostgresConfig() *Config {
	cfg := DefaultConfig()
	cfg.Host = "localhost"
	cfg.Username = "ledger"
	cfg.Password = "secret"
	cfg.Database = "coin_ledger"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory skips connection settings", func(c *Config) { *c = Config{Driver: DriverMemory} }, ""},
		{"unknown driver", func(c *Config) { c.Driver = "mysql" }, "unsupported database driver"},
		{"missing host", func(c *Config) { c.Host = "" }, "host is required"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"missing password", func(c *Config) { c.Password = "" }, "password is required"},
		{"bad ssl mode", func(c *Config) { c.SSLMode = "sometimes" }, "invalid SSL mode"},
		{"no connections", func(c *Config) { c.MaxOpenConns = 0 }, "max open connections"},
		{"negative lock timeout", func(c *Config) { c.LockTimeout = -time.Second }, "lock timeout"},
		{"no retries", func(c *Config) { c.RetryAttempts = 0 }, "retry attempts"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validPostgresConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := validPostgresConfig()
	assert.Equal(t, "host=localhost port=5432 user=ledger password=secret dbname=coin_ledger sslmode=disable", cfg.DSN())
}
