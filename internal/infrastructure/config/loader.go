package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix prefixes every environment override, e.g. CL_DATABASE_HOST
const EnvPrefix = "CL"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// secretKeys have no defaults, so they are bound to the environment explicitly
var secretKeys = []string{
	"database.host",
	"database.username",
	"database.password",
	"database.database",
	"cache.password",
	"payout.gatewayURL",
	"payout.gatewayAPIKey",
	"payout.webhookSecret",
}

// LoadConfig loads configuration for the environment named by CL_ENV.
// Sources, lowest priority first: defaults, configs/config.<env>.yaml, .env, environment.
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName("config." + env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secretKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	return decode(v, env)
}

func decode(v *viper.Viper, env string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.Environment = env

	// viper lowercases map keys
	currencies := make(map[string]CurrencyConfig, len(config.Payout.Currencies))
	for code, currency := range config.Payout.Currencies {
		currencies[strings.ToUpper(code)] = currency
	}
	config.Payout.Currencies = currencies
	config.Payout.DefaultCurrency = strings.ToUpper(config.Payout.DefaultCurrency)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// loadDotEnvFile loads the first .env file found. Existing environment variables win.
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			lastError = err
			continue
		}
		return nil
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return errors.New("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "15s")
	v.SetDefault("server.idleTimeout", "60s")
	v.SetDefault("server.readHeaderTimeout", "10s")
	v.SetDefault("server.shutdownTimeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", "30m")
	v.SetDefault("database.connMaxIdleTime", "15m")
	v.SetDefault("database.queryTimeout", "5s")
	v.SetDefault("database.slowThreshold", "200ms")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", "1s")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("ledger.lockTimeout", "2s")
	v.SetDefault("ledger.retryAttempts", 5)
	v.SetDefault("ledger.retryBaseDelay", "20ms")
	v.SetDefault("ledger.retryMaxDelay", "500ms")
	v.SetDefault("ledger.defaultPageSize", 20)
	v.SetDefault("ledger.maxPageSize", 100)
	v.SetDefault("ledger.seedDemoAccounts", false)

	v.SetDefault("referral.referrerBonus", 100)
	v.SetDefault("referral.refereeBonus", 50)

	v.SetDefault("payout.defaultCurrency", "USD")
	v.SetDefault("payout.currencies", map[string]any{
		"USD": map[string]any{"coinsPerUnit": "1000", "minimumWithdrawal": "1.00"},
	})
	v.SetDefault("payout.submitTimeout", "10s")
	v.SetDefault("payout.staleAfter", "5m")
	v.SetDefault("payout.reviewAfter", "72h")
	v.SetDefault("payout.maxAttempts", 5)
	v.SetDefault("payout.batchSize", 100)
	v.SetDefault("payout.leaseTTL", "2m")
	v.SetDefault("payout.reconcileSchedule", "@every 1m")
	v.SetDefault("payout.reconcileTimeout", "50s")
	v.SetDefault("payout.instanceID", defaultInstanceID())
	v.SetDefault("payout.sandbox.rejectAbove", "0")
	v.SetDefault("payout.sandbox.autoSettle", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "5s")
	v.SetDefault("cache.keyPrefix", "coin-ledger")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "coin-ledger.transactions")
	v.SetDefault("events.batchSize", 100)
	v.SetDefault("events.batchTimeout", "10ms")
	v.SetDefault("events.writeTimeout", "10s")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerSecond", 50)
	v.SetDefault("rateLimit.burst", 100)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "coin_ledger")
}

// getEnvironment determines the environment from CL_ENV, defaulting to development
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

func defaultInstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "coin-ledger"
	}
	return host
}
