package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Ledger      LedgerConfig    `mapstructure:"ledger"`
	Referral    ReferralConfig  `mapstructure:"referral"`
	Payout      PayoutConfig    `mapstructure:"payout"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Events      EventsConfig    `mapstructure:"events"`
	RateLimit   RateLimitConfig `mapstructure:"rateLimit"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`
	SlowThreshold   time.Duration `mapstructure:"slowThreshold"`
	LogLevel        string        `mapstructure:"logLevel"`
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// LedgerConfig contains ledger engine settings
type LedgerConfig struct {
	LockTimeout      time.Duration `mapstructure:"lockTimeout"` // Row and per-account lock wait
	RetryAttempts    int           `mapstructure:"retryAttempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retryBaseDelay"`
	RetryMaxDelay    time.Duration `mapstructure:"retryMaxDelay"`
	DefaultPageSize  int           `mapstructure:"defaultPageSize"`
	MaxPageSize      int           `mapstructure:"maxPageSize"`
	SeedDemoAccounts bool          `mapstructure:"seedDemoAccounts"`
}

// ReferralConfig contains referral bonus amounts in coins
type ReferralConfig struct {
	ReferrerBonus int64 `mapstructure:"referrerBonus"`
	RefereeBonus  int64 `mapstructure:"refereeBonus"`
}

// CurrencyConfig prices coins in one currency. Amounts are decimal strings.
type CurrencyConfig struct {
	CoinsPerUnit      string `mapstructure:"coinsPerUnit"`
	MinimumWithdrawal string `mapstructure:"minimumWithdrawal"`
}

// SandboxConfig configures the in-process payout processor
type SandboxConfig struct {
	RejectAbove string `mapstructure:"rejectAbove"`
	AutoSettle  bool   `mapstructure:"autoSettle"`
}

// PayoutConfig contains withdrawal policy and processor settings
type PayoutConfig struct {
	DefaultCurrency   string                    `mapstructure:"defaultCurrency"`
	Currencies        map[string]CurrencyConfig `mapstructure:"currencies"`
	SubmitTimeout     time.Duration             `mapstructure:"submitTimeout"`
	StaleAfter        time.Duration             `mapstructure:"staleAfter"`
	ReviewAfter       time.Duration             `mapstructure:"reviewAfter"`
	MaxAttempts       int                       `mapstructure:"maxAttempts"`
	BatchSize         int                       `mapstructure:"batchSize"`
	LeaseTTL          time.Duration             `mapstructure:"leaseTTL"`
	ReconcileSchedule string                    `mapstructure:"reconcileSchedule"`
	ReconcileTimeout  time.Duration             `mapstructure:"reconcileTimeout"`
	GatewayURL        string                    `mapstructure:"gatewayURL"` // Empty selects the sandbox
	GatewayAPIKey     string                    `mapstructure:"gatewayAPIKey"`
	WebhookSecret     string                    `mapstructure:"webhookSecret"`
	InstanceID        string                    `mapstructure:"instanceID"`
	Sandbox           SandboxConfig             `mapstructure:"sandbox"`
}

// CacheConfig contains redis balance cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"` // Staleness bound reported on balance reads
	KeyPrefix string        `mapstructure:"keyPrefix"`
}

// EventsConfig contains kafka ledger event settings
type EventsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batchSize"`
	BatchTimeout time.Duration `mapstructure:"batchTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// RateLimitConfig contains per-client limits on mutating routes
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
}

// MetricsConfig contains prometheus settings
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}
