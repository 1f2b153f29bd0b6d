package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/account"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/payout"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/query"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/usecase/referral"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/cache"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/event"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/payoutgateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/repository/memory"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/scheduler"
	timeProvider "github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/config"
)

// accountStore is the persistence backend selected by database.driver
type accountStore struct {
	uow    persistence.UnitOfWork
	leases persistence.LeaseRepository
	pinger handler.Pinger
	close  func() error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production || cfg.Logger.Format == "json", cfg.Logger.Level)
	defer appLogger.Flush()

	tp := timeProvider.NewRealTimeProvider()
	ctx := context.Background()

	var promMetrics *metrics.PrometheusMetrics
	if cfg.Metrics.Enabled {
		promMetrics = metrics.NewPrometheusMetrics(cfg.Metrics.Namespace)
	}

	store, err := openStore(ctx, cfg, appLogger, tp, promMetrics)
	if err != nil {
		appLogger.Error("Failed to open account store", map[string]any{
			"driver": cfg.Database.Driver,
			"error":  err.Error(),
		})
		os.Exit(1)
	}

	ids := idgen.NewGenerator(tp)
	engineOpts := []ledger.EngineOption{
		ledger.WithLockTimeout(cfg.Ledger.LockTimeout),
		ledger.WithRetryConfig(ledger.RetryConfig{
			MaxRetries:    cfg.Ledger.RetryAttempts,
			RetryInterval: cfg.Ledger.RetryBaseDelay,
			MaxInterval:   cfg.Ledger.RetryMaxDelay,
			JitterFactor:  ledger.DefaultRetryConfig().JitterFactor,
		}),
	}

	var coreMetrics coreport.Metrics
	if promMetrics != nil {
		coreMetrics = promMetrics
		engineOpts = append(engineOpts, ledger.WithMetrics(promMetrics))
	}

	// Optional balance cache
	var balanceCache gateway.BalanceCache
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cache.Config{
			Addr:      cfg.Cache.Addr,
			Password:  cfg.Cache.Password,
			DB:        cfg.Cache.DB,
			TTL:       cfg.Cache.TTL,
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to redis", map[string]any{
				"addr":  cfg.Cache.Addr,
				"error": err.Error(),
			})
			os.Exit(1)
		}
		balanceCache = cache.NewRedisBalanceCache(redisClient, cfg.Cache.TTL, cfg.Cache.KeyPrefix, appLogger)
		engineOpts = append(engineOpts, ledger.WithBalanceCache(balanceCache))
	}

	// Optional ledger event stream
	var publisher *event.KafkaPublisher
	if cfg.Events.Enabled {
		writer := event.NewKafkaWriter(event.Config{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			BatchSize:    cfg.Events.BatchSize,
			BatchTimeout: cfg.Events.BatchTimeout,
			WriteTimeout: cfg.Events.WriteTimeout,
		}, appLogger)
		publisher = event.NewKafkaPublisher(writer, appLogger)
		engineOpts = append(engineOpts, ledger.WithEventPublisher(publisher))
	}

	engine := ledger.NewEngine(store.uow, ids, tp, appLogger, engineOpts...)

	// Use cases
	ledgerService := ledger.NewService(engine, appLogger)
	referralProcessor := referral.NewProcessor(engine, store.uow, referral.Config{
		ReferrerBonus: cfg.Referral.ReferrerBonus,
		RefereeBonus:  cfg.Referral.RefereeBonus,
	}, appLogger)
	accountService := account.NewService(store.uow, ids, tp, appLogger)
	queryFacade := query.NewFacade(store.uow, balanceCache, query.Config{
		DefaultPageSize: cfg.Ledger.DefaultPageSize,
		MaxPageSize:     cfg.Ledger.MaxPageSize,
	}, appLogger)

	payoutPolicy, err := cfg.PayoutPolicy()
	if err != nil {
		appLogger.Error("Invalid payout configuration", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	payoutManager := payout.NewManager(
		engine,
		store.uow,
		store.leases,
		newPayoutGateway(cfg, appLogger),
		tp,
		coreMetrics,
		appLogger,
		payoutPolicy,
	)

	if cfg.Ledger.SeedDemoAccounts {
		if err := accountService.Seed(ctx, ledgerService, account.DefaultSeedAccounts); err != nil {
			appLogger.Error("Failed to seed demo accounts", map[string]any{
				"error": err.Error(),
			})
		}
	}

	reconciler, err := scheduler.NewReconcileScheduler(cfg.Payout.ReconcileSchedule, cfg.Payout.ReconcileTimeout, payoutManager, appLogger)
	if err != nil {
		appLogger.Error("Invalid reconcile schedule", map[string]any{
			"schedule": cfg.Payout.ReconcileSchedule,
			"error":    err.Error(),
		})
		os.Exit(1)
	}
	reconciler.Start()

	// HTTP
	router := gin.New()

	var httpMetrics middleware.HTTPMetrics
	routeOpts := routes.Options{WebhookSecret: cfg.Payout.WebhookSecret}
	if promMetrics != nil {
		httpMetrics = promMetrics
		routeOpts.MetricsHandler = promMetrics.Handler()
	}
	if cfg.RateLimit.Enabled {
		routeOpts.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, appLogger)
	}

	routes.SetupMiddlewares(router, appLogger, tp, httpMetrics)
	routes.SetupRoutes(router, routes.Handlers{
		Accounts: handler.NewAccountHandler(accountService, appLogger),
		Ledger:   handler.NewLedgerHandler(ledgerService, referralProcessor, appLogger),
		Queries:  handler.NewQueryHandler(queryFacade, appLogger),
		Payouts:  handler.NewPayoutHandler(payoutManager, appLogger),
		Health:   handler.NewHealthHandler(store.pinger, cfg.Database.QueryTimeout, appLogger),
	}, routeOpts, appLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr":   server.Addr,
			"env":    cfg.Environment,
			"driver": cfg.Database.Driver,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := tp.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	reconciler.Stop(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			appLogger.Warn("Failed to flush ledger events", map[string]any{"error": err.Error()})
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLogger.Warn("Failed to close redis client", map[string]any{"error": err.Error()})
		}
	}
	if err := store.close(); err != nil {
		appLogger.Warn("Failed to close account store", map[string]any{"error": err.Error()})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// openStore connects the configured backend and brings its schema up to date
func openStore(
	ctx context.Context,
	cfg *config.Config,
	appLogger coreport.Logger,
	tp coreport.TimeProvider,
	promMetrics *metrics.PrometheusMetrics,
) (*accountStore, error) {
	if cfg.Database.Driver == "memory" {
		appLogger.Warn("Using the in-memory account store, balances will not survive a restart", nil)
		mem := memory.NewStore(tp)
		return &accountStore{
			uow:    mem.UnitOfWork(),
			leases: mem.Leases(),
			pinger: mem,
			close:  func() error { return nil },
		}, nil
	}

	dbManager := database.NewManager(database.ConfigFromAppConfig(cfg), appLogger, tp)
	db, err := dbManager.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := dbManager.Migrate(ctx); err != nil {
			_ = dbManager.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if promMetrics != nil {
		sqlDB, err := db.DB()
		if err != nil {
			_ = dbManager.Close()
			return nil, err
		}
		promMetrics.RegisterDB(sqlDB, cfg.Database.Database)
	}

	return &accountStore{
		uow:    dbManager.UnitOfWork(),
		leases: dbManager.Leases(),
		pinger: dbManager,
		close:  dbManager.Close,
	}, nil
}

// newPayoutGateway returns the HTTP processor client, or the sandbox when no URL is configured
func newPayoutGateway(cfg *config.Config, appLogger coreport.Logger) gateway.PayoutGateway {
	if cfg.Payout.GatewayURL != "" {
		return payoutgateway.NewHTTPGateway(cfg.Payout.GatewayURL, cfg.Payout.GatewayAPIKey, cfg.Payout.SubmitTimeout, appLogger)
	}

	rejectAbove, err := decimal.NewFromString(cfg.Payout.Sandbox.RejectAbove)
	if err != nil {
		rejectAbove = decimal.Zero
	}
	appLogger.Warn("No payout gateway URL configured, using the sandbox processor", map[string]any{
		"reject_above": rejectAbove.String(),
		"auto_settle":  cfg.Payout.Sandbox.AutoSettle,
	})
	return payoutgateway.NewSandboxGateway(rejectAbove, cfg.Payout.Sandbox.AutoSettle, appLogger)
}
