package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes
type Handlers struct {
	Accounts *handler.AccountHandler
	Ledger   *handler.LedgerHandler
	Queries  *handler.QueryHandler
	Payouts  *handler.PayoutHandler
	Health   *handler.HealthHandler
}

// Options tunes optional parts of the route table
type Options struct {
	// RateLimiter guards mutating routes; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	// WebhookSecret authenticates payout callbacks; empty disables the check
	WebhookSecret string
	// MetricsHandler is served on /metrics when set
	MetricsHandler http.Handler
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers, opts Options, logger coreport.Logger) {
	handler.RegisterValidatorTagNames()

	router.GET("/health", h.Health.Health)
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	v1 := router.Group("/api/v1")

	// Reads are never throttled
	v1.GET("/accounts/:accountId", h.Accounts.GetAccount)
	v1.GET("/accounts/:accountId/balance", h.Queries.GetBalance)
	v1.GET("/accounts/:accountId/transactions", h.Queries.GetTransactionHistory)
	v1.GET("/accounts/:accountId/referrals", h.Queries.GetReferralStats)
	v1.GET("/accounts/:accountId/audit", h.Queries.AuditAccount)
	v1.GET("/payouts/:payoutId", h.Payouts.GetPayout)

	mutating := v1.Group("")
	if opts.RateLimiter != nil {
		mutating.Use(opts.RateLimiter.Handler())
	}
	{
		mutating.POST("/accounts", h.Accounts.CreateAccount)
		mutating.PUT("/accounts/:accountId/payout-profile", h.Accounts.SetPayoutProfile)
		mutating.POST("/accounts/:accountId/credits", h.Ledger.Credit)
		mutating.POST("/accounts/:accountId/debits", h.Ledger.Debit)
		mutating.POST("/accounts/:accountId/referral", h.Ledger.ApplyReferral)
		mutating.POST("/accounts/:accountId/payouts", h.Payouts.RequestPayout)
		mutating.POST("/transfers", h.Ledger.Transfer)
		mutating.POST("/payouts/:payoutId/cancel", h.Payouts.CancelPayout)
	}

	webhooks := v1.Group("/webhooks", middleware.WebhookAuth(opts.WebhookSecret, logger))
	webhooks.POST("/payouts", h.Payouts.PayoutWebhook)
}

// SetupMiddlewares configures global middlewares for the API. metrics may be nil.
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, timeProvider coreport.TimeProvider, metrics middleware.HTTPMetrics) {
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger, timeProvider))
	if metrics != nil {
		router.Use(middleware.Metrics(metrics, timeProvider))
	}
}
