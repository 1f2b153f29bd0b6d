package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

// Pinger is implemented by account stores that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness
type HealthHandler struct {
	store   Pinger
	timeout time.Duration
	logger  coreport.Logger
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(store Pinger, timeout time.Duration, logger coreport.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "up"})
}
