package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// maxTrackedClients bounds the limiter map; it is reset when exceeded
const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client ip
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   coreport.Logger
}

// NewRateLimiter creates a new per-client rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int, logger coreport.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) >= maxTrackedClients {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the gin middleware
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		reservation := rl.limiter(key).Reserve()
		if !reservation.OK() {
			rl.reject(c, key, time.Second)
			return
		}

		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			rl.reject(c, key, delay)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) reject(c *gin.Context, key string, retryAfter time.Duration) {
	rl.logger.Warn("Rate limit exceeded", map[string]any{
		"client":     key,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString(RequestIDKey),
	})

	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
		Code:    errs.CodeInvalidRequest,
		Kind:    string(errs.KindInvalidRequest),
		Message: "Too many requests, slow down",
	})
}
