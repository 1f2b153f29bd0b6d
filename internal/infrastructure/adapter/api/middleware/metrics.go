package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// HTTPMetrics is implemented by metrics backends that track HTTP traffic
type HTTPMetrics interface {
	HTTPStarted() func(method, path string, status int, duration time.Duration)
}

// Metrics records request counts and latency labelled by route template
func Metrics(metrics HTTPMetrics, timeProvider coreport.TimeProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := timeProvider.Now()
		done := metrics.HTTPStarted()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		done(c.Request.Method, route, c.Writer.Status(), timeProvider.Since(start))
	}
}
