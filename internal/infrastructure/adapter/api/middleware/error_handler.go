package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// ErrorHandler turns a panic inside a handler into a 500 body. A panic never
// leaves a posting half-applied: the unit of work rolls back on unwind.
func ErrorHandler(logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			logger.Error("Panic recovered in API request", map[string]any{
				"panic":      fmt.Sprint(recovered),
				"route":      route,
				"method":     c.Request.Method,
				"client_ip":  c.ClientIP(),
				"request_id": c.GetString(RequestIDKey),
				"stack":      string(debug.Stack()),
			})

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    errs.ErrorCode(errs.ErrInternalServer),
				Kind:    string(errs.KindInternal),
				Message: "Internal server error",
			})
		}()

		c.Next()
	}
}
