package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// WebhookSecretHeader carries the shared secret the payment processor signs callbacks with
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuth rejects callbacks whose secret header does not match. An empty
// secret disables the check.
func WebhookAuth(secret string, logger coreport.Logger) gin.HandlerFunc {
	expected := []byte(secret)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		provided := []byte(c.GetHeader(WebhookSecretHeader))
		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			logger.Warn("Rejected payout webhook with bad secret", map[string]any{
				"client_ip":  c.ClientIP(),
				"request_id": c.GetString(RequestIDKey),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    errs.CodeInvalidRequest,
				Kind:    string(errs.KindInvalidRequest),
				Message: "Invalid webhook secret",
			})
			return
		}

		c.Next()
	}
}
