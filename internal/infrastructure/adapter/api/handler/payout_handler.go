package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// PayoutHandler handles withdrawal requests and processor callbacks
type PayoutHandler struct {
	payouts usecase.PayoutUseCase
	logger  coreport.Logger
}

// NewPayoutHandler creates a new payout handler instance
func NewPayoutHandler(payouts usecase.PayoutUseCase, logger coreport.Logger) *PayoutHandler {
	return &PayoutHandler{
		payouts: payouts,
		logger:  logger,
	}
}

// RequestPayout handles POST /api/v1/accounts/:accountId/payouts
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.payouts.RequestPayout(c.Request.Context(), usecase.PayoutRequestInput{
		AccountID:      accountID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(c, h.logger, "Error requesting payout", err)
		return
	}

	writeResult(c, result, http.StatusAccepted)
}

// GetPayout handles GET /api/v1/payouts/:payoutId
func (h *PayoutHandler) GetPayout(c *gin.Context) {
	payout, err := h.payouts.GetPayout(c.Request.Context(), c.Param("payoutId"))
	if err != nil {
		writeError(c, h.logger, "Error getting payout", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPayoutResponse(payout))
}

// CancelPayout handles POST /api/v1/payouts/:payoutId/cancel
func (h *PayoutHandler) CancelPayout(c *gin.Context) {
	result, err := h.payouts.CancelPayout(c.Request.Context(), c.Param("payoutId"))
	if err != nil {
		writeError(c, h.logger, "Error cancelling payout", err)
		return
	}

	writeResult(c, result, http.StatusOK)
}

// PayoutWebhook handles POST /api/v1/webhooks/payouts
func (h *PayoutHandler) PayoutWebhook(c *gin.Context) {
	var req dto.PayoutWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	payout, err := h.payouts.HandlePayoutStatus(c.Request.Context(), usecase.PayoutStatusUpdate{
		PayoutRequestID: req.PayoutRequestID,
		ExternalRef:     req.ExternalRef,
		Status:          entity.PayoutStatus(req.Status),
		Reason:          req.Reason,
	})
	if err != nil {
		writeError(c, h.logger, "Error handling payout status", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPayoutResponse(payout))
}
