package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// QueryHandler handles read-only account requests
type QueryHandler struct {
	queries usecase.QueryUseCase
	logger  coreport.Logger
}

// NewQueryHandler creates a new query handler instance
func NewQueryHandler(queries usecase.QueryUseCase, logger coreport.Logger) *QueryHandler {
	return &QueryHandler{
		queries: queries,
		logger:  logger,
	}
}

// GetBalance handles GET /api/v1/accounts/:accountId/balance
func (h *QueryHandler) GetBalance(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	view, err := h.queries.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, h.logger, "Error getting balance", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBalanceResponse(view))
}

// GetTransactionHistory handles GET /api/v1/accounts/:accountId/transactions?cursor=&limit=
func (h *QueryHandler) GetTransactionHistory(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeInvalid(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	page, err := h.queries.GetTransactionHistory(c.Request.Context(), accountID, c.Query("cursor"), limit)
	if err != nil {
		writeError(c, h.logger, "Error getting transaction history", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewHistoryResponse(page))
}

// GetReferralStats handles GET /api/v1/accounts/:accountId/referrals
func (h *QueryHandler) GetReferralStats(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	stats, err := h.queries.GetReferralStats(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, h.logger, "Error getting referral stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AuditAccount handles GET /api/v1/accounts/:accountId/audit
func (h *QueryHandler) AuditAccount(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	report, err := h.queries.AuditAccount(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, h.logger, "Error auditing account", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuditResponse(report))
}
