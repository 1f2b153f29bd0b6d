package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// AccountHandler handles account lifecycle requests
type AccountHandler struct {
	accounts usecase.AccountUseCase
	logger   coreport.Logger
}

// NewAccountHandler creates a new account handler instance
func NewAccountHandler(accounts usecase.AccountUseCase, logger coreport.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), req.AccountID, req.PayoutProfileRef)
	if err != nil {
		writeError(c, h.logger, "Error creating account", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAccountResponse(account))
}

// GetAccount handles GET /api/v1/accounts/:accountId
func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, h.logger, "Error getting account", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}

// SetPayoutProfile handles PUT /api/v1/accounts/:accountId/payout-profile
func (h *AccountHandler) SetPayoutProfile(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.SetPayoutProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	account, err := h.accounts.SetPayoutProfile(c.Request.Context(), accountID, req.PayoutProfileRef)
	if err != nil {
		writeError(c, h.logger, "Error linking payout profile", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}
