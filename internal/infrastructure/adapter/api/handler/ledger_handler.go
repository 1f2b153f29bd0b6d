package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/api/dto"
)

// LedgerHandler handles requests that move coins
type LedgerHandler struct {
	ledger    usecase.LedgerUseCase
	referrals usecase.ReferralUseCase
	logger    coreport.Logger
}

// NewLedgerHandler creates a new ledger handler instance
func NewLedgerHandler(ledger usecase.LedgerUseCase, referrals usecase.ReferralUseCase, logger coreport.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger:    ledger,
		referrals: referrals,
		logger:    logger,
	}
}

// Transfer handles POST /api/v1/transfers
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.ledger.Transfer(c.Request.Context(), usecase.TransferRequest{
		FromAccountID:  req.FromAccountID,
		ToAccountID:    req.ToAccountID,
		Amount:         req.Amount,
		Description:    req.Description,
		RelatedPostID:  req.RelatedPostID,
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(c, h.logger, "Error processing transfer", err)
		return
	}

	writeResult(c, result, http.StatusCreated)
}

// Credit handles POST /api/v1/accounts/:accountId/credits
func (h *LedgerHandler) Credit(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.ledger.Credit(c.Request.Context(), usecase.PostingRequest{
		AccountID:      accountID,
		Amount:         req.Amount,
		Description:    req.Description,
		Kind:           entity.TransactionKind(req.Kind),
		IdempotencyKey: key,
		ReferenceID:    req.ReferenceID,
	})
	if err != nil {
		writeError(c, h.logger, "Error processing credit", err)
		return
	}

	writeResult(c, result, http.StatusCreated)
}

// Debit handles POST /api/v1/accounts/:accountId/debits
func (h *LedgerHandler) Debit(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.ledger.Debit(c.Request.Context(), usecase.PostingRequest{
		AccountID:      accountID,
		Amount:         req.Amount,
		Description:    req.Description,
		Kind:           entity.TransactionKind(req.Kind),
		IdempotencyKey: key,
		ReferenceID:    req.ReferenceID,
	})
	if err != nil {
		writeError(c, h.logger, "Error processing debit", err)
		return
	}

	writeResult(c, result, http.StatusCreated)
}

// ApplyReferral handles POST /api/v1/accounts/:accountId/referral
func (h *LedgerHandler) ApplyReferral(c *gin.Context) {
	accountID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.ReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	result, err := h.referrals.ApplyReferralBonus(c.Request.Context(), accountID, req.ReferralCode, key)
	if err != nil {
		writeError(c, h.logger, "Error applying referral bonus", err)
		return
	}

	writeResult(c, result, http.StatusCreated)
}
