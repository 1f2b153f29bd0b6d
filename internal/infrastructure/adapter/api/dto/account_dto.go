package dto

import (
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// CreateAccountRequest represents the API request for opening an account
type CreateAccountRequest struct {
	AccountID        uint64 `json:"accountId" binding:"required,gt=0"`
	PayoutProfileRef string `json:"payoutProfileRef" binding:"omitempty,max=128"`
}

// SetPayoutProfileRequest represents the API request for linking a payout profile
type SetPayoutProfileRequest struct {
	PayoutProfileRef string `json:"payoutProfileRef" binding:"required,max=128"`
}

// AccountResponse represents an account as exposed by the API
type AccountResponse struct {
	AccountID        uint64    `json:"accountId"`
	Balance          int64     `json:"balance"`
	ReferralCode     string    `json:"referralCode"`
	ReferredBy       *uint64   `json:"referredBy,omitempty"`
	HasPayoutProfile bool      `json:"hasPayoutProfile"`
	Version          uint64    `json:"version"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewAccountResponse converts an account entity
func NewAccountResponse(account *entity.Account) AccountResponse {
	return AccountResponse{
		AccountID:        account.ID,
		Balance:          account.Balance(),
		ReferralCode:     account.ReferralCode,
		ReferredBy:       account.ReferredBy,
		HasPayoutProfile: account.HasPayoutProfile(),
		Version:          account.Version,
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	}
}

// ReferralRequest represents the API request for redeeming a referral code
type ReferralRequest struct {
	ReferralCode string `json:"referralCode" binding:"required,min=4,max=32"`
}
