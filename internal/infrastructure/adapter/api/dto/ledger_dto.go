package dto

// TransferRequest represents the API request for tipping another account
type TransferRequest struct {
	FromAccountID uint64 `json:"fromAccountId" binding:"required,gt=0"`
	ToAccountID   uint64 `json:"toAccountId" binding:"required,gt=0"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Description   string `json:"description" binding:"omitempty,max=255"`
	RelatedPostID string `json:"relatedPostId" binding:"omitempty,max=64"`
}

// CreditRequest represents the API request for adding coins to an account
type CreditRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Kind        string `json:"kind" binding:"omitempty,oneof=purchase referral-bonus adjustment"`
	Description string `json:"description" binding:"omitempty,max=255"`
	ReferenceID string `json:"referenceId" binding:"omitempty,max=64"`
}

// DebitRequest represents the API request for removing coins from an account
type DebitRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Kind        string `json:"kind" binding:"omitempty,oneof=withdrawal adjustment"`
	Description string `json:"description" binding:"omitempty,max=255"`
	ReferenceID string `json:"referenceId" binding:"omitempty,max=64"`
}
