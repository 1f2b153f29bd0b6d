package usecase

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// TransferRequest moves coins between two accounts
type TransferRequest struct {
	FromAccountID  uint64
	ToAccountID    uint64
	Amount         int64
	Description    string
	RelatedPostID  string
	IdempotencyKey string
}

// PostingRequest changes a single account's balance
type PostingRequest struct {
	AccountID      uint64
	Amount         int64 // Always positive; the operation decides the sign
	Description    string
	Kind           entity.TransactionKind
	IdempotencyKey string
	ReferenceID    string
}

// LedgerUseCase applies balance-changing operations. Business-rule failures are
// reported in the result; only faults are returned as errors.
type LedgerUseCase interface {
	// Transfer debits the source and credits the destination atomically
	Transfer(ctx context.Context, req TransferRequest) (*entity.TransferResult, error)

	// Credit adds coins to an account (purchase, referral-bonus, adjustment)
	Credit(ctx context.Context, req PostingRequest) (*entity.TransferResult, error)

	// Debit removes coins from an account (withdrawal, adjustment)
	Debit(ctx context.Context, req PostingRequest) (*entity.TransferResult, error)
}

// ReferralUseCase redeems referral codes
type ReferralUseCase interface {
	// ApplyReferralBonus pays the referrer and records the relation in one unit
	ApplyReferralBonus(ctx context.Context, accountID uint64, referralCode, idempotencyKey string) (*entity.TransferResult, error)
}
