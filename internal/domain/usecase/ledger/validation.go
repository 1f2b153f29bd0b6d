package ledger

import (
	"fmt"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

// MaxDescriptionLength bounds posting descriptions
const MaxDescriptionLength = 255

// Validator checks ledger requests before any store access
type Validator struct{}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTransfer validates all transfer fields
func (v *Validator) ValidateTransfer(req usecase.TransferRequest) error {
	if req.FromAccountID == 0 || req.ToAccountID == 0 {
		return errs.ErrInvalidAccountID
	}
	if req.FromAccountID == req.ToAccountID {
		return errs.ErrSelfTransferNotAllowed
	}
	if err := entity.ValidateCoinAmount(req.Amount); err != nil {
		return err
	}
	if err := v.validateDescription(req.Description); err != nil {
		return err
	}
	return ValidateIdempotencyKey(req.IdempotencyKey)
}

// ValidateCredit validates a credit posting
func (v *Validator) ValidateCredit(req usecase.PostingRequest) error {
	if err := v.validatePosting(req); err != nil {
		return err
	}

	switch req.Kind {
	case entity.KindPurchase, entity.KindReferralBonus, entity.KindAdjustment:
		return nil
	default:
		return fmt.Errorf("%w: %s cannot be credited directly", errs.ErrInvalidTransactionKind, req.Kind)
	}
}

// ValidateDebit validates a debit posting
func (v *Validator) ValidateDebit(req usecase.PostingRequest) error {
	if err := v.validatePosting(req); err != nil {
		return err
	}

	switch req.Kind {
	case entity.KindWithdrawal, entity.KindAdjustment:
		return nil
	default:
		return fmt.Errorf("%w: %s cannot be debited directly", errs.ErrInvalidTransactionKind, req.Kind)
	}
}

func (v *Validator) validatePosting(req usecase.PostingRequest) error {
	if req.AccountID == 0 {
		return errs.ErrInvalidAccountID
	}
	if err := entity.ValidateCoinAmount(req.Amount); err != nil {
		return err
	}
	if err := v.validateDescription(req.Description); err != nil {
		return err
	}
	if entity.IsReferralReference(req.ReferenceID) {
		return fmt.Errorf("%w: reference %q is reserved for referral redemptions", errs.ErrInvalidRequest, req.ReferenceID)
	}
	return ValidateIdempotencyKey(req.IdempotencyKey)
}

func (v *Validator) validateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description longer than %d characters", errs.ErrInvalidRequest, MaxDescriptionLength)
	}
	return nil
}
