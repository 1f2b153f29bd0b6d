package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

func TestValidator_ValidateTransfer(t *testing.T) {
	validator := NewValidator()
	valid := usecase.TransferRequest{FromAccountID: 1, ToAccountID: 2, Amount: 10, Description: "tip", IdempotencyKey: "key-1"}

	tests := []struct {
		name   string
		modify func(*usecase.TransferRequest)
		err    error
	}{
		{"Valid request", func(*usecase.TransferRequest) {}, nil},
		{"Missing source", func(r *usecase.TransferRequest) { r.FromAccountID = 0 }, errs.ErrInvalidAccountID},
		{"Self transfer", func(r *usecase.TransferRequest) { r.ToAccountID = 1 }, errs.ErrSelfTransferNotAllowed},
		{"Self transfer is reported before amount", func(r *usecase.TransferRequest) { r.ToAccountID = 1; r.Amount = 0 }, errs.ErrSelfTransferNotAllowed},
		{"Negative amount", func(r *usecase.TransferRequest) { r.Amount = -1 }, errs.ErrInvalidAmount},
		{"Long description", func(r *usecase.TransferRequest) { r.Description = strings.Repeat("a", MaxDescriptionLength+1) }, errs.ErrInvalidRequest},
		{"Long key", func(r *usecase.TransferRequest) { r.IdempotencyKey = strings.Repeat("k", MaxIdempotencyKeyLength+1) }, errs.ErrInvalidRequest},
		{"Padded key", func(r *usecase.TransferRequest) { r.IdempotencyKey = " key" }, errs.ErrInvalidRequest},
		{"No key", func(r *usecase.TransferRequest) { r.IdempotencyKey = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.modify(&req)

			err := validator.ValidateTransfer(req)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestValidator_PostingKinds(t *testing.T) {
	validator := NewValidator()

	for _, kind := range []entity.TransactionKind{entity.KindPurchase, entity.KindReferralBonus, entity.KindAdjustment} {
		assert.NoError(t, validator.ValidateCredit(usecase.PostingRequest{AccountID: 1, Amount: 1, Kind: kind}), kind)
	}
	for _, kind := range []entity.TransactionKind{entity.KindTipSent, entity.KindTipReceived, entity.KindWithdrawal, "bogus"} {
		assert.ErrorIs(t, validator.ValidateCredit(usecase.PostingRequest{AccountID: 1, Amount: 1, Kind: kind}), errs.ErrInvalidTransactionKind, kind)
	}

	for _, kind := range []entity.TransactionKind{entity.KindWithdrawal, entity.KindAdjustment} {
		assert.NoError(t, validator.ValidateDebit(usecase.PostingRequest{AccountID: 1, Amount: 1, Kind: kind}), kind)
	}
	assert.ErrorIs(t, validator.ValidateDebit(usecase.PostingRequest{AccountID: 1, Amount: 1, Kind: entity.KindPurchase}), errs.ErrInvalidTransactionKind)
	assert.ErrorIs(t, validator.ValidateDebit(usecase.PostingRequest{AccountID: 0, Amount: 1, Kind: entity.KindWithdrawal}), errs.ErrInvalidAccountID)
}

func TestValidator_ReservedReferralReference(t *testing.T) {
	validator := NewValidator()

	bonus := usecase.PostingRequest{AccountID: 3, Amount: 500, Kind: entity.KindReferralBonus, ReferenceID: entity.ReferralReference(3)}
	assert.ErrorIs(t, validator.ValidateCredit(bonus), errs.ErrInvalidRequest)

	bonus.ReferenceID = "REFERRAL:9"
	assert.ErrorIs(t, validator.ValidateCredit(bonus), errs.ErrInvalidRequest)

	bonus.ReferenceID = "campaign-2024"
	assert.NoError(t, validator.ValidateCredit(bonus))

	adjustment := usecase.PostingRequest{AccountID: 3, Amount: 10, Kind: entity.KindAdjustment, ReferenceID: entity.ReferralReference(3)}
	assert.ErrorIs(t, validator.ValidateDebit(adjustment), errs.ErrInvalidRequest)
}
