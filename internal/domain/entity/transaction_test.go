package entity

import (
	"testing"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	counterparty := uint64(9)

	t.Run("Valid tip posting", func(t *testing.T) {
		tx, err := NewTransaction("tx-1", TransactionParams{
			AccountID:      1,
			Amount:         -50,
			Kind:           KindTipSent,
			Description:    "tip",
			RelatedPostID:  "post-1",
			CounterpartyID: &counterparty,
		}, "corr-1", "key-1", 450, fixedTime)

		require.NoError(t, err)
		assert.Equal(t, "tx-1", tx.ID)
		assert.Equal(t, int64(-50), tx.Amount)
		assert.Equal(t, "corr-1", tx.CorrelationID)
		assert.Equal(t, "key-1", tx.IdempotencyKey)
		assert.Equal(t, int64(450), tx.BalanceAfter)
		assert.True(t, tx.IsDebit())
		assert.False(t, tx.IsCredit())
	})

	testCases := []struct {
		name     string
		params   TransactionParams
		expected error
	}{
		{"Missing account", TransactionParams{Amount: 5, Kind: KindPurchase}, errs.ErrInvalidAccountID},
		{"Zero amount", TransactionParams{AccountID: 1, Kind: KindPurchase}, errs.ErrInvalidAmount},
		{"Unknown kind", TransactionParams{AccountID: 1, Amount: 5, Kind: "gift"}, errs.ErrInvalidTransactionKind},
		{"Purchase cannot debit", TransactionParams{AccountID: 1, Amount: -5, Kind: KindPurchase}, errs.ErrInvalidTransactionKind},
		{"Withdrawal cannot credit", TransactionParams{AccountID: 1, Amount: 5, Kind: KindWithdrawal}, errs.ErrInvalidTransactionKind},
		{"Tip sent cannot credit", TransactionParams{AccountID: 1, Amount: 5, Kind: KindTipSent}, errs.ErrInvalidTransactionKind},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx, err := NewTransaction("tx", tc.params, "", "", 0, fixedTime)

			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, tx)
		})
	}

	t.Run("Adjustment can go both ways", func(t *testing.T) {
		_, err := NewTransaction("a", TransactionParams{AccountID: 1, Amount: 5, Kind: KindAdjustment}, "", "", 5, fixedTime)
		require.NoError(t, err)

		_, err = NewTransaction("b", TransactionParams{AccountID: 1, Amount: -5, Kind: KindAdjustment}, "", "", 0, fixedTime)
		require.NoError(t, err)
	})
}

func TestReferralReference(t *testing.T) {
	assert.Equal(t, "referral:42", ReferralReference(42))
	assert.True(t, IsReferralReference(ReferralReference(42)))
	assert.True(t, IsReferralReference(" Referral:7"))
	assert.False(t, IsReferralReference("order-991"))
	assert.False(t, IsReferralReference(""))
}

func TestNewLedgerEvent(t *testing.T) {
	tx, err := NewTransaction("tx-1", TransactionParams{AccountID: 3, Amount: 100, Kind: KindReferralBonus}, "c", "", 100, fixedTime)
	require.NoError(t, err)

	event := NewLedgerEvent(tx)

	assert.Equal(t, "ledger.referral-bonus", event.EventType)
	assert.Equal(t, uint64(3), event.AccountID)
	assert.Equal(t, int64(100), event.BalanceAfter)
	assert.Equal(t, fixedTime, event.OccurredAt)
}
