package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
)

var payoutColumns = []string{
	"id", "account_id", "amount", "currency", "fiat_amount", "payout_profile_ref", "status",
	"reservation_tx_id", "reversal_tx_id", "external_ref", "attempts", "last_error",
	"idempotency_key", "created_at", "updated_at", "completed_at",
}

func samplePayout(now time.Time) *entity.PayoutRequest {
	return &entity.PayoutRequest{
		ID:               "01J4ZP0000000000000000000A",
		AccountID:        1,
		Amount:           500,
		Currency:         "USD",
		FiatAmount:       decimal.RequireFromString("5.00"),
		PayoutProfileRef: "acct_1",
		Status:           entity.PayoutPending,
		ReservationTxID:  "01J4ZK0000000000000000000A",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestPayoutRepository_CreateAndUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayoutRepository(db, logger.NewNoopLogger())
	now := time.Now()
	payout := samplePayout(now)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "payout_requests"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), payout))

	require.NoError(t, payout.MarkSubmitted("po_123", now.Add(time.Second)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payout_requests" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), payout))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payout_requests" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), payout), errs.ErrPayoutNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepository_Lookups(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayoutRepository(db, logger.NewNoopLogger())
	now := time.Now()

	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(payoutColumns).
			AddRow("01J4ZP0000000000000000000A", 1, 500, "USD", "5.0000", "acct_1", "submitted",
				"01J4ZK0000000000000000000A", "", "po_123", 1, "", "k1", now, now, nil)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payout_requests" WHERE id = $1`)).WillReturnRows(row())
	payout, err := repo.GetByID(context.Background(), "01J4ZP0000000000000000000A")
	require.NoError(t, err)
	assert.Equal(t, entity.PayoutSubmitted, payout.Status)
	assert.True(t, decimal.RequireFromString("5").Equal(payout.FiatAmount))
	assert.Nil(t, payout.CompletedAt)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payout_requests" WHERE external_ref = $1`)).WillReturnRows(row())
	payout, err = repo.GetByExternalRef(context.Background(), "po_123")
	require.NoError(t, err)
	assert.Equal(t, "po_123", payout.ExternalRef)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payout_requests" WHERE id = $1`) + ".*" + regexp.QuoteMeta(`FOR UPDATE`)).
		WillReturnRows(row())
	_, err = repo.LockByID(context.Background(), "01J4ZP0000000000000000000A")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payout_requests" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(payoutColumns))
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, errs.ErrPayoutNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRepository_InFlight(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayoutRepository(db, logger.NewNoopLogger())
	cutoff := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payout_requests" WHERE status IN ($1,$2) AND updated_at < $3 ORDER BY updated_at ASC LIMIT`)).
		WillReturnRows(sqlmock.NewRows(payoutColumns).
			AddRow("p1", 1, 500, "USD", "5", "acct_1", "pending", "t1", "", "", 0, "", "", cutoff, cutoff, nil))

	payouts, err := repo.ListInFlight(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, entity.PayoutPending, payouts[0].Status)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "payout_requests" WHERE status IN ($1,$2,$3)`)).
		WithArgs("pending", "submitted", "needs_review").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountInFlight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
