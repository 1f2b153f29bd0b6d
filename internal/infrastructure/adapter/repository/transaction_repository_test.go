package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
)

var transactionColumns = []string{
	"id", "account_id", "amount", "kind", "description", "related_post_id", "counterparty_id",
	"correlation_id", "idempotency_key", "reference_id", "balance_after", "created_at",
}

func tipPostings(now time.Time) []*entity.Transaction {
	sender, recipient := uint64(1), uint64(2)
	return []*entity.Transaction{
		{ID: "01J4ZK0000000000000000000A", AccountID: 1, Amount: -30, Kind: entity.KindTipSent, CounterpartyID: &recipient, CorrelationID: "corr", BalanceAfter: 70, CreatedAt: now},
		{ID: "01J4ZK0000000000000000000B", AccountID: 2, Amount: 30, Kind: entity.KindTipReceived, CounterpartyID: &sender, CorrelationID: "corr", BalanceAfter: 30, CreatedAt: now},
	}
}

func TestTransactionRepository_CreateBatch(t *testing.T) {
	now := time.Now()

	t.Run("inserts all postings in one statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTransactionRepository(db, logger.NewNoopLogger())

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ledger_transactions"`)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.CreateBatch(context.Background(), tipPostings(now)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTransactionRepository(db, logger.NewNoopLogger())

		require.NoError(t, repo.CreateBatch(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate posting", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTransactionRepository(db, logger.NewNoopLogger())

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ledger_transactions"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_ledger_tx_referral_once"})

		err := repo.CreateBatch(context.Background(), tipPostings(now))
		assert.ErrorIs(t, err, errs.ErrConstraintViolation)
	})
}

func TestTransactionRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, logger.NewNoopLogger())
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ledger_transactions" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow("01J4ZK0000000000000000000A", 1, -30, "tip-sent", "", "post-9", 2, "corr", "key-1", "", 70, now))

	tx, err := repo.GetByID(context.Background(), "01J4ZK0000000000000000000A")
	require.NoError(t, err)
	assert.Equal(t, entity.KindTipSent, tx.Kind)
	assert.Equal(t, int64(-30), tx.Amount)
	assert.Equal(t, "post-9", tx.RelatedPostID)
	assert.True(t, tx.IsDebit())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ledger_transactions" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(transactionColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
}

func TestTransactionRepository_ListByAccount(t *testing.T) {
	now := time.Now()

	t.Run("first page", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTransactionRepository(db, logger.NewNoopLogger())

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ledger_transactions" WHERE account_id = $1 ORDER BY id DESC LIMIT`)).
			WillReturnRows(sqlmock.NewRows(transactionColumns).
				AddRow("01J4ZK0000000000000000000C", 1, 10, "purchase", "", "", nil, "c2", "", "", 110, now).
				AddRow("01J4ZK0000000000000000000A", 1, 100, "purchase", "", "", nil, "c1", "", "", 100, now))

		txs, err := repo.ListByAccount(context.Background(), 1, "", 2)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "01J4ZK0000000000000000000C", txs[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("after cursor", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTransactionRepository(db, logger.NewNoopLogger())

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ledger_transactions" WHERE account_id = $1 AND id < $2 ORDER BY id DESC LIMIT`)).
			WillReturnRows(sqlmock.NewRows(transactionColumns))

		txs, err := repo.ListByAccount(context.Background(), 1, "01J4ZK0000000000000000000A", 2)
		require.NoError(t, err)
		assert.Empty(t, txs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_Summaries(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db, logger.NewNoopLogger())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count FROM "ledger_transactions" WHERE account_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"total", "count"}).AddRow(380, 2))

	total, count, err := repo.Summarize(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(380), total)
	assert.Equal(t, int64(2), count)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE account_id = $1 AND kind = $2`)).
		WithArgs(1, "referral-bonus").
		WillReturnRows(sqlmock.NewRows([]string{"total", "count"}).AddRow(200, 2))

	earned, err := repo.SumByKind(context.Background(), 1, entity.KindReferralBonus)
	require.NoError(t, err)
	assert.Equal(t, int64(200), earned)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "ledger_transactions" WHERE kind = $1 AND reference_id = $2`)).
		WithArgs("referral-bonus", "referral:4").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByReference(context.Background(), entity.KindReferralBonus, "referral:4")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
