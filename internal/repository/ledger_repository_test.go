package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

func newLedgerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLedgerRepositoryAwardCommitsBalanceAndTransaction(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, amount, type, description, material_id, reference, created_at FROM gc_transactions WHERE reference =")).
		WithArgs("approve:material:mat-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET gc_token_balance = gc_token_balance +")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gc_transactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	transaction, created, err := repo.Award(context.Background(), LedgerEntry{
		UserID:      "user-1",
		Amount:      7,
		Description: "Material approved: DSA Notes",
		Reference:   "approve:material:mat-1",
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 7.0, transaction.Amount)
	require.Equal(t, models.TransactionEarned, transaction.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryAwardIsIdempotentOnReference(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	ref := "approve:material:mat-1"

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "user_id", "amount", "type", "description", "material_id", "reference", "created_at"}).
		AddRow("tx-1", "user-1", 7.0, "earned", "Material approved: DSA Notes", nil, ref, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, amount, type, description, material_id, reference, created_at FROM gc_transactions WHERE reference =")).
		WithArgs(ref).
		WillReturnRows(rows)
	mock.ExpectRollback()

	transaction, created, err := repo.Award(context.Background(), LedgerEntry{
		UserID:      "user-1",
		Amount:      7,
		Description: "Material approved: DSA Notes",
		Reference:   ref,
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "tx-1", transaction.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositorySpendInsufficientBalance(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET gc_token_balance = gc_token_balance +")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM profiles WHERE id =")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, _, err := repo.Spend(context.Background(), LedgerEntry{
		UserID:      "user-1",
		Amount:      0.5,
		Description: "Downloaded: DSA Notes",
	})
	require.ErrorIs(t, err, appErrors.ErrInsufficientTokens)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositorySpendUnknownUser(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET gc_token_balance = gc_token_balance +")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM profiles WHERE id =")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.Spend(context.Background(), LedgerEntry{
		UserID:      "ghost",
		Amount:      0.5,
		Description: "Downloaded: DSA Notes",
	})
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryRejectsNonPositiveAmounts(t *testing.T) {
	db, _, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	_, _, err := repo.Award(context.Background(), LedgerEntry{UserID: "user-1", Amount: 0})
	require.Error(t, err)
	_, _, err = repo.Spend(context.Background(), LedgerEntry{UserID: "user-1", Amount: -1})
	require.Error(t, err)
}

func TestLedgerRepositoryHistory(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	rows := sqlmock.NewRows([]string{"id", "user_id", "amount", "type", "description", "material_id", "reference", "created_at"}).
		AddRow("tx-2", "user-1", -0.5, "spent", "Downloaded: DSA Notes", "mat-1", nil, time.Now()).
		AddRow("tx-1", "user-1", 15.0, "earned", "Welcome bonus", nil, "signup:user-1", time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, amount, type, description, material_id, reference, created_at FROM gc_transactions WHERE user_id =")).
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM gc_transactions WHERE user_id =")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	transactions, total, err := repo.History(context.Background(), models.TransactionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, transactions, 2)
	require.Equal(t, models.TransactionSpent, transactions[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}
