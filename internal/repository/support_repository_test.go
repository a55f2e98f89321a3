package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
)

func newSupportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSupportRepositoryCreateQueryDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newSupportRepoMock(t)
	defer cleanup()

	repo := NewSupportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO support_queries")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	query := &models.SupportQuery{
		UserID:      "user-1",
		UserEmail:   "ana@example.com",
		Subject:     "Calculus help",
		Urgency:     "normal",
		Description: "Stuck on integrals",
	}
	require.NoError(t, repo.CreateQuery(context.Background(), query))
	require.NotEmpty(t, query.ID)
	require.Equal(t, models.SupportPending, query.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportRepositoryRespondMarksAnswered(t *testing.T) {
	db, mock, cleanup := newSupportRepoMock(t)
	defer cleanup()

	repo := NewSupportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE support_queries SET status = $2, admin_response = $3 WHERE id = $1")).
		WithArgs("query-1", models.SupportAnswered, "Try substitution first").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Respond(context.Background(), "query-1", "Try substitution first"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportRepositoryRespondUnknownID(t *testing.T) {
	db, mock, cleanup := newSupportRepoMock(t)
	defer cleanup()

	repo := NewSupportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE support_queries SET status = $2, admin_response = $3 WHERE id = $1")).
		WithArgs("missing", models.SupportAnswered, "hello").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Respond(context.Background(), "missing", "hello")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportRepositoryListAllFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newSupportRepoMock(t)
	defer cleanup()

	repo := NewSupportRepository(db)

	pending := models.SupportPending
	mock.ExpectQuery(regexp.QuoteMeta("FROM support_queries WHERE status = $1")).
		WithArgs(pending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_email", "user_name", "subject", "course",
			"topic", "urgency", "description", "status", "admin_response", "created_at"}))

	queries, err := repo.ListAll(context.Background(), &pending)
	require.NoError(t, err)
	require.Empty(t, queries)
	require.NoError(t, mock.ExpectationsWereMet())
}
