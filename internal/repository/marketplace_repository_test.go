package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

func newMarketplaceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMarketplaceRepositoryCreateDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newMarketplaceRepoMock(t)
	defer cleanup()

	repo := NewMarketplaceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO marketplace_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.MarketplaceItem{
		UserID:      "user-1",
		Title:       "Casio FX-991",
		Price:       450,
		Type:        "sell",
		Category:    "electronics",
		ContactInfo: "ana@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	require.NotEmpty(t, item.ID)
	require.Equal(t, models.StatusPending, item.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketplaceRepositoryApprovePendingActivatesListing(t *testing.T) {
	db, mock, cleanup := newMarketplaceRepoMock(t)
	defer cleanup()

	repo := NewMarketplaceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE marketplace_items SET status =")).
		WithArgs("list-1", models.StatusActive, sqlmock.AnyArg(), models.StatusPending).
		WillReturnRows(moderationRows("list-1", "active", false))

	item, err := repo.ApprovePending(context.Background(), "list-1", 5)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, item.Status)
	require.Equal(t, "user-1", item.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketplaceRepositoryApprovePendingLosesRace(t *testing.T) {
	db, mock, cleanup := newMarketplaceRepoMock(t)
	defer cleanup()

	repo := NewMarketplaceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE marketplace_items SET status =")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM marketplace_items WHERE id =")).
		WithArgs("list-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	_, err := repo.ApprovePending(context.Background(), "list-1", 5)
	require.ErrorIs(t, err, appErrors.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketplaceRepositoryRejectSkipsTrashedRows(t *testing.T) {
	db, mock, cleanup := newMarketplaceRepoMock(t)
	defer cleanup()

	repo := NewMarketplaceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = $5 AND trashed_at IS NULL")).
		WithArgs("list-1", models.StatusRejected, sqlmock.AnyArg(), trashReasonRejected, models.StatusPending).
		WillReturnRows(moderationRows("list-1", "rejected", true))

	item, err := repo.RejectPending(context.Background(), "list-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, item.Status)
	require.NotNil(t, item.TrashedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
