package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

func newMaterialRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func moderationRows(id, status string, trashed bool) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "status", "trashed_at", "trash_reason", "created_at"})
	if trashed {
		now := time.Now()
		reason := trashReasonRejected
		return rows.AddRow(id, "user-1", "DSA Notes", status, now, reason, now)
	}
	return rows.AddRow(id, "user-1", "DSA Notes", status, nil, nil, time.Now())
}

func TestMaterialRepositoryCreateDefaultsToPending(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO materials")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	material := &models.Material{
		UserID:     "user-1",
		Title:      "DSA Notes",
		Course:     "B.Tech",
		Subject:    "DSA",
		University: "IIT Delhi",
		FileURL:    "materials/dsa-notes.pdf",
		FileName:   "dsa-notes.pdf",
	}
	require.NoError(t, repo.Create(context.Background(), material))
	require.NotEmpty(t, material.ID)
	require.Equal(t, models.StatusPending, material.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryApprovePendingWinsTransition(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE materials SET status =")).
		WillReturnRows(moderationRows("mat-1", "approved", false))

	item, err := repo.ApprovePending(context.Background(), "mat-1", 5)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, item.Status)
	require.Equal(t, "user-1", item.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryApprovePendingLosesRace(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE materials SET status =")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM materials WHERE id =")).
		WithArgs("mat-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	_, err := repo.ApprovePending(context.Background(), "mat-1", 5)
	require.ErrorIs(t, err, appErrors.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryApproveUnknownIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE materials SET status =")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM materials WHERE id =")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ApprovePending(context.Background(), "ghost", 5)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryRejectTrashesRow(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = $5 AND trashed_at IS NULL")).
		WillReturnRows(moderationRows("mat-1", "rejected", true))

	item, err := repo.RejectPending(context.Background(), "mat-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, item.Status)
	require.NotNil(t, item.TrashedAt)
	require.Equal(t, trashReasonRejected, *item.TrashReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryRestoreRequiresTrashedRow(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE materials SET trashed_at = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Restore(context.Background(), "mat-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "material_type", "course", "specialization",
		"subject", "university", "language", "uploaded_by", "file_url", "file_name", "status", "gc_tokens_awarded",
		"views", "downloads", "reviewed_at", "trashed_at", "trash_reason", "created_at"}).
		AddRow("mat-1", "user-1", "DSA Notes", "sorting and trees", "notes", "B.Tech", "CSE",
			"DSA", "IIT Delhi", "English", "Asha", "materials/dsa.pdf", "dsa.pdf", "approved", 5.0,
			12, 3, time.Now(), nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, title, description")).
		WithArgs("approved", "DSA").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM materials")).
		WithArgs("approved", "DSA").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	materials, total, err := repo.List(context.Background(), models.MaterialFilter{
		Status:  models.StatusApproved,
		Subject: "DSA",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, materials, 1)
	require.Equal(t, "DSA Notes", materials[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()

	repo := NewMaterialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO materials")).
		WillReturnResult(sqlmock.NewResult(2, 2))

	materials := []models.Material{
		{UserID: "admin-1", Title: "Imported A", FileURL: "https://cdn.example.com/a.pdf"},
		{UserID: "admin-1", Title: "Imported B", FileURL: "https://cdn.example.com/b.pdf"},
	}
	require.NoError(t, repo.BulkInsert(context.Background(), materials))
	require.NotEmpty(t, materials[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
