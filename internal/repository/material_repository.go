package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

const materialColumns = `id, user_id, title, description, material_type, course, specialization, subject,
    university, language, uploaded_by, file_url, file_name, status, gc_tokens_awarded, views, downloads,
    reviewed_at, trashed_at, trash_reason, created_at`

// MaterialRepository manages persistence for study materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs a MaterialRepository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// Create inserts a new material in pending state.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.Status == "" {
		material.Status = models.StatusPending
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, user_id, title, description, material_type, course, specialization,
        subject, university, language, uploaded_by, file_url, file_name, status, gc_tokens_awarded, views, downloads, created_at)
        VALUES (:id, :user_id, :title, :description, :material_type, :course, :specialization,
        :subject, :university, :language, :uploaded_by, :file_url, :file_name, :status, :gc_tokens_awarded, :views, :downloads, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// BulkInsert writes a batch of materials in a single statement.
func (r *MaterialRepository) BulkInsert(ctx context.Context, materials []models.Material) error {
	if len(materials) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range materials {
		if materials[i].ID == "" {
			materials[i].ID = uuid.NewString()
		}
		if materials[i].Status == "" {
			materials[i].Status = models.StatusPending
		}
		if materials[i].CreatedAt.IsZero() {
			materials[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO materials (id, user_id, title, description, material_type, course, specialization,
        subject, university, language, uploaded_by, file_url, file_name, status, gc_tokens_awarded, views, downloads, created_at)
        VALUES (:id, :user_id, :title, :description, :material_type, :course, :specialization,
        :subject, :university, :language, :uploaded_by, :file_url, :file_name, :status, :gc_tokens_awarded, :views, :downloads, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, materials); err != nil {
		return fmt.Errorf("bulk insert materials: %w", err)
	}
	return nil
}

// List returns materials matching the provided filters.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	baseQuery := `FROM materials WHERE trashed_at IS NULL`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.University != "" {
		conditions = append(conditions, fmt.Sprintf("university = $%d", len(args)+1))
		args = append(args, filter.University)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at": true,
		"title":      true,
		"views":      true,
		"downloads":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		materialColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}
	return materials, total, nil
}

// FindByID fetches a material by ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := fmt.Sprintf(`SELECT %s FROM materials WHERE id = $1 LIMIT 1`, materialColumns)
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find material: %w", err)
	}
	return &material, nil
}

// IncrementViews bumps the view counter.
func (r *MaterialRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE materials SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment material views: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter.
func (r *MaterialRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE materials SET downloads = downloads + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment material downloads: %w", err)
	}
	return nil
}

// ApprovePending transitions pending → approved, records the awarded token
// amount and returns the updated row. A material that is not pending yields
// a conflict so racing moderators cannot double-approve.
func (r *MaterialRepository) ApprovePending(ctx context.Context, id string, tokens float64) (*models.ModerationItem, error) {
	const query = `UPDATE materials SET status = $2, gc_tokens_awarded = $3, reviewed_at = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "materials", query,
		id, models.StatusApproved, tokens, time.Now().UTC(), models.StatusPending)
}

// RejectPending transitions pending → rejected and trashes the row.
func (r *MaterialRepository) RejectPending(ctx context.Context, id string) (*models.ModerationItem, error) {
	const query = `UPDATE materials SET status = $2, reviewed_at = $3, trashed_at = $3, trash_reason = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "materials", query,
		id, models.StatusRejected, time.Now().UTC(), trashReasonRejected, models.StatusPending)
}

// Trash moves a material to the recycle bin.
func (r *MaterialRepository) Trash(ctx context.Context, id, reason string) error {
	return trashRow(ctx, r.db, "materials", id, reason)
}

// Restore clears the trash fields only; status is left untouched.
func (r *MaterialRepository) Restore(ctx context.Context, id string) error {
	return restoreRow(ctx, r.db, "materials", id)
}

// DeletePermanent removes the row entirely.
func (r *MaterialRepository) DeletePermanent(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "materials", id)
}

// ListPending returns the moderation queue for materials.
func (r *MaterialRepository) ListPending(ctx context.Context, page, pageSize int) ([]models.ModerationItem, int, error) {
	return listPending(ctx, r.db, "materials", models.StatusPending, page, pageSize)
}

// ListTrashed returns trashed materials for the recycle bin.
func (r *MaterialRepository) ListTrashed(ctx context.Context) ([]models.ModerationItem, error) {
	return listTrashed(ctx, r.db, "materials")
}

const trashReasonRejected = "Rejected by admin"

// moderationTransition runs a conditional status update and distinguishes a
// missing row (not found) from a lost race (conflict).
func moderationTransition(ctx context.Context, db *sqlx.DB, table, query string, args ...interface{}) (*models.ModerationItem, error) {
	var item models.ModerationItem
	err := db.GetContext(ctx, &item, query, args...)
	if err == nil {
		return &item, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("moderate %s: %w", table, err)
	}
	exists, checkErr := rowExists(ctx, db, table, args[0].(string))
	if checkErr != nil {
		return nil, checkErr
	}
	if exists {
		return nil, appErrors.ErrConflict
	}
	return nil, sql.ErrNoRows
}

func rowExists(ctx context.Context, db *sqlx.DB, table, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 LIMIT 1`, table)
	var exists int
	if err := db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s row: %w", table, err)
	}
	return true, nil
}

func trashRow(ctx context.Context, db *sqlx.DB, table, id, reason string) error {
	query := fmt.Sprintf(`UPDATE %s SET trashed_at = $2, trash_reason = $3 WHERE id = $1 AND trashed_at IS NULL`, table)
	result, err := db.ExecContext(ctx, query, id, time.Now().UTC(), reason)
	if err != nil {
		return fmt.Errorf("trash %s row: %w", table, err)
	}
	return requireRowAffected(result, "trash "+table)
}

func restoreRow(ctx context.Context, db *sqlx.DB, table, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET trashed_at = NULL, trash_reason = NULL WHERE id = $1 AND trashed_at IS NOT NULL`, table)
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("restore %s row: %w", table, err)
	}
	return requireRowAffected(result, "restore "+table)
}

func deleteRow(ctx context.Context, db *sqlx.DB, table, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s row: %w", table, err)
	}
	return requireRowAffected(result, "delete "+table)
}

func listPending(ctx context.Context, db *sqlx.DB, table string, pending models.ContentStatus, page, pageSize int) ([]models.ModerationItem, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, user_id, title, status, trashed_at, trash_reason, created_at
        FROM %s WHERE status = $1 AND trashed_at IS NULL
        ORDER BY created_at ASC LIMIT %d OFFSET %d`, table, pageSize, offset)
	var items []models.ModerationItem
	if err := db.SelectContext(ctx, &items, query, pending); err != nil {
		return nil, 0, fmt.Errorf("list pending %s: %w", table, err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = $1 AND trashed_at IS NULL`, table)
	var total int
	if err := db.GetContext(ctx, &total, countQuery, pending); err != nil {
		return nil, 0, fmt.Errorf("count pending %s: %w", table, err)
	}
	return items, total, nil
}

func listTrashed(ctx context.Context, db *sqlx.DB, table string) ([]models.ModerationItem, error) {
	query := fmt.Sprintf(`SELECT id, user_id, title, status, trashed_at, trash_reason, created_at
        FROM %s WHERE trashed_at IS NOT NULL ORDER BY trashed_at DESC`, table)
	var items []models.ModerationItem
	if err := db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list trashed %s: %w", table, err)
	}
	return items, nil
}
