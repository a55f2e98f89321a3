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
)

const blogColumns = `id, user_id, author_name, title, excerpt, content, category, tags, status,
    gc_tokens_awarded, views, reviewed_at, trashed_at, trash_reason, created_at`

// BlogRepository manages persistence for blog articles.
type BlogRepository struct {
	db *sqlx.DB
}

// NewBlogRepository constructs a BlogRepository.
func NewBlogRepository(db *sqlx.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create inserts a new blog in pending state.
func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	if blog.Status == "" {
		blog.Status = models.StatusPending
	}
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO blogs (id, user_id, author_name, title, excerpt, content, category, tags, status,
        gc_tokens_awarded, views, created_at)
        VALUES (:id, :user_id, :author_name, :title, :excerpt, :content, :category, :tags, :status,
        :gc_tokens_awarded, :views, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		return fmt.Errorf("create blog: %w", err)
	}
	return nil
}

// List returns blogs matching the provided filters.
func (r *BlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	baseQuery := `FROM blogs WHERE trashed_at IS NULL`
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
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)+1))
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(excerpt) LIKE $%d)", len(args)+1, len(args)+1))
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
		blogColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var blogs []models.Blog
	if err := r.db.SelectContext(ctx, &blogs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}
	return blogs, total, nil
}

// FindByID fetches a blog by ID.
func (r *BlogRepository) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs WHERE id = $1 LIMIT 1`, blogColumns)
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return &blog, nil
}

// IncrementViews bumps the view counter.
func (r *BlogRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE blogs SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment blog views: %w", err)
	}
	return nil
}

// ApprovePending transitions pending → approved with the awarded amount.
func (r *BlogRepository) ApprovePending(ctx context.Context, id string, tokens float64) (*models.ModerationItem, error) {
	const query = `UPDATE blogs SET status = $2, gc_tokens_awarded = $3, reviewed_at = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "blogs", query,
		id, models.StatusApproved, tokens, time.Now().UTC(), models.StatusPending)
}

// RejectPending transitions pending → rejected and trashes the row.
func (r *BlogRepository) RejectPending(ctx context.Context, id string) (*models.ModerationItem, error) {
	const query = `UPDATE blogs SET status = $2, reviewed_at = $3, trashed_at = $3, trash_reason = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "blogs", query,
		id, models.StatusRejected, time.Now().UTC(), trashReasonRejected, models.StatusPending)
}

// Trash moves a blog to the recycle bin.
func (r *BlogRepository) Trash(ctx context.Context, id, reason string) error {
	return trashRow(ctx, r.db, "blogs", id, reason)
}

// Restore clears the trash fields only.
func (r *BlogRepository) Restore(ctx context.Context, id string) error {
	return restoreRow(ctx, r.db, "blogs", id)
}

// DeletePermanent removes the row entirely.
func (r *BlogRepository) DeletePermanent(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "blogs", id)
}

// ListPending returns the moderation queue for blogs.
func (r *BlogRepository) ListPending(ctx context.Context, page, pageSize int) ([]models.ModerationItem, int, error) {
	return listPending(ctx, r.db, "blogs", models.StatusPending, page, pageSize)
}

// ListTrashed returns trashed blogs for the recycle bin.
func (r *BlogRepository) ListTrashed(ctx context.Context) ([]models.ModerationItem, error) {
	return listTrashed(ctx, r.db, "blogs")
}
