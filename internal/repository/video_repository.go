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

const videoColumns = `id, user_id, title, description, video_url, thumbnail_url, category, status,
    gc_tokens_awarded, views, reviewed_at, trashed_at, trash_reason, created_at`

// VideoRepository manages persistence for video submissions.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs a VideoRepository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video in pending state.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	if video.Status == "" {
		video.Status = models.StatusPending
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO videos (id, user_id, title, description, video_url, thumbnail_url, category, status,
        gc_tokens_awarded, views, created_at)
        VALUES (:id, :user_id, :title, :description, :video_url, :thumbnail_url, :category, :status,
        :gc_tokens_awarded, :views, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// List returns videos matching the provided filters.
func (r *VideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	baseQuery := `FROM videos WHERE trashed_at IS NULL`
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
		videoColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}
	return videos, total, nil
}

// FindByID fetches a video by ID.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE id = $1 LIMIT 1`, videoColumns)
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find video: %w", err)
	}
	return &video, nil
}

// IncrementViews bumps the view counter.
func (r *VideoRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE videos SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	return nil
}

// ApprovePending transitions pending → approved with the awarded amount.
func (r *VideoRepository) ApprovePending(ctx context.Context, id string, tokens float64) (*models.ModerationItem, error) {
	const query = `UPDATE videos SET status = $2, gc_tokens_awarded = $3, reviewed_at = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "videos", query,
		id, models.StatusApproved, tokens, time.Now().UTC(), models.StatusPending)
}

// RejectPending transitions pending → rejected and trashes the row.
func (r *VideoRepository) RejectPending(ctx context.Context, id string) (*models.ModerationItem, error) {
	const query = `UPDATE videos SET status = $2, reviewed_at = $3, trashed_at = $3, trash_reason = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "videos", query,
		id, models.StatusRejected, time.Now().UTC(), trashReasonRejected, models.StatusPending)
}

// Trash moves a video to the recycle bin.
func (r *VideoRepository) Trash(ctx context.Context, id, reason string) error {
	return trashRow(ctx, r.db, "videos", id, reason)
}

// Restore clears the trash fields only.
func (r *VideoRepository) Restore(ctx context.Context, id string) error {
	return restoreRow(ctx, r.db, "videos", id)
}

// DeletePermanent removes the row entirely.
func (r *VideoRepository) DeletePermanent(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "videos", id)
}

// ListPending returns the moderation queue for videos.
func (r *VideoRepository) ListPending(ctx context.Context, page, pageSize int) ([]models.ModerationItem, int, error) {
	return listPending(ctx, r.db, "videos", models.StatusPending, page, pageSize)
}

// ListTrashed returns trashed videos for the recycle bin.
func (r *VideoRepository) ListTrashed(ctx context.Context) ([]models.ModerationItem, error) {
	return listTrashed(ctx, r.db, "videos")
}
