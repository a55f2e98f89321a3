package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/internal/models"
)

// StatsRepository runs aggregate queries for dashboards and reports. All
// aggregation happens in SQL; no full-table fetches.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// UserStats aggregates the user base section of the admin dashboard.
func (r *StatsRepository) UserStats(ctx context.Context) (dto.UserStatsSection, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days') AS new_last_week,
        COUNT(*) FILTER (WHERE is_admin) AS admins
        FROM profiles WHERE trashed_at IS NULL`
	var row struct {
		Total       int `db:"total"`
		NewLastWeek int `db:"new_last_week"`
		Admins      int `db:"admins"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return dto.UserStatsSection{}, fmt.Errorf("user stats: %w", err)
	}
	return dto.UserStatsSection{Total: row.Total, NewLastWeek: row.NewLastWeek, Admins: row.Admins}, nil
}

// StatusCounts aggregates a content table by moderation status. A non-empty
// userID restricts the aggregate to that owner's rows.
func (r *StatsRepository) StatusCounts(ctx context.Context, kind models.ContentKind, userID string) (dto.StatusCounts, error) {
	table, approved, err := kindTable(kind)
	if err != nil {
		return dto.StatusCounts{}, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'pending') AS pending,
        COUNT(*) FILTER (WHERE status = '%s') AS approved,
        COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
        FROM %s WHERE trashed_at IS NULL`, approved, table)
	var args []interface{}
	if userID != "" {
		query += " AND user_id = $1"
		args = append(args, userID)
	}
	var row struct {
		Total    int `db:"total"`
		Pending  int `db:"pending"`
		Approved int `db:"approved"`
		Rejected int `db:"rejected"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return dto.StatusCounts{}, fmt.Errorf("status counts %s: %w", table, err)
	}
	return dto.StatusCounts{Total: row.Total, Pending: row.Pending, Approved: row.Approved, Rejected: row.Rejected}, nil
}

// TokenTotals sums the awarded and spent sides of the ledger.
func (r *StatsRepository) TokenTotals(ctx context.Context) (dto.TokenStatsSection, error) {
	const query = `SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'earned'), 0) AS total_awarded,
        COALESCE(ABS(SUM(amount) FILTER (WHERE type = 'spent')), 0) AS total_spent
        FROM gc_transactions`
	var row struct {
		TotalAwarded float64 `db:"total_awarded"`
		TotalSpent   float64 `db:"total_spent"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return dto.TokenStatsSection{}, fmt.Errorf("token totals: %w", err)
	}
	return dto.TokenStatsSection{TotalAwarded: row.TotalAwarded, TotalSpent: row.TotalSpent}, nil
}

// EngagementTotals sums views and downloads across all content kinds.
func (r *StatsRepository) EngagementTotals(ctx context.Context) (dto.EngagementSection, error) {
	const query = `SELECT
        COALESCE((SELECT SUM(views) FROM materials), 0) +
        COALESCE((SELECT SUM(views) FROM blogs), 0) +
        COALESCE((SELECT SUM(views) FROM videos), 0) AS total_views,
        COALESCE((SELECT SUM(downloads) FROM materials), 0) AS total_downloads`
	var row struct {
		TotalViews     int `db:"total_views"`
		TotalDownloads int `db:"total_downloads"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return dto.EngagementSection{}, fmt.Errorf("engagement totals: %w", err)
	}
	return dto.EngagementSection{TotalViews: row.TotalViews, TotalDownloads: row.TotalDownloads}, nil
}

// RecentSubmissions lists the newest pending items across every content kind.
func (r *StatsRepository) RecentSubmissions(ctx context.Context, limit int) ([]models.ModerationItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	const query = `SELECT kind, id, user_id, title, status, trashed_at, trash_reason, created_at FROM (
        SELECT 'material' AS kind, id, user_id, title, status, trashed_at, trash_reason, created_at FROM materials WHERE status = 'pending' AND trashed_at IS NULL
        UNION ALL
        SELECT 'blog', id, user_id, title, status, trashed_at, trash_reason, created_at FROM blogs WHERE status = 'pending' AND trashed_at IS NULL
        UNION ALL
        SELECT 'video', id, user_id, title, status, trashed_at, trash_reason, created_at FROM videos WHERE status = 'pending' AND trashed_at IS NULL
        UNION ALL
        SELECT 'marketplace', id, user_id, title, status, trashed_at, trash_reason, created_at FROM marketplace_items WHERE status = 'pending' AND trashed_at IS NULL
        ) AS pending ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent submissions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	items := make([]models.ModerationItem, 0, limit)
	for rows.Next() {
		var kind string
		var item models.ModerationItem
		if err := rows.Scan(&kind, &item.ID, &item.UserID, &item.Title, &item.Status,
			&item.TrashedAt, &item.TrashReason, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent submission: %w", err)
		}
		item.Kind = models.ContentKind(kind)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent submissions: %w", err)
	}
	return items, nil
}

// RecentSignups lists the newest profiles.
func (r *StatsRepository) RecentSignups(ctx context.Context, limit int) ([]models.Profile, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE trashed_at IS NULL ORDER BY created_at DESC LIMIT $1`, profileColumns)
	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, limit); err != nil {
		return nil, fmt.Errorf("recent signups: %w", err)
	}
	return profiles, nil
}

// SignupsHistogram buckets new profiles by day or month since the cutoff.
func (r *StatsRepository) SignupsHistogram(ctx context.Context, since time.Time, trunc string) ([]dto.TimeBucket, error) {
	return r.histogram(ctx, "profiles", since, trunc)
}

// UploadsHistogram buckets new materials by day or month since the cutoff.
func (r *StatsRepository) UploadsHistogram(ctx context.Context, since time.Time, trunc string) ([]dto.TimeBucket, error) {
	return r.histogram(ctx, "materials", since, trunc)
}

func (r *StatsRepository) histogram(ctx context.Context, table string, since time.Time, trunc string) ([]dto.TimeBucket, error) {
	if trunc != "month" {
		trunc = "day"
	}
	format := "YYYY-MM-DD"
	if trunc == "month" {
		format = "YYYY-MM"
	}
	query := fmt.Sprintf(`SELECT TO_CHAR(DATE_TRUNC('%s', created_at), '%s') AS bucket, COUNT(*) AS count
        FROM %s WHERE created_at >= $1 GROUP BY 1 ORDER BY 1`, trunc, format, table)
	var buckets []dto.TimeBucket
	if err := r.db.SelectContext(ctx, &buckets, query, since); err != nil {
		return nil, fmt.Errorf("%s histogram: %w", table, err)
	}
	return buckets, nil
}

// TokenTotalsBetween sums ledger movement inside a window.
func (r *StatsRepository) TokenTotalsBetween(ctx context.Context, since time.Time) (earned, spent float64, err error) {
	const query = `SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'earned'), 0) AS earned,
        COALESCE(ABS(SUM(amount) FILTER (WHERE type = 'spent')), 0) AS spent
        FROM gc_transactions WHERE created_at >= $1`
	var row struct {
		Earned float64 `db:"earned"`
		Spent  float64 `db:"spent"`
	}
	if err := r.db.GetContext(ctx, &row, query, since); err != nil {
		return 0, 0, fmt.Errorf("token totals between: %w", err)
	}
	return row.Earned, row.Spent, nil
}

// TotalsPerKind counts live rows in each content table.
func (r *StatsRepository) TotalsPerKind(ctx context.Context) (map[string]int, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM materials WHERE trashed_at IS NULL) AS materials,
        (SELECT COUNT(*) FROM blogs WHERE trashed_at IS NULL) AS blogs,
        (SELECT COUNT(*) FROM videos WHERE trashed_at IS NULL) AS videos,
        (SELECT COUNT(*) FROM marketplace_items WHERE trashed_at IS NULL) AS marketplace`
	var row struct {
		Materials   int `db:"materials"`
		Blogs       int `db:"blogs"`
		Videos      int `db:"videos"`
		Marketplace int `db:"marketplace"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("totals per kind: %w", err)
	}
	return map[string]int{
		"material":    row.Materials,
		"blog":        row.Blogs,
		"video":       row.Videos,
		"marketplace": row.Marketplace,
	}, nil
}

// TopUniversities ranks universities by approved material volume.
func (r *StatsRepository) TopUniversities(ctx context.Context, limit int) ([]dto.UniversityCount, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}
	const query = `SELECT university, COUNT(*) AS count FROM materials
        WHERE status = 'approved' AND trashed_at IS NULL AND university <> ''
        GROUP BY university ORDER BY count DESC LIMIT $1`
	var entries []dto.UniversityCount
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("top universities: %w", err)
	}
	return entries, nil
}

func kindTable(kind models.ContentKind) (table string, approved models.ContentStatus, err error) {
	switch kind {
	case models.KindMaterial:
		return "materials", models.StatusApproved, nil
	case models.KindBlog:
		return "blogs", models.StatusApproved, nil
	case models.KindVideo:
		return "videos", models.StatusApproved, nil
	case models.KindMarketplace:
		return "marketplace_items", models.StatusActive, nil
	default:
		return "", "", fmt.Errorf("unknown content kind %q", kind)
	}
}
