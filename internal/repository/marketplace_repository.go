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

const marketplaceColumns = `id, user_id, title, description, price, type, category, image_url, contact_info,
    status, reviewed_at, trashed_at, trash_reason, created_at`

// MarketplaceRepository manages persistence for marketplace listings.
type MarketplaceRepository struct {
	db *sqlx.DB
}

// NewMarketplaceRepository constructs a MarketplaceRepository.
func NewMarketplaceRepository(db *sqlx.DB) *MarketplaceRepository {
	return &MarketplaceRepository{db: db}
}

// Create inserts a new listing in pending state.
func (r *MarketplaceRepository) Create(ctx context.Context, item *models.MarketplaceItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO marketplace_items (id, user_id, title, description, price, type, category,
        image_url, contact_info, status, created_at)
        VALUES (:id, :user_id, :title, :description, :price, :type, :category,
        :image_url, :contact_info, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create marketplace item: %w", err)
	}
	return nil
}

// List returns listings matching the provided filters.
func (r *MarketplaceRepository) List(ctx context.Context, filter models.MarketplaceFilter) ([]models.MarketplaceItem, int, error) {
	baseQuery := `FROM marketplace_items WHERE trashed_at IS NULL`
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
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
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
		"price":      true,
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
		marketplaceColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var items []models.MarketplaceItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list marketplace items: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count marketplace items: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a listing by ID.
func (r *MarketplaceRepository) FindByID(ctx context.Context, id string) (*models.MarketplaceItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM marketplace_items WHERE id = $1 LIMIT 1`, marketplaceColumns)
	var item models.MarketplaceItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find marketplace item: %w", err)
	}
	return &item, nil
}

// ApprovePending transitions pending → active. Listings never award tokens,
// so the amount is ignored.
func (r *MarketplaceRepository) ApprovePending(ctx context.Context, id string, _ float64) (*models.ModerationItem, error) {
	const query = `UPDATE marketplace_items SET status = $2, reviewed_at = $3
        WHERE id = $1 AND status = $4 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "marketplace_items", query,
		id, models.StatusActive, time.Now().UTC(), models.StatusPending)
}

// RejectPending transitions pending → rejected and trashes the row.
func (r *MarketplaceRepository) RejectPending(ctx context.Context, id string) (*models.ModerationItem, error) {
	const query = `UPDATE marketplace_items SET status = $2, reviewed_at = $3, trashed_at = $3, trash_reason = $4
        WHERE id = $1 AND status = $5 AND trashed_at IS NULL
        RETURNING id, user_id, title, status, trashed_at, trash_reason, created_at`
	return moderationTransition(ctx, r.db, "marketplace_items", query,
		id, models.StatusRejected, time.Now().UTC(), trashReasonRejected, models.StatusPending)
}

// Trash moves a listing to the recycle bin.
func (r *MarketplaceRepository) Trash(ctx context.Context, id, reason string) error {
	return trashRow(ctx, r.db, "marketplace_items", id, reason)
}

// Restore clears the trash fields only.
func (r *MarketplaceRepository) Restore(ctx context.Context, id string) error {
	return restoreRow(ctx, r.db, "marketplace_items", id)
}

// DeletePermanent removes the row entirely.
func (r *MarketplaceRepository) DeletePermanent(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "marketplace_items", id)
}

// ListPending returns the moderation queue for listings.
func (r *MarketplaceRepository) ListPending(ctx context.Context, page, pageSize int) ([]models.ModerationItem, int, error) {
	return listPending(ctx, r.db, "marketplace_items", models.StatusPending, page, pageSize)
}

// ListTrashed returns trashed listings for the recycle bin.
func (r *MarketplaceRepository) ListTrashed(ctx context.Context) ([]models.ModerationItem, error) {
	return listTrashed(ctx, r.db, "marketplace_items")
}
