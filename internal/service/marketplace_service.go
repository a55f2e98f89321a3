package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type marketplaceRepository interface {
	Create(ctx context.Context, item *models.MarketplaceItem) error
	List(ctx context.Context, filter models.MarketplaceFilter) ([]models.MarketplaceItem, int, error)
	FindByID(ctx context.Context, id string) (*models.MarketplaceItem, error)
}

// SubmitListingRequest is the seller-facing listing payload.
type SubmitListingRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Type        string  `json:"type" validate:"required"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	ContactInfo string  `json:"contact_info" validate:"required"`
}

// MarketplaceService handles listings. Listings settle off-platform, so
// approval activates them without any token movement.
type MarketplaceService struct {
	repo      marketplaceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarketplaceService constructs a MarketplaceService.
func NewMarketplaceService(repo marketplaceRepository, validate *validator.Validate, logger *zap.Logger) *MarketplaceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketplaceService{repo: repo, validator: validate, logger: logger}
}

// Submit creates a pending listing.
func (s *MarketplaceService) Submit(ctx context.Context, userID string, req SubmitListingRequest) (*models.MarketplaceItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	item := &models.MarketplaceItem{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Type:        req.Type,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		ContactInfo: req.ContactInfo,
		Status:      models.StatusPending,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}
	return item, nil
}

// List returns active listings.
func (s *MarketplaceService) List(ctx context.Context, filter models.MarketplaceFilter) ([]models.MarketplaceItem, *models.Pagination, error) {
	filter.Status = models.StatusActive
	filter.UserID = ""
	return s.list(ctx, filter)
}

// OwnList returns the caller's listings in any status.
func (s *MarketplaceService) OwnList(ctx context.Context, userID string, filter models.MarketplaceFilter) ([]models.MarketplaceItem, *models.Pagination, error) {
	filter.UserID = userID
	filter.Status = ""
	return s.list(ctx, filter)
}

func (s *MarketplaceService) list(ctx context.Context, filter models.MarketplaceFilter) ([]models.MarketplaceItem, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marketplace items")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one listing.
func (s *MarketplaceService) Get(ctx context.Context, id string) (*models.MarketplaceItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if item.TrashedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
	}
	return item, nil
}
