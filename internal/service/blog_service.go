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

type blogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error)
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	IncrementViews(ctx context.Context, id string) error
}

// SubmitBlogRequest is the author-facing submission payload.
type SubmitBlogRequest struct {
	Title    string   `json:"title" validate:"required"`
	Excerpt  string   `json:"excerpt"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// BlogService handles blog submissions and the public article feed.
type BlogService struct {
	repo      blogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlogService constructs a BlogService.
func NewBlogService(repo blogRepository, validate *validator.Validate, logger *zap.Logger) *BlogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogService{repo: repo, validator: validate, logger: logger}
}

// Submit creates a pending blog post.
func (s *BlogService) Submit(ctx context.Context, userID, authorName string, req SubmitBlogRequest) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}
	blog := &models.Blog{
		UserID:     userID,
		AuthorName: authorName,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		Category:   req.Category,
		Tags:       req.Tags,
		Status:     models.StatusPending,
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blog")
	}
	return blog, nil
}

// List returns approved posts for the public feed.
func (s *BlogService) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, *models.Pagination, error) {
	filter.Status = models.StatusApproved
	filter.UserID = ""
	return s.list(ctx, filter)
}

// OwnList returns the caller's posts in any status.
func (s *BlogService) OwnList(ctx context.Context, userID string, filter models.BlogFilter) ([]models.Blog, *models.Pagination, error) {
	filter.UserID = userID
	filter.Status = ""
	return s.list(ctx, filter)
}

func (s *BlogService) list(ctx context.Context, filter models.BlogFilter) ([]models.Blog, *models.Pagination, error) {
	blogs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blogs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return blogs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one post and counts the view.
func (s *BlogService) Get(ctx context.Context, id string) (*models.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blog")
	}
	if blog.TrashedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to count blog view", zap.String("id", id), zap.Error(err))
	} else {
		blog.Views++
	}
	return blog, nil
}
