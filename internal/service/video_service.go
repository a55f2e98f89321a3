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

type videoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
	FindByID(ctx context.Context, id string) (*models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// SubmitVideoRequest is the author-facing submission payload.
type SubmitVideoRequest struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	VideoURL     string `json:"video_url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
	Category     string `json:"category"`
}

// VideoService handles video link submissions and the public gallery.
type VideoService struct {
	repo      videoRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVideoService constructs a VideoService.
func NewVideoService(repo videoRepository, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoService{repo: repo, validator: validate, logger: logger}
}

// Submit creates a pending video.
func (s *VideoService) Submit(ctx context.Context, userID string, req SubmitVideoRequest) (*models.Video, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video payload")
	}
	video := &models.Video{
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Category:     req.Category,
		Status:       models.StatusPending,
	}
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create video")
	}
	return video, nil
}

// List returns approved videos for the public gallery.
func (s *VideoService) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	filter.Status = models.StatusApproved
	filter.UserID = ""
	return s.list(ctx, filter)
}

// OwnList returns the caller's videos in any status.
func (s *VideoService) OwnList(ctx context.Context, userID string, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	filter.UserID = userID
	filter.Status = ""
	return s.list(ctx, filter)
}

func (s *VideoService) list(ctx context.Context, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	videos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return videos, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one video and counts the view.
func (s *VideoService) Get(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if video.TrashedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "video not found")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to count video view", zap.String("id", id), zap.Error(err))
	} else {
		video.Views++
	}
	return video, nil
}
