package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Trash(ctx context.Context, id, reason string) error
	Restore(ctx context.Context, id string) error
	DeletePermanent(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// UpdateProfileRequest carries the self-service editable fields.
type UpdateProfileRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name"`
	About          *string `json:"about"`
	Country        *string `json:"country"`
	State          *string `json:"state"`
	College        *string `json:"college"`
	Specialization *string `json:"specialization"`
	Skills         *string `json:"skills"`
	Company        *string `json:"company"`
	JobRole        *string `json:"job_role"`
}

// ProfileService covers self-service profile edits and admin user management.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// Get returns a profile by id.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Update applies the editable fields to the caller's own profile. Email,
// role, balance and admin flag are never writable here.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.FirstName = req.FirstName
	profile.LastName = req.LastName
	profile.About = req.About
	profile.Country = req.Country
	profile.State = req.State
	profile.College = req.College
	profile.Specialization = req.Specialization
	profile.Skills = req.Skills
	profile.Company = req.Company
	profile.JobRole = req.JobRole
	profile.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return profile, nil
}

// List is the admin user listing.
func (s *ProfileService) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error) {
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return profiles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Leaderboard ranks profiles by token balance.
func (s *ProfileService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	return entries, nil
}

// SetAdmin toggles the admin flag. Admins cannot demote themselves, which
// keeps at least the acting admin in place.
func (s *ProfileService) SetAdmin(ctx context.Context, actorID, targetID string, isAdmin bool) error {
	if actorID == targetID && !isAdmin {
		return appErrors.Clone(appErrors.ErrValidation, "cannot revoke your own admin access")
	}
	if err := s.repo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin flag")
	}
	s.logger.Info("admin flag updated",
		zap.String("target_id", targetID),
		zap.Bool("is_admin", isAdmin),
		zap.String("actor_id", actorID))
	return nil
}

// Trash moves a profile to the recycle bin and revokes its sessions.
func (s *ProfileService) Trash(ctx context.Context, actorID, targetID, reason string) error {
	if actorID == targetID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot trash your own account")
	}
	if reason == "" {
		reason = "Removed by admin"
	}
	if err := s.repo.Trash(ctx, targetID, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to trash profile")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, targetID); err != nil {
		s.logger.Warn("failed to revoke sessions for trashed profile", zap.String("id", targetID), zap.Error(err))
	}
	return nil
}

// Restore takes a profile out of the recycle bin.
func (s *ProfileService) Restore(ctx context.Context, id string) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore profile")
	}
	return nil
}

// DeletePermanent removes a trashed profile for good.
func (s *ProfileService) DeletePermanent(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	if err := s.repo.DeletePermanent(ctx, targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete profile")
	}
	s.logger.Info("profile permanently deleted",
		zap.String("target_id", targetID),
		zap.String("actor_id", actorID))
	return nil
}
