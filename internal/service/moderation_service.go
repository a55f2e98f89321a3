package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/repository"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

// moderationRepository is the capability set every content kind implements.
type moderationRepository interface {
	ApprovePending(ctx context.Context, id string, tokens float64) (*models.ModerationItem, error)
	RejectPending(ctx context.Context, id string) (*models.ModerationItem, error)
	Trash(ctx context.Context, id, reason string) error
	Restore(ctx context.Context, id string) error
	DeletePermanent(ctx context.Context, id string) error
	ListPending(ctx context.Context, page, pageSize int) ([]models.ModerationItem, int, error)
	ListTrashed(ctx context.Context) ([]models.ModerationItem, error)
}

type trashedProfileLister interface {
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
}

// RecycleBinResponse groups trashed rows per content kind plus profiles.
type RecycleBinResponse struct {
	Content  map[models.ContentKind][]models.ModerationItem `json:"content"`
	Profiles []models.Profile                               `json:"profiles"`
}

// ModerationService drives the content review workflow. It dispatches on
// ContentKind over the per-kind repositories and routes token awards
// through the ledger with an idempotency key per approval.
type ModerationService struct {
	repos    map[models.ContentKind]moderationRepository
	profiles trashedProfileLister
	ledger   tokenAwarder
	tokens   config.TokensConfig
	logger   *zap.Logger
}

// NewModerationService constructs the moderation dispatcher.
func NewModerationService(
	materials, blogs, videos, marketplace moderationRepository,
	profiles trashedProfileLister,
	ledger tokenAwarder,
	tokens config.TokensConfig,
	logger *zap.Logger,
) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{
		repos: map[models.ContentKind]moderationRepository{
			models.KindMaterial:    materials,
			models.KindBlog:        blogs,
			models.KindVideo:       videos,
			models.KindMarketplace: marketplace,
		},
		profiles: profiles,
		ledger:   ledger,
		tokens:   tokens,
		logger:   logger,
	}
}

// Approve transitions a pending submission to its approved state and
// credits the owner. Racing admins resolve to exactly one award: the loser
// gets a conflict and the ledger reference blocks a second credit.
func (s *ModerationService) Approve(ctx context.Context, kind models.ContentKind, id string, tokenAmount float64, adminID string) (*models.ModerationItem, error) {
	repo, err := s.repoFor(kind)
	if err != nil {
		return nil, err
	}

	tokens := s.clampAward(kind, tokenAmount)

	item, err := repo.ApprovePending(ctx, id, tokens)
	if err != nil {
		return nil, mapModerationError(err, kind)
	}
	item.Kind = kind

	if tokens > 0 {
		entry := repository.LedgerEntry{
			UserID:      item.UserID,
			Amount:      tokens,
			Description: awardDescription(kind, item.Title),
			Reference:   fmt.Sprintf("approve:%s:%s", kind, id),
		}
		if kind == models.KindMaterial {
			materialID := id
			entry.MaterialID = &materialID
		}
		if _, _, err := s.ledger.Award(ctx, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "approved but failed to award tokens")
		}
	}

	s.logger.Info("content approved",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.Float64("tokens", tokens),
		zap.String("admin_id", adminID))
	return item, nil
}

// Reject transitions a pending submission to rejected. Rejection always
// trashes the row with a fixed reason.
func (s *ModerationService) Reject(ctx context.Context, kind models.ContentKind, id string, adminID string) (*models.ModerationItem, error) {
	repo, err := s.repoFor(kind)
	if err != nil {
		return nil, err
	}
	item, err := repo.RejectPending(ctx, id)
	if err != nil {
		return nil, mapModerationError(err, kind)
	}
	item.Kind = kind
	s.logger.Info("content rejected",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("admin_id", adminID))
	return item, nil
}

// Trash moves a submission to the recycle bin.
func (s *ModerationService) Trash(ctx context.Context, kind models.ContentKind, id, reason string) error {
	repo, err := s.repoFor(kind)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "Removed by admin"
	}
	if err := repo.Trash(ctx, id, reason); err != nil {
		return mapModerationError(err, kind)
	}
	return nil
}

// Restore clears the trash fields. Status is deliberately left untouched,
// so a rejected item comes back rejected.
func (s *ModerationService) Restore(ctx context.Context, kind models.ContentKind, id string) error {
	repo, err := s.repoFor(kind)
	if err != nil {
		return err
	}
	if err := repo.Restore(ctx, id); err != nil {
		return mapModerationError(err, kind)
	}
	return nil
}

// PermanentDelete removes a submission entirely.
func (s *ModerationService) PermanentDelete(ctx context.Context, kind models.ContentKind, id string) error {
	repo, err := s.repoFor(kind)
	if err != nil {
		return err
	}
	if err := repo.DeletePermanent(ctx, id); err != nil {
		return mapModerationError(err, kind)
	}
	return nil
}

// PendingQueue lists the approval queue for one kind.
func (s *ModerationService) PendingQueue(ctx context.Context, kind models.ContentKind, page, pageSize int) ([]models.ModerationItem, *models.Pagination, error) {
	repo, err := s.repoFor(kind)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := repo.ListPending(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending content")
	}
	for i := range items {
		items[i].Kind = kind
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// RecycleBin aggregates trashed rows across the four content kinds and
// trashed profiles.
func (s *ModerationService) RecycleBin(ctx context.Context) (*RecycleBinResponse, error) {
	out := &RecycleBinResponse{Content: make(map[models.ContentKind][]models.ModerationItem, len(s.repos))}
	for _, kind := range []models.ContentKind{models.KindMaterial, models.KindBlog, models.KindVideo, models.KindMarketplace} {
		items, err := s.repos[kind].ListTrashed(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recycle bin")
		}
		for i := range items {
			items[i].Kind = kind
		}
		out.Content[kind] = items
	}

	trashed := true
	profiles, _, err := s.profiles.List(ctx, models.ProfileFilter{Trashed: &trashed, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trashed profiles")
	}
	out.Profiles = profiles
	return out, nil
}

// clampAward applies the per-kind token policy: materials and blogs have
// floors, videos pay a fixed amount, marketplace approvals never pay.
func (s *ModerationService) clampAward(kind models.ContentKind, requested float64) float64 {
	switch kind {
	case models.KindMaterial:
		if requested < s.tokens.MinMaterialAward {
			return s.tokens.MinMaterialAward
		}
		return requested
	case models.KindBlog:
		if requested < s.tokens.MinBlogAward {
			return s.tokens.MinBlogAward
		}
		return requested
	case models.KindVideo:
		return s.tokens.VideoAward
	default:
		return 0
	}
}

func (s *ModerationService) repoFor(kind models.ContentKind) (moderationRepository, error) {
	repo, ok := s.repos[kind]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown content kind %q", kind))
	}
	return repo, nil
}

func awardDescription(kind models.ContentKind, title string) string {
	switch kind {
	case models.KindMaterial:
		return "Material approved: " + title
	case models.KindBlog:
		return "Blog approved: " + title
	case models.KindVideo:
		return "Video approved: " + title
	default:
		return "Approved: " + title
	}
}

func mapModerationError(err error, kind models.ContentKind) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kind))
	}
	if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is no longer pending", kind))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "moderation operation failed")
}
