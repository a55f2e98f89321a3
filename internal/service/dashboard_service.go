package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

const (
	cacheKeyAdminDashboard   = "dashboard:admin"
	cacheKeyStudentDashboard = "dashboard:student:"
)

type statsRepository interface {
	UserStats(ctx context.Context) (dto.UserStatsSection, error)
	StatusCounts(ctx context.Context, kind models.ContentKind, userID string) (dto.StatusCounts, error)
	TokenTotals(ctx context.Context) (dto.TokenStatsSection, error)
	EngagementTotals(ctx context.Context) (dto.EngagementSection, error)
	RecentSubmissions(ctx context.Context, limit int) ([]models.ModerationItem, error)
	RecentSignups(ctx context.Context, limit int) ([]models.Profile, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type recentTransactionReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	Balance(ctx context.Context, userID string) (float64, error)
}

// DashboardService assembles the aggregated dashboard payloads. Results are
// cached in Redis with short TTLs because every section is a scan-heavy
// aggregate.
type DashboardService struct {
	stats  statsRepository
	ledger recentTransactionReader
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(stats statsRepository, ledger recentTransactionReader, cache cacheStore, cfg config.DashboardConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{stats: stats, ledger: ledger, cache: cache, ttl: ttl, logger: logger}
}

// Admin builds the platform-wide dashboard.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	var cached dto.AdminDashboardResponse
	if err := s.cache.Get(ctx, cacheKeyAdminDashboard, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	out := &dto.AdminDashboardResponse{}
	var err error
	if out.Users, err = s.stats.UserStats(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}
	if out.Content, err = s.contentSection(ctx, ""); err != nil {
		return nil, err
	}
	if out.Tokens, err = s.stats.TokenTotals(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}
	if out.Engagement, err = s.stats.EngagementTotals(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}
	if out.RecentItems, err = s.stats.RecentSubmissions(ctx, 10); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}
	if out.NewSignups, err = s.stats.RecentSignups(ctx, 5); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}

	if err := s.cache.Set(ctx, cacheKeyAdminDashboard, out, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return out, nil
}

// Student builds the personalised member dashboard.
func (s *DashboardService) Student(ctx context.Context, userID string) (*dto.StudentDashboardResponse, error) {
	key := cacheKeyStudentDashboard + userID
	var cached dto.StudentDashboardResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	out := &dto.StudentDashboardResponse{}
	var err error
	if out.Balance, err = s.ledger.Balance(ctx, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}
	content, err := s.contentSection(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.Materials = content.Materials
	out.Blogs = content.Blogs
	out.Videos = content.Videos
	out.Listings = content.Listings
	if out.RecentTransactions, err = s.ledger.Recent(ctx, userID, 10); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}

	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return out, nil
}

// Invalidate drops cached dashboards. Called after moderation decisions and
// ledger writes so admins see fresh queues.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) contentSection(ctx context.Context, userID string) (dto.ContentStatsSection, error) {
	var section dto.ContentStatsSection
	targets := []struct {
		kind models.ContentKind
		dest *dto.StatusCounts
	}{
		{models.KindMaterial, &section.Materials},
		{models.KindBlog, &section.Blogs},
		{models.KindVideo, &section.Videos},
		{models.KindMarketplace, &section.Listings},
	}
	for _, t := range targets {
		counts, err := s.stats.StatusCounts(ctx, t.kind, userID)
		if err != nil {
			return section, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
		}
		*t.dest = counts
	}
	return section, nil
}
