package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

// fakeModerationRepo keeps moderation items in memory and enforces the
// pending-only transition rule. approvedStatus mirrors the per-kind approval
// target: "approved" for content, "active" for marketplace listings.
type fakeModerationRepo struct {
	items          map[string]*models.ModerationItem
	approvedStatus models.ContentStatus
}

func newFakeModerationRepo() *fakeModerationRepo {
	return &fakeModerationRepo{items: make(map[string]*models.ModerationItem), approvedStatus: models.StatusApproved}
}

func newFakeMarketplaceRepo() *fakeModerationRepo {
	repo := newFakeModerationRepo()
	repo.approvedStatus = models.StatusActive
	return repo
}

func (f *fakeModerationRepo) add(id, userID, title string) {
	f.items[id] = &models.ModerationItem{ID: id, UserID: userID, Title: title, Status: models.StatusPending}
}

func (f *fakeModerationRepo) transition(id string, to models.ContentStatus) (*models.ModerationItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if item.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "not pending")
	}
	item.Status = to
	copied := *item
	return &copied, nil
}

func (f *fakeModerationRepo) ApprovePending(_ context.Context, id string, _ float64) (*models.ModerationItem, error) {
	return f.transition(id, f.approvedStatus)
}

func (f *fakeModerationRepo) RejectPending(_ context.Context, id string) (*models.ModerationItem, error) {
	item, err := f.transition(id, models.StatusRejected)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	reason := "Rejected by admin"
	f.items[id].TrashedAt = &now
	f.items[id].TrashReason = &reason
	item.TrashedAt = &now
	item.TrashReason = &reason
	return item, nil
}

func (f *fakeModerationRepo) Trash(_ context.Context, id, reason string) error {
	item, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	item.TrashedAt = &now
	item.TrashReason = &reason
	return nil
}

func (f *fakeModerationRepo) Restore(_ context.Context, id string) error {
	item, ok := f.items[id]
	if !ok || item.TrashedAt == nil {
		return sql.ErrNoRows
	}
	item.TrashedAt = nil
	item.TrashReason = nil
	return nil
}

func (f *fakeModerationRepo) DeletePermanent(_ context.Context, id string) error {
	item, ok := f.items[id]
	if !ok || item.TrashedAt == nil {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeModerationRepo) ListPending(_ context.Context, _, _ int) ([]models.ModerationItem, int, error) {
	var out []models.ModerationItem
	for _, item := range f.items {
		if item.Status == models.StatusPending && item.TrashedAt == nil {
			out = append(out, *item)
		}
	}
	return out, len(out), nil
}

func (f *fakeModerationRepo) ListTrashed(_ context.Context) ([]models.ModerationItem, error) {
	var out []models.ModerationItem
	for _, item := range f.items {
		if item.TrashedAt != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeProfileLister struct{}

func (fakeProfileLister) List(_ context.Context, _ models.ProfileFilter) ([]models.Profile, int, error) {
	return nil, 0, nil
}

func tokensConfig() config.TokensConfig {
	return config.TokensConfig{
		WelcomeBonus:     15,
		MinMaterialAward: 3,
		MinBlogAward:     5,
		VideoAward:       3,
	}
}

type moderationFixture struct {
	svc         *ModerationService
	ledger      *fakeLedger
	materials   *fakeModerationRepo
	blogs       *fakeModerationRepo
	videos      *fakeModerationRepo
	marketplace *fakeModerationRepo
}

func newModerationFixture() moderationFixture {
	ledger := newFakeLedger()
	materials := newFakeModerationRepo()
	blogs := newFakeModerationRepo()
	videos := newFakeModerationRepo()
	marketplace := newFakeMarketplaceRepo()
	svc := NewModerationService(materials, blogs, videos, marketplace, fakeProfileLister{}, ledger, tokensConfig(), nil)
	return moderationFixture{svc: svc, ledger: ledger, materials: materials, blogs: blogs, videos: videos, marketplace: marketplace}
}

func TestApproveClampsMaterialAwardToFloor(t *testing.T) {
	fx := newModerationFixture()
	fx.materials.add("m1", "user-1", "Calculus Notes")

	item, err := fx.svc.Approve(context.Background(), models.KindMaterial, "m1", 1, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, item.Status)

	balance, _ := fx.ledger.Balance(context.Background(), "user-1")
	require.Equal(t, 3.0, balance)
}

func TestApproveVideoPaysFixedAmount(t *testing.T) {
	fx := newModerationFixture()
	fx.videos.add("v1", "user-1", "Lecture Recording")

	_, err := fx.svc.Approve(context.Background(), models.KindVideo, "v1", 40, "admin-1")
	require.NoError(t, err)

	balance, _ := fx.ledger.Balance(context.Background(), "user-1")
	require.Equal(t, 3.0, balance)
}

func TestApproveMarketplacePaysNothing(t *testing.T) {
	fx := newModerationFixture()
	fx.marketplace.add("l1", "user-1", "Used Textbook")

	item, err := fx.svc.Approve(context.Background(), models.KindMarketplace, "l1", 10, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, item.Status)

	balance, _ := fx.ledger.Balance(context.Background(), "user-1")
	require.Equal(t, 0.0, balance)
	require.Equal(t, 0, fx.ledger.transactionCount("user-1"))
}

func TestDoubleApproveAwardsOnce(t *testing.T) {
	fx := newModerationFixture()
	fx.blogs.add("b1", "user-1", "Study Tips")

	_, err := fx.svc.Approve(context.Background(), models.KindBlog, "b1", 7, "admin-1")
	require.NoError(t, err)

	_, err = fx.svc.Approve(context.Background(), models.KindBlog, "b1", 7, "admin-2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	balance, _ := fx.ledger.Balance(context.Background(), "user-1")
	require.Equal(t, 7.0, balance)
	require.Equal(t, 1, fx.ledger.transactionCount("user-1"))
}

func TestApproveUnknownIDIsNotFound(t *testing.T) {
	fx := newModerationFixture()

	_, err := fx.svc.Approve(context.Background(), models.KindMaterial, "missing", 5, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApproveUnknownKindIsRejected(t *testing.T) {
	fx := newModerationFixture()

	_, err := fx.svc.Approve(context.Background(), models.ContentKind("podcast"), "x", 5, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRejectTrashesSubmission(t *testing.T) {
	fx := newModerationFixture()
	fx.materials.add("m1", "user-1", "Bad Upload")

	item, err := fx.svc.Reject(context.Background(), models.KindMaterial, "m1", "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, item.Status)
	require.NotNil(t, item.TrashedAt)

	balance, _ := fx.ledger.Balance(context.Background(), "user-1")
	require.Equal(t, 0.0, balance)
}

func TestRestoreKeepsRejectedStatus(t *testing.T) {
	fx := newModerationFixture()
	fx.materials.add("m1", "user-1", "Bad Upload")

	_, err := fx.svc.Reject(context.Background(), models.KindMaterial, "m1", "admin-1")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Restore(context.Background(), models.KindMaterial, "m1"))
	require.Equal(t, models.StatusRejected, fx.materials.items["m1"].Status)
	require.Nil(t, fx.materials.items["m1"].TrashedAt)
}

func TestRecycleBinCoversAllKinds(t *testing.T) {
	fx := newModerationFixture()
	fx.materials.add("m1", "user-1", "Trashed Material")
	fx.blogs.add("b1", "user-1", "Trashed Blog")
	require.NoError(t, fx.svc.Trash(context.Background(), models.KindMaterial, "m1", ""))
	require.NoError(t, fx.svc.Trash(context.Background(), models.KindBlog, "b1", "spam"))

	bin, err := fx.svc.RecycleBin(context.Background())
	require.NoError(t, err)
	require.Len(t, bin.Content[models.KindMaterial], 1)
	require.Len(t, bin.Content[models.KindBlog], 1)
	require.Empty(t, bin.Content[models.KindVideo])
	require.Equal(t, "Removed by admin", *bin.Content[models.KindMaterial][0].TrashReason)
}

// Balance accumulates across the signup bonus and later approvals.
func TestWelcomeBonusThenApprovalAccumulates(t *testing.T) {
	ledger := newFakeLedger()
	repo := newFakeProfileRepo()
	auth := NewAuthService(repo, ledger, &fakeMail{}, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
		WelcomeBonus:       15,
	})

	resp, err := auth.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	blogs := newFakeModerationRepo()
	blogs.add("b1", resp.User.ID, "First Post")
	mod := NewModerationService(newFakeModerationRepo(), blogs, newFakeModerationRepo(), newFakeMarketplaceRepo(),
		fakeProfileLister{}, ledger, tokensConfig(), nil)

	_, err = mod.Approve(context.Background(), models.KindBlog, "b1", 7, "admin-1")
	require.NoError(t, err)

	balance, _ := ledger.Balance(context.Background(), resp.User.ID)
	require.Equal(t, 22.0, balance)
	require.Equal(t, 2, ledger.transactionCount(resp.User.ID))
}
