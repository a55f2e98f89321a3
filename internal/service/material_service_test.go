package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type fakeMaterialRepo struct {
	materials map[string]*models.Material
	downloads map[string]int
	views     map[string]int
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{
		materials: make(map[string]*models.Material),
		downloads: make(map[string]int),
		views:     make(map[string]int),
	}
}

func (f *fakeMaterialRepo) Create(_ context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	f.materials[material.ID] = material
	return nil
}

func (f *fakeMaterialRepo) List(_ context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	var out []models.Material
	for _, m := range f.materials {
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && m.UserID != filter.UserID {
			continue
		}
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (f *fakeMaterialRepo) FindByID(_ context.Context, id string) (*models.Material, error) {
	if m, ok := f.materials[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMaterialRepo) IncrementViews(_ context.Context, id string) error {
	f.views[id]++
	return nil
}

func (f *fakeMaterialRepo) IncrementDownloads(_ context.Context, id string) error {
	f.downloads[id]++
	return nil
}

type fakeStore struct {
	saved []string
}

func (f *fakeStore) SaveStream(filename string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.saved = append(f.saved, filename)
	return filename, nil
}

type fakeSigner struct{}

func (fakeSigner) Generate(materialID, relPath string) (string, time.Time, error) {
	return "https://files.example/" + materialID, time.Now().Add(time.Hour), nil
}

func uploadsConfig() config.UploadsConfig {
	return config.UploadsConfig{
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"application/pdf"},
	}
}

func materialTokens() config.TokensConfig {
	return config.TokensConfig{OwnerDownloadPrice: 0.25, DownloadPrice: 0.5}
}

func newMaterialFixture() (*MaterialService, *fakeMaterialRepo, *fakeLedger) {
	repo := newFakeMaterialRepo()
	ledger := newFakeLedger()
	svc := NewMaterialService(repo, ledger, &fakeStore{}, fakeSigner{}, uploadsConfig(), materialTokens(), nil, nil)
	return svc, repo, ledger
}

func pdfUpload(size int64) UploadedFile {
	return UploadedFile{
		Name:        "notes.pdf",
		Size:        size,
		ContentType: "application/pdf",
		Reader:      strings.NewReader("pdf-bytes"),
	}
}

func TestUploadCreatesPendingMaterial(t *testing.T) {
	svc, repo, _ := newMaterialFixture()

	material, err := svc.Upload(context.Background(), "user-1", "Ana Silva", UploadMaterialRequest{
		Title:        "Calculus Notes",
		MaterialType: "notes",
		University:   "State University",
	}, pdfUpload(128))
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, material.Status)
	require.Equal(t, "user-1", material.UserID)
	require.Contains(t, repo.materials, material.ID)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _ := newMaterialFixture()

	_, err := svc.Upload(context.Background(), "user-1", "Ana", UploadMaterialRequest{
		Title:        "Big File",
		MaterialType: "notes",
	}, pdfUpload(4096))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadRejectsDisallowedMIME(t *testing.T) {
	svc, _, _ := newMaterialFixture()

	file := pdfUpload(128)
	file.ContentType = "application/x-msdownload"
	_, err := svc.Upload(context.Background(), "user-1", "Ana", UploadMaterialRequest{
		Title:        "Binary",
		MaterialType: "notes",
	}, file)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDownloadChargesFullPrice(t *testing.T) {
	svc, repo, ledger := newMaterialFixture()
	ledger.balances["buyer-1"] = 10
	repo.materials["m1"] = &models.Material{ID: "m1", UserID: "owner-1", Title: "Calculus Notes", Status: models.StatusApproved, FileURL: "materials/m1.pdf"}

	resp, err := svc.Download(context.Background(), "m1", "buyer-1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.URL)
	require.NotNil(t, resp.Charged)

	balance, _ := ledger.Balance(context.Background(), "buyer-1")
	require.Equal(t, 9.5, balance)
	require.Equal(t, 1, repo.downloads["m1"])
}

func TestDownloadChargesOwnerRate(t *testing.T) {
	svc, repo, ledger := newMaterialFixture()
	ledger.balances["owner-1"] = 10
	repo.materials["m1"] = &models.Material{ID: "m1", UserID: "owner-1", Title: "Calculus Notes", Status: models.StatusApproved, FileURL: "materials/m1.pdf"}

	_, err := svc.Download(context.Background(), "m1", "owner-1")
	require.NoError(t, err)

	balance, _ := ledger.Balance(context.Background(), "owner-1")
	require.Equal(t, 9.75, balance)
}

func TestDownloadInsufficientBalance(t *testing.T) {
	svc, repo, ledger := newMaterialFixture()
	ledger.balances["buyer-1"] = 0.1
	repo.materials["m1"] = &models.Material{ID: "m1", UserID: "owner-1", Title: "Calculus Notes", Status: models.StatusApproved}

	_, err := svc.Download(context.Background(), "m1", "buyer-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInsufficientTokens.Code, appErrors.FromError(err).Code)
	require.Zero(t, repo.downloads["m1"])
}

func TestDownloadPendingMaterialNotFound(t *testing.T) {
	svc, repo, ledger := newMaterialFixture()
	ledger.balances["buyer-1"] = 10
	repo.materials["m1"] = &models.Material{ID: "m1", UserID: "owner-1", Title: "Pending", Status: models.StatusPending}

	_, err := svc.Download(context.Background(), "m1", "buyer-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetCountsView(t *testing.T) {
	svc, repo, _ := newMaterialFixture()
	repo.materials["m1"] = &models.Material{ID: "m1", Title: "Calculus Notes", Status: models.StatusApproved}

	material, err := svc.Get(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, 1, material.Views)
	require.Equal(t, 1, repo.views["m1"])
}
