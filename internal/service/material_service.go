package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/repository"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type materialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
}

type tokenSpender interface {
	Spend(ctx context.Context, entry repository.LedgerEntry) (*models.Transaction, error)
}

type fileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

type downloadURLSigner interface {
	Generate(materialID, relPath string) (string, time.Time, error)
}

// UploadMaterialRequest carries the metadata of a multipart upload.
type UploadMaterialRequest struct {
	Title          string `json:"title" validate:"required"`
	Description    string `json:"description"`
	MaterialType   string `json:"material_type" validate:"required"`
	Course         string `json:"course"`
	Specialization string `json:"specialization"`
	Subject        string `json:"subject"`
	University     string `json:"university"`
	Language       string `json:"language"`
}

// UploadedFile describes the incoming file stream.
type UploadedFile struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// DownloadResponse returns a signed, time-limited file link.
type DownloadResponse struct {
	URL       string              `json:"url"`
	ExpiresAt time.Time           `json:"expires_at"`
	Charged   *models.Transaction `json:"charged,omitempty"`
}

// MaterialService handles study material use-cases.
type MaterialService struct {
	repo      materialRepository
	ledger    tokenSpender
	store     fileStore
	signer    downloadURLSigner
	uploads   config.UploadsConfig
	tokens    config.TokensConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs the material service.
func NewMaterialService(
	repo materialRepository,
	ledger tokenSpender,
	store fileStore,
	signer downloadURLSigner,
	uploads config.UploadsConfig,
	tokens config.TokensConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{
		repo:      repo,
		ledger:    ledger,
		store:     store,
		signer:    signer,
		uploads:   uploads,
		tokens:    tokens,
		validator: validate,
		logger:    logger,
	}
}

// Upload stores the file and creates a pending material row.
func (s *MaterialService) Upload(ctx context.Context, userID, uploaderName string, req UploadMaterialRequest, file UploadedFile) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if file.Reader == nil || file.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "material file is required")
	}
	if s.uploads.MaxFileSizeBytes > 0 && file.Size > s.uploads.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.uploads.MaxFileSizeBytes))
	}
	if len(s.uploads.AllowedMIMEs) > 0 && !mimeAllowed(s.uploads.AllowedMIMEs, file.ContentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", file.ContentType))
	}

	materialID := uuid.NewString()
	relPath := filepath.Join("materials", materialID+filepath.Ext(file.Name))
	stored, err := s.store.SaveStream(relPath, file.Reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	material := &models.Material{
		ID:             materialID,
		UserID:         userID,
		Title:          req.Title,
		Description:    req.Description,
		MaterialType:   req.MaterialType,
		Course:         req.Course,
		Specialization: req.Specialization,
		Subject:        req.Subject,
		University:     req.University,
		Language:       req.Language,
		UploadedBy:     uploaderName,
		FileURL:        stored,
		FileName:       file.Name,
		Status:         models.StatusPending,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// List returns approved materials for the public catalogue.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	filter.Status = models.StatusApproved
	filter.UserID = ""
	return s.list(ctx, filter)
}

// OwnList returns a user's materials in any status.
func (s *MaterialService) OwnList(ctx context.Context, userID string, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	filter.UserID = userID
	filter.Status = ""
	return s.list(ctx, filter)
}

func (s *MaterialService) list(ctx context.Context, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return materials, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one material and counts the view.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.TrashedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to count material view", zap.String("id", id), zap.Error(err))
	} else {
		material.Views++
	}
	return material, nil
}

// Download charges the caller and returns a signed link. Owners pay the
// reduced rate; everyone else pays the full download price.
func (s *MaterialService) Download(ctx context.Context, materialID, userID string) (*DownloadResponse, error) {
	material, err := s.repo.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.TrashedAt != nil || material.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material not available for download")
	}

	price := s.tokens.DownloadPrice
	if material.UserID == userID {
		price = s.tokens.OwnerDownloadPrice
	}

	var charged *models.Transaction
	if price > 0 {
		mid := material.ID
		charged, err = s.ledger.Spend(ctx, repository.LedgerEntry{
			UserID:      userID,
			Amount:      price,
			Description: "📥 Downloaded: " + material.Title,
			MaterialID:  &mid,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.IncrementDownloads(ctx, materialID); err != nil {
		s.logger.Warn("failed to count material download", zap.String("id", materialID), zap.Error(err))
	}

	url, expiresAt, err := s.signer.Generate(material.ID, material.FileURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &DownloadResponse{URL: url, ExpiresAt: expiresAt, Charged: charged}, nil
}

func mimeAllowed(allowed []string, contentType string) bool {
	base := contentType
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	for _, mime := range allowed {
		if strings.EqualFold(mime, base) {
			return true
		}
	}
	return false
}
