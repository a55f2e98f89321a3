package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

const bulkImportBatchSize = 25

type bulkMaterialInserter interface {
	BulkInsert(ctx context.Context, materials []models.Material) error
}

// BulkImportService loads admin-curated material catalogues in batches.
// Rows are validated individually; a bad row is skipped, a failed batch is
// reported without aborting the run.
type BulkImportService struct {
	materials bulkMaterialInserter
	logger    *zap.Logger
}

// NewBulkImportService constructs a BulkImportService.
func NewBulkImportService(materials bulkMaterialInserter, logger *zap.Logger) *BulkImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkImportService{materials: materials, logger: logger}
}

// Import inserts the rows as pre-approved materials owned by the admin.
func (s *BulkImportService) Import(ctx context.Context, adminID string, rows []dto.BulkImportRow) (*dto.BulkImportResult, error) {
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no rows to import")
	}

	result := &dto.BulkImportResult{}
	batch := make([]models.Material, 0, bulkImportBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.materials.BulkInsert(ctx, batch); err != nil {
			s.logger.Error("bulk import batch failed", zap.Int("size", len(batch)), zap.Error(err))
			result.BatchErrors = append(result.BatchErrors, fmt.Sprintf("batch of %d failed: %v", len(batch), err))
		} else {
			result.Inserted += len(batch)
		}
		batch = batch[:0]
	}

	for _, row := range rows {
		if !validImportRow(row) {
			result.Skipped++
			continue
		}
		batch = append(batch, models.Material{
			UserID:       adminID,
			Title:        row.Title,
			Description:  row.Description,
			MaterialType: row.MaterialType,
			Course:       row.Course,
			Subject:      row.Subject,
			University:   row.University,
			Language:     row.Language,
			UploadedBy:   row.UploadedBy,
			FileURL:      row.FileURL,
			FileName:     row.FileName,
			Status:       models.StatusApproved,
		})
		if len(batch) == bulkImportBatchSize {
			flush()
		}
	}
	flush()

	s.logger.Info("bulk import finished",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed_batches", len(result.BatchErrors)))
	return result, nil
}

// validImportRow requires a title and an https file link.
func validImportRow(row dto.BulkImportRow) bool {
	if strings.TrimSpace(row.Title) == "" {
		return false
	}
	return strings.HasPrefix(row.FileURL, "https://")
}
