package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/internal/models"
)

type fakeBulkInserter struct {
	batches [][]models.Material
	failOn  int
}

func (f *fakeBulkInserter) BulkInsert(_ context.Context, materials []models.Material) error {
	batch := make([]models.Material, len(materials))
	copy(batch, materials)
	f.batches = append(f.batches, batch)
	if f.failOn > 0 && len(f.batches) == f.failOn {
		return errors.New("insert failed")
	}
	return nil
}

func importRows(n int) []dto.BulkImportRow {
	rows := make([]dto.BulkImportRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, dto.BulkImportRow{
			Title:   fmt.Sprintf("Material %d", i),
			FileURL: "https://cdn.example/materials/file.pdf",
		})
	}
	return rows
}

func TestImportSplitsIntoBatches(t *testing.T) {
	inserter := &fakeBulkInserter{}
	svc := NewBulkImportService(inserter, nil)

	result, err := svc.Import(context.Background(), "admin-1", importRows(60))
	require.NoError(t, err)
	require.Equal(t, 60, result.Inserted)
	require.Zero(t, result.Skipped)
	require.Len(t, inserter.batches, 3)
	require.Len(t, inserter.batches[0], 25)
	require.Len(t, inserter.batches[1], 25)
	require.Len(t, inserter.batches[2], 10)

	for _, m := range inserter.batches[0] {
		require.Equal(t, "admin-1", m.UserID)
		require.Equal(t, models.StatusApproved, m.Status)
	}
}

func TestImportSkipsInvalidRows(t *testing.T) {
	inserter := &fakeBulkInserter{}
	svc := NewBulkImportService(inserter, nil)

	rows := importRows(3)
	rows = append(rows,
		dto.BulkImportRow{Title: "No URL"},
		dto.BulkImportRow{Title: "Plain HTTP", FileURL: "http://cdn.example/file.pdf"},
		dto.BulkImportRow{Title: "   ", FileURL: "https://cdn.example/file.pdf"},
	)

	result, err := svc.Import(context.Background(), "admin-1", rows)
	require.NoError(t, err)
	require.Equal(t, 3, result.Inserted)
	require.Equal(t, 3, result.Skipped)
}

func TestImportReportsFailedBatchAndContinues(t *testing.T) {
	inserter := &fakeBulkInserter{failOn: 1}
	svc := NewBulkImportService(inserter, nil)

	result, err := svc.Import(context.Background(), "admin-1", importRows(30))
	require.NoError(t, err)
	require.Equal(t, 5, result.Inserted)
	require.Len(t, result.BatchErrors, 1)
	require.Len(t, inserter.batches, 2)
}

func TestImportEmptyPayload(t *testing.T) {
	svc := NewBulkImportService(&fakeBulkInserter{}, nil)

	_, err := svc.Import(context.Background(), "admin-1", nil)
	require.Error(t, err)
}
