package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/export"
)

const cacheKeyReport = "report:"

type reportStatsRepository interface {
	SignupsHistogram(ctx context.Context, since time.Time, trunc string) ([]dto.TimeBucket, error)
	UploadsHistogram(ctx context.Context, since time.Time, trunc string) ([]dto.TimeBucket, error)
	TokenTotalsBetween(ctx context.Context, since time.Time) (earned, spent float64, err error)
	TotalsPerKind(ctx context.Context) (map[string]int, error)
	TopUniversities(ctx context.Context, limit int) ([]dto.UniversityCount, error)
}

// ExportFormat selects the report download encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ReportService builds the admin analytics report and its file exports.
type ReportService struct {
	stats  reportStatsRepository
	cache  cacheStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	ttl    time.Duration
	logger *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(stats reportStatsRepository, cache cacheStore, cfg config.DashboardConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.ReportCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReportService{
		stats:  stats,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		ttl:    ttl,
		logger: logger,
	}
}

// Build assembles the platform report for one window. The 12 month window
// buckets by month, the short windows by day.
func (s *ReportService) Build(ctx context.Context, rng dto.ReportRange) (*dto.PlatformReport, error) {
	since, trunc, err := rangeWindow(rng)
	if err != nil {
		return nil, err
	}

	key := cacheKeyReport + string(rng)
	var cached dto.PlatformReport
	if cacheErr := s.cache.Get(ctx, key, &cached); cacheErr == nil {
		return &cached, nil
	} else if !errors.Is(cacheErr, appErrors.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.Error(cacheErr))
	}

	report := &dto.PlatformReport{Range: rng}
	if report.SignupsPerDay, err = s.stats.SignupsHistogram(ctx, since, trunc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	if report.UploadsPerDay, err = s.stats.UploadsHistogram(ctx, since, trunc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	if report.TokensEarned, report.TokensSpent, err = s.stats.TokenTotalsBetween(ctx, since); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	if report.TotalsPerKind, err = s.stats.TotalsPerKind(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	if report.TopUniversities, err = s.stats.TopUniversities(ctx, 5); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}
	report.PeakDay, report.AvgDailyUploads = summariseUploads(report.UploadsPerDay)

	if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
	return report, nil
}

// Export renders the report as a downloadable file.
func (s *ReportService) Export(ctx context.Context, rng dto.ReportRange, format ExportFormat) (data []byte, contentType, filename string, err error) {
	report, err := s.Build(ctx, rng)
	if err != nil {
		return nil, "", "", err
	}
	dataset := reportDataset(report)
	stamp := time.Now().UTC().Format("2006-01-02")

	switch format {
	case FormatCSV:
		data, err = s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
		}
		return data, "text/csv", fmt.Sprintf("platform-report-%s-%s.csv", rng, stamp), nil
	case FormatPDF:
		data, err = s.pdf.Render(dataset, fmt.Sprintf("Platform Report (%s)", rng))
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
		}
		return data, "application/pdf", fmt.Sprintf("platform-report-%s-%s.pdf", rng, stamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}
}

func rangeWindow(rng dto.ReportRange) (since time.Time, trunc string, err error) {
	now := time.Now().UTC()
	switch rng {
	case dto.Range7Days:
		return now.AddDate(0, 0, -7), "day", nil
	case dto.Range30Days:
		return now.AddDate(0, 0, -30), "day", nil
	case dto.Range12Month:
		return now.AddDate(-1, 0, 0), "month", nil
	default:
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report range %q", rng))
	}
}

func summariseUploads(buckets []dto.TimeBucket) (peakDay string, avg float64) {
	if len(buckets) == 0 {
		return "", 0
	}
	total := 0
	peak := buckets[0]
	for _, b := range buckets {
		total += b.Count
		if b.Count > peak.Count {
			peak = b
		}
	}
	return peak.Bucket, float64(total) / float64(len(buckets))
}

func reportDataset(report *dto.PlatformReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.UploadsPerDay)+len(report.TopUniversities)+8)
	add := func(section, metric, value string) {
		rows = append(rows, map[string]string{"section": section, "metric": metric, "value": value})
	}

	add("tokens", "earned", strconv.FormatFloat(report.TokensEarned, 'f', 2, 64))
	add("tokens", "spent", strconv.FormatFloat(report.TokensSpent, 'f', 2, 64))
	for _, kind := range []string{"material", "blog", "video", "marketplace"} {
		add("content", kind, strconv.Itoa(report.TotalsPerKind[kind]))
	}
	add("uploads", "peak_day", report.PeakDay)
	add("uploads", "avg_daily", strconv.FormatFloat(report.AvgDailyUploads, 'f', 2, 64))
	for _, b := range report.SignupsPerDay {
		add("signups", b.Bucket, strconv.Itoa(b.Count))
	}
	for _, b := range report.UploadsPerDay {
		add("uploads", b.Bucket, strconv.Itoa(b.Count))
	}
	for _, u := range report.TopUniversities {
		add("universities", u.University, strconv.Itoa(u.Count))
	}

	return export.Dataset{Headers: []string{"section", "metric", "value"}, Rows: rows}
}
