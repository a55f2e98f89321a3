package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/dto"
	"github.com/globlecampus/campus-api/pkg/config"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type fakeReportStats struct {
	uploadCalls int
	trunc       string
}

func (f *fakeReportStats) SignupsHistogram(_ context.Context, _ time.Time, trunc string) ([]dto.TimeBucket, error) {
	return []dto.TimeBucket{{Bucket: "2026-08-28", Count: 4}, {Bucket: "2026-08-29", Count: 6}}, nil
}

func (f *fakeReportStats) UploadsHistogram(_ context.Context, _ time.Time, trunc string) ([]dto.TimeBucket, error) {
	f.uploadCalls++
	f.trunc = trunc
	return []dto.TimeBucket{
		{Bucket: "2026-08-27", Count: 2},
		{Bucket: "2026-08-28", Count: 9},
		{Bucket: "2026-08-29", Count: 4},
	}, nil
}

func (f *fakeReportStats) TokenTotalsBetween(_ context.Context, _ time.Time) (float64, float64, error) {
	return 150, 40, nil
}

func (f *fakeReportStats) TotalsPerKind(_ context.Context) (map[string]int, error) {
	return map[string]int{"material": 30, "blog": 12, "video": 5, "marketplace": 3}, nil
}

func (f *fakeReportStats) TopUniversities(_ context.Context, _ int) ([]dto.UniversityCount, error) {
	return []dto.UniversityCount{{University: "State University", Count: 18}}, nil
}

func newReportFixture() (*ReportService, *fakeReportStats) {
	stats := &fakeReportStats{}
	svc := NewReportService(stats, newFakeCache(), config.DashboardConfig{ReportCacheTTL: time.Minute}, nil)
	return svc, stats
}

func TestBuildReportComputesDerivedFields(t *testing.T) {
	svc, _ := newReportFixture()

	report, err := svc.Build(context.Background(), dto.Range7Days)
	require.NoError(t, err)
	require.Equal(t, dto.Range7Days, report.Range)
	require.Equal(t, 150.0, report.TokensEarned)
	require.Equal(t, "2026-08-28", report.PeakDay)
	require.Equal(t, 5.0, report.AvgDailyUploads)
	require.Equal(t, 30, report.TotalsPerKind["material"])
}

func TestBuildReportCaches(t *testing.T) {
	svc, stats := newReportFixture()

	_, err := svc.Build(context.Background(), dto.Range30Days)
	require.NoError(t, err)
	_, err = svc.Build(context.Background(), dto.Range30Days)
	require.NoError(t, err)
	require.Equal(t, 1, stats.uploadCalls)
}

func TestBuildReportTwelveMonthUsesMonthBuckets(t *testing.T) {
	svc, stats := newReportFixture()

	_, err := svc.Build(context.Background(), dto.Range12Month)
	require.NoError(t, err)
	require.Equal(t, "month", stats.trunc)
}

func TestBuildReportUnknownRange(t *testing.T) {
	svc, _ := newReportFixture()

	_, err := svc.Build(context.Background(), dto.ReportRange("90d"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportCSV(t *testing.T) {
	svc, _ := newReportFixture()

	data, contentType, filename, err := svc.Export(context.Background(), dto.Range7Days, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)
	require.True(t, strings.HasPrefix(filename, "platform-report-7d-"))

	body := string(data)
	require.True(t, strings.HasPrefix(body, "section,metric,value"))
	require.Contains(t, body, "universities,State University,18")
}

func TestExportUnknownFormat(t *testing.T) {
	svc, _ := newReportFixture()

	_, _, _, err := svc.Export(context.Background(), dto.Range7Days, ExportFormat("xlsx"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSummariseUploadsEmpty(t *testing.T) {
	peak, avg := summariseUploads(nil)
	require.Empty(t, peak)
	require.Zero(t, avg)
}
