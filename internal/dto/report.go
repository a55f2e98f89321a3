package dto

// ReportRange selects the report window.
type ReportRange string

const (
	Range7Days   ReportRange = "7d"
	Range30Days  ReportRange = "30d"
	Range12Month ReportRange = "12mo"
)

// TimeBucket is one histogram point (day or month resolution).
type TimeBucket struct {
	Bucket string `db:"bucket" json:"bucket"`
	Count  int    `db:"count" json:"count"`
}

// UniversityCount ranks universities by approved material volume.
type UniversityCount struct {
	University string `db:"university" json:"university"`
	Count      int    `db:"count" json:"count"`
}

// PlatformReport is the admin analytics payload.
type PlatformReport struct {
	Range           ReportRange       `json:"range"`
	SignupsPerDay   []TimeBucket      `json:"signups_per_day"`
	UploadsPerDay   []TimeBucket      `json:"uploads_per_day"`
	TokensEarned    float64           `json:"tokens_earned"`
	TokensSpent     float64           `json:"tokens_spent"`
	TotalsPerKind   map[string]int    `json:"totals_per_kind"`
	TopUniversities []UniversityCount `json:"top_universities"`
	PeakDay         string            `json:"peak_day"`
	AvgDailyUploads float64           `json:"avg_daily_uploads"`
}

// BulkImportRow is one material row in an admin bulk import payload.
type BulkImportRow struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	MaterialType string `json:"material_type"`
	Course       string `json:"course"`
	Subject      string `json:"subject"`
	University   string `json:"university"`
	Language     string `json:"language"`
	UploadedBy   string `json:"uploaded_by"`
	FileURL      string `json:"file_url"`
	FileName     string `json:"file_name"`
}

// BulkImportResult reports the outcome of a bulk import run.
type BulkImportResult struct {
	Inserted    int      `json:"inserted"`
	Skipped     int      `json:"skipped"`
	BatchErrors []string `json:"batch_errors,omitempty"`
}
