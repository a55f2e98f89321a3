package dto

import "github.com/globlecampus/campus-api/internal/models"

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Users       UserStatsSection        `json:"users"`
	Content     ContentStatsSection     `json:"content"`
	Tokens      TokenStatsSection       `json:"tokens"`
	Engagement  EngagementSection       `json:"engagement"`
	RecentItems []models.ModerationItem `json:"recent_submissions"`
	NewSignups  []models.Profile        `json:"recent_signups"`
}

// UserStatsSection summarises the user base.
type UserStatsSection struct {
	Total       int `json:"total"`
	NewLastWeek int `json:"new_last_week"`
	Admins      int `json:"admins"`
}

// ContentStatsSection counts submissions per kind and status.
type ContentStatsSection struct {
	Materials StatusCounts `json:"materials"`
	Blogs     StatusCounts `json:"blogs"`
	Videos    StatusCounts `json:"videos"`
	Listings  StatusCounts `json:"marketplace"`
}

// StatusCounts breaks a content kind down by moderation status.
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// TokenStatsSection totals the GC-Token economy.
type TokenStatsSection struct {
	TotalAwarded float64 `json:"total_awarded"`
	TotalSpent   float64 `json:"total_spent"`
}

// EngagementSection totals passive engagement counters.
type EngagementSection struct {
	TotalViews     int `json:"total_views"`
	TotalDownloads int `json:"total_downloads"`
}

// StudentDashboardResponse is the personalised member dashboard.
type StudentDashboardResponse struct {
	Balance            float64              `json:"gc_token_balance"`
	Materials          StatusCounts         `json:"materials"`
	Blogs              StatusCounts         `json:"blogs"`
	Videos             StatusCounts         `json:"videos"`
	Listings           StatusCounts         `json:"marketplace"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}
