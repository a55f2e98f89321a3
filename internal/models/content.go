package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ContentKind enumerates the moderated content families.
type ContentKind string

const (
	KindMaterial    ContentKind = "material"
	KindBlog        ContentKind = "blog"
	KindVideo       ContentKind = "video"
	KindMarketplace ContentKind = "marketplace"
)

// ParseContentKind validates a kind coming from a URL segment.
func ParseContentKind(raw string) (ContentKind, error) {
	switch ContentKind(raw) {
	case KindMaterial, KindBlog, KindVideo, KindMarketplace:
		return ContentKind(raw), nil
	default:
		return "", fmt.Errorf("unknown content kind %q", raw)
	}
}

// ContentStatus is the moderation state of a submission.
type ContentStatus string

const (
	StatusPending  ContentStatus = "pending"
	StatusApproved ContentStatus = "approved"
	StatusRejected ContentStatus = "rejected"
	// StatusActive is the approved state for marketplace listings.
	StatusActive ContentStatus = "active"
)

// Material is an uploaded study resource.
type Material struct {
	ID            string        `db:"id" json:"id"`
	UserID        string        `db:"user_id" json:"user_id"`
	Title         string        `db:"title" json:"title"`
	Description   string        `db:"description" json:"description"`
	MaterialType  string        `db:"material_type" json:"material_type"`
	Course        string        `db:"course" json:"course"`
	Specialization string       `db:"specialization" json:"specialization"`
	Subject       string        `db:"subject" json:"subject"`
	University    string        `db:"university" json:"university"`
	Language      string        `db:"language" json:"language"`
	UploadedBy    string        `db:"uploaded_by" json:"uploaded_by"`
	FileURL       string        `db:"file_url" json:"file_url"`
	FileName      string        `db:"file_name" json:"file_name"`
	Status        ContentStatus `db:"status" json:"status"`
	TokensAwarded float64       `db:"gc_tokens_awarded" json:"gc_tokens_awarded"`
	Views         int           `db:"views" json:"views"`
	Downloads     int           `db:"downloads" json:"downloads"`
	ReviewedAt    *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	TrashedAt     *time.Time    `db:"trashed_at" json:"trashed_at,omitempty"`
	TrashReason   *string       `db:"trash_reason" json:"trash_reason,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// MaterialFilter narrows public material listings.
type MaterialFilter struct {
	Course     string
	Subject    string
	University string
	Search     string
	Status     ContentStatus
	UserID     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Blog is a written article submission.
type Blog struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	AuthorName    string         `db:"author_name" json:"author_name"`
	Title         string         `db:"title" json:"title"`
	Excerpt       string         `db:"excerpt" json:"excerpt"`
	Content       string         `db:"content" json:"content"`
	Category      string         `db:"category" json:"category"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	Status        ContentStatus  `db:"status" json:"status"`
	TokensAwarded float64        `db:"gc_tokens_awarded" json:"gc_tokens_awarded"`
	Views         int            `db:"views" json:"views"`
	ReviewedAt    *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	TrashedAt     *time.Time     `db:"trashed_at" json:"trashed_at,omitempty"`
	TrashReason   *string        `db:"trash_reason" json:"trash_reason,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// BlogFilter narrows public blog listings.
type BlogFilter struct {
	Category  string
	Tag       string
	Search    string
	Status    ContentStatus
	UserID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Video is a submitted video link.
type Video struct {
	ID            string        `db:"id" json:"id"`
	UserID        string        `db:"user_id" json:"user_id"`
	Title         string        `db:"title" json:"title"`
	Description   string        `db:"description" json:"description"`
	VideoURL      string        `db:"video_url" json:"video_url"`
	ThumbnailURL  string        `db:"thumbnail_url" json:"thumbnail_url"`
	Category      string        `db:"category" json:"category"`
	Status        ContentStatus `db:"status" json:"status"`
	TokensAwarded float64       `db:"gc_tokens_awarded" json:"gc_tokens_awarded"`
	Views         int           `db:"views" json:"views"`
	ReviewedAt    *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	TrashedAt     *time.Time    `db:"trashed_at" json:"trashed_at,omitempty"`
	TrashReason   *string       `db:"trash_reason" json:"trash_reason,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// VideoFilter narrows public video listings.
type VideoFilter struct {
	Category  string
	Search    string
	Status    ContentStatus
	UserID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// MarketplaceItem is a listing offered by a user.
type MarketplaceItem struct {
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"user_id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Price       float64       `db:"price" json:"price"`
	Type        string        `db:"type" json:"type"`
	Category    string        `db:"category" json:"category"`
	ImageURL    string        `db:"image_url" json:"image_url"`
	ContactInfo string        `db:"contact_info" json:"contact_info"`
	Status      ContentStatus `db:"status" json:"status"`
	ReviewedAt  *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	TrashedAt   *time.Time    `db:"trashed_at" json:"trashed_at,omitempty"`
	TrashReason *string       `db:"trash_reason" json:"trash_reason,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// MarketplaceFilter narrows marketplace listings.
type MarketplaceFilter struct {
	Category  string
	Type      string
	Search    string
	Status    ContentStatus
	UserID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ModerationItem is the kind-agnostic view used by approval queues and the
// recycle bin.
type ModerationItem struct {
	Kind        ContentKind   `db:"-" json:"kind"`
	ID          string        `db:"id" json:"id"`
	UserID      string        `db:"user_id" json:"user_id"`
	Title       string        `db:"title" json:"title"`
	Status      ContentStatus `db:"status" json:"status"`
	TrashedAt   *time.Time    `db:"trashed_at" json:"trashed_at,omitempty"`
	TrashReason *string       `db:"trash_reason" json:"trash_reason,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
