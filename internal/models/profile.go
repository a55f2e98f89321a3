package models

import "time"

// ProfileRole distinguishes the two account flavours.
type ProfileRole string

const (
	RoleStudent      ProfileRole = "student"
	RoleProfessional ProfileRole = "professional"
)

// Profile represents an account stored in the profiles table. Student-only
// and professional-only fields are nullable and populated per role.
type Profile struct {
	ID             string      `db:"id" json:"id"`
	Email          string      `db:"email" json:"email"`
	PasswordHash   string      `db:"password_hash" json:"-"`
	FirstName      string      `db:"first_name" json:"first_name"`
	LastName       string      `db:"last_name" json:"last_name"`
	Role           ProfileRole `db:"role" json:"role"`
	About          *string     `db:"about" json:"about,omitempty"`
	Country        *string     `db:"country" json:"country,omitempty"`
	State          *string     `db:"state" json:"state,omitempty"`
	College        *string     `db:"college" json:"college,omitempty"`
	Specialization *string     `db:"specialization" json:"specialization,omitempty"`
	Skills         *string     `db:"skills" json:"skills,omitempty"`
	Company        *string     `db:"company" json:"company,omitempty"`
	JobRole        *string     `db:"job_role" json:"job_role,omitempty"`
	TokenBalance   float64     `db:"gc_token_balance" json:"gc_token_balance"`
	IsAdmin        bool        `db:"is_admin" json:"is_admin"`
	TrashedAt      *time.Time  `db:"trashed_at" json:"trashed_at,omitempty"`
	TrashReason    *string     `db:"trash_reason" json:"trash_reason,omitempty"`
	LastLogin      *time.Time  `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Trashed reports whether the profile sits in the recycle bin.
func (p *Profile) Trashed() bool {
	return p.TrashedAt != nil
}

// FullName joins first and last name for display and email templates.
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ProfileFilter captures admin user listing criteria.
type ProfileFilter struct {
	Role      *ProfileRole
	Search    string
	Trashed   *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// LeaderboardEntry is a public slice of a profile ranked by token balance.
type LeaderboardEntry struct {
	ID           string      `db:"id" json:"id"`
	FirstName    string      `db:"first_name" json:"first_name"`
	LastName     string      `db:"last_name" json:"last_name"`
	Role         ProfileRole `db:"role" json:"role"`
	College      *string     `db:"college" json:"college,omitempty"`
	TokenBalance float64     `db:"gc_token_balance" json:"gc_token_balance"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
