package models

import "time"

// SupportUrgency grades how quickly a premium query needs attention.
type SupportUrgency string

const (
	UrgencyLow    SupportUrgency = "low"
	UrgencyNormal SupportUrgency = "normal"
	UrgencyUrgent SupportUrgency = "urgent"
)

// SupportStatus tracks the admin answer lifecycle.
type SupportStatus string

const (
	SupportPending  SupportStatus = "pending"
	SupportAnswered SupportStatus = "answered"
)

// SupportQuery is a premium support request.
type SupportQuery struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	UserEmail     string         `db:"user_email" json:"user_email"`
	UserName      string         `db:"user_name" json:"user_name"`
	Subject       string         `db:"subject" json:"subject"`
	Course        string         `db:"course" json:"course"`
	Topic         string         `db:"topic" json:"topic"`
	Urgency       SupportUrgency `db:"urgency" json:"urgency"`
	Description   string         `db:"description" json:"description"`
	Status        SupportStatus  `db:"status" json:"status"`
	AdminResponse *string        `db:"admin_response" json:"admin_response,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// ContactQuery is a public contact-form submission.
type ContactQuery struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
