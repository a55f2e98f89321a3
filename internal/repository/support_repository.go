package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/globlecampus/campus-api/internal/models"
)

const supportColumns = `id, user_id, user_email, user_name, subject, course, topic, urgency, description,
    status, admin_response, created_at`

// SupportRepository persists premium support and contact queries.
type SupportRepository struct {
	db *sqlx.DB
}

// NewSupportRepository constructs a SupportRepository.
func NewSupportRepository(db *sqlx.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// CreateQuery inserts a premium support query.
func (r *SupportRepository) CreateQuery(ctx context.Context, query *models.SupportQuery) error {
	if query.ID == "" {
		query.ID = uuid.NewString()
	}
	if query.Status == "" {
		query.Status = models.SupportPending
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO support_queries (id, user_id, user_email, user_name, subject, course, topic, urgency,
        description, status, created_at)
        VALUES (:id, :user_id, :user_email, :user_name, :subject, :course, :topic, :urgency,
        :description, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, query); err != nil {
		return fmt.Errorf("create support query: %w", err)
	}
	return nil
}

// ListByUser returns a user's own support queries newest-first.
func (r *SupportRepository) ListByUser(ctx context.Context, userID string) ([]models.SupportQuery, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM support_queries WHERE user_id = $1 ORDER BY created_at DESC`, supportColumns)
	var queries []models.SupportQuery
	if err := r.db.SelectContext(ctx, &queries, stmt, userID); err != nil {
		return nil, fmt.Errorf("list support queries: %w", err)
	}
	return queries, nil
}

// ListAll returns every support query, optionally restricted by status.
func (r *SupportRepository) ListAll(ctx context.Context, status *models.SupportStatus) ([]models.SupportQuery, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM support_queries`, supportColumns)
	var args []interface{}
	if status != nil {
		stmt += " WHERE status = $1"
		args = append(args, *status)
	}
	stmt += " ORDER BY created_at DESC"
	var queries []models.SupportQuery
	if err := r.db.SelectContext(ctx, &queries, stmt, args...); err != nil {
		return nil, fmt.Errorf("list all support queries: %w", err)
	}
	return queries, nil
}

// FindQueryByID fetches a support query.
func (r *SupportRepository) FindQueryByID(ctx context.Context, id string) (*models.SupportQuery, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM support_queries WHERE id = $1 LIMIT 1`, supportColumns)
	var query models.SupportQuery
	if err := r.db.GetContext(ctx, &query, stmt, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find support query: %w", err)
	}
	return &query, nil
}

// Respond records the admin answer and marks the query answered.
func (r *SupportRepository) Respond(ctx context.Context, id, response string) error {
	const stmt = `UPDATE support_queries SET status = $2, admin_response = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, stmt, id, models.SupportAnswered, response)
	if err != nil {
		return fmt.Errorf("respond to support query: %w", err)
	}
	return requireRowAffected(result, "respond to support query")
}

// CreateContact inserts a contact-form submission.
func (r *SupportRepository) CreateContact(ctx context.Context, contact *models.ContactQuery) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}
	const stmt = `INSERT INTO contact_queries (id, name, email, message, created_at)
        VALUES (:id, :name, :email, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, stmt, contact); err != nil {
		return fmt.Errorf("create contact query: %w", err)
	}
	return nil
}

// ListContacts returns contact-form submissions newest-first.
func (r *SupportRepository) ListContacts(ctx context.Context) ([]models.ContactQuery, error) {
	const stmt = `SELECT id, name, email, message, created_at FROM contact_queries ORDER BY created_at DESC`
	var contacts []models.ContactQuery
	if err := r.db.SelectContext(ctx, &contacts, stmt); err != nil {
		return nil, fmt.Errorf("list contact queries: %w", err)
	}
	return contacts, nil
}
