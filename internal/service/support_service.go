package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/mailer"
)

type supportRepository interface {
	CreateQuery(ctx context.Context, query *models.SupportQuery) error
	ListByUser(ctx context.Context, userID string) ([]models.SupportQuery, error)
	ListAll(ctx context.Context, status *models.SupportStatus) ([]models.SupportQuery, error)
	FindQueryByID(ctx context.Context, id string) (*models.SupportQuery, error)
	Respond(ctx context.Context, id, response string) error
	CreateContact(ctx context.Context, contact *models.ContactQuery) error
	ListContacts(ctx context.Context) ([]models.ContactQuery, error)
}

type balanceReader interface {
	Balance(ctx context.Context, userID string) (float64, error)
}

// SupportQueryRequest is the premium support form payload.
type SupportQueryRequest struct {
	Subject     string                `json:"subject" validate:"required"`
	Course      string                `json:"course"`
	Topic       string                `json:"topic"`
	Urgency     models.SupportUrgency `json:"urgency" validate:"omitempty,oneof=low normal urgent"`
	Description string                `json:"description" validate:"required"`
}

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// SupportService handles the premium help desk and the public contact form.
// Premium support is gated on token balance; both flows relay a copy to the
// admin inbox.
type SupportService struct {
	repo             supportRepository
	ledger           balanceReader
	mail             mailDispatcher
	premiumThreshold float64
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewSupportService constructs a SupportService.
func NewSupportService(repo supportRepository, ledger balanceReader, mail mailDispatcher, premiumThreshold float64, validate *validator.Validate, logger *zap.Logger) *SupportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportService{
		repo:             repo,
		ledger:           ledger,
		mail:             mail,
		premiumThreshold: premiumThreshold,
		validator:        validate,
		logger:           logger,
	}
}

// CreateQuery files a premium support request. Callers below the balance
// threshold are turned away without touching their tokens.
func (s *SupportService) CreateQuery(ctx context.Context, user models.UserInfo, req SupportQueryRequest) (*models.SupportQuery, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid support payload")
	}
	balance, err := s.ledger.Balance(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read balance")
	}
	if balance < s.premiumThreshold {
		return nil, appErrors.Clone(appErrors.ErrForbidden,
			fmt.Sprintf("premium support requires a balance of at least %.0f GC-Tokens", s.premiumThreshold))
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = models.UrgencyNormal
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	query := &models.SupportQuery{
		UserID:      user.ID,
		UserEmail:   user.Email,
		UserName:    name,
		Subject:     req.Subject,
		Course:      req.Course,
		Topic:       req.Topic,
		Urgency:     urgency,
		Description: req.Description,
	}
	if err := s.repo.CreateQuery(ctx, query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create support query")
	}

	if s.mail.Configured() {
		html, renderErr := mailer.RenderSupportRelay(mailer.RelayData{
			Name:    name,
			Email:   user.Email,
			Subject: req.Subject,
			Body:    req.Description,
			Balance: balance,
		})
		if renderErr != nil {
			s.logger.Warn("failed to render support relay", zap.Error(renderErr))
		} else if err := s.mail.EnqueueToAdmin("Premium support: "+req.Subject, html); err != nil {
			s.logger.Warn("failed to queue support relay", zap.Error(err))
		}
	}
	return query, nil
}

// ListByUser returns the caller's own support history.
func (s *SupportService) ListByUser(ctx context.Context, userID string) ([]models.SupportQuery, error) {
	queries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support queries")
	}
	return queries, nil
}

// ListAll is the admin help desk view.
func (s *SupportService) ListAll(ctx context.Context, status *models.SupportStatus) ([]models.SupportQuery, error) {
	queries, err := s.repo.ListAll(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list support queries")
	}
	return queries, nil
}

// Respond records an admin answer.
func (s *SupportService) Respond(ctx context.Context, id, response string) (*models.SupportQuery, error) {
	if response == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "response is required")
	}
	if err := s.repo.Respond(ctx, id, response); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "support query not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record response")
	}
	query, err := s.repo.FindQueryByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load support query")
	}
	return query, nil
}

// CreateContact files a public contact form submission and relays it.
func (s *SupportService) CreateContact(ctx context.Context, req ContactRequest) (*models.ContactQuery, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}
	contact := &models.ContactQuery{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contact query")
	}

	if s.mail.Configured() {
		html, renderErr := mailer.RenderContactRelay(mailer.RelayData{
			Name:  req.Name,
			Email: req.Email,
			Body:  req.Message,
		})
		if renderErr != nil {
			s.logger.Warn("failed to render contact relay", zap.Error(renderErr))
		} else if err := s.mail.EnqueueToAdmin("Contact form: "+req.Name, html); err != nil {
			s.logger.Warn("failed to queue contact relay", zap.Error(err))
		}
	}
	return contact, nil
}

// ListContacts is the admin contact inbox.
func (s *SupportService) ListContacts(ctx context.Context) ([]models.ContactQuery, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contact queries")
	}
	return contacts, nil
}
