package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type fakeSupportRepo struct {
	queries  map[string]*models.SupportQuery
	contacts []models.ContactQuery
}

func newFakeSupportRepo() *fakeSupportRepo {
	return &fakeSupportRepo{queries: make(map[string]*models.SupportQuery)}
}

func (f *fakeSupportRepo) CreateQuery(_ context.Context, query *models.SupportQuery) error {
	if query.ID == "" {
		query.ID = uuid.NewString()
	}
	if query.Status == "" {
		query.Status = models.SupportPending
	}
	f.queries[query.ID] = query
	return nil
}

func (f *fakeSupportRepo) ListByUser(_ context.Context, userID string) ([]models.SupportQuery, error) {
	var out []models.SupportQuery
	for _, q := range f.queries {
		if q.UserID == userID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeSupportRepo) ListAll(_ context.Context, status *models.SupportStatus) ([]models.SupportQuery, error) {
	var out []models.SupportQuery
	for _, q := range f.queries {
		if status != nil && q.Status != *status {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeSupportRepo) FindQueryByID(_ context.Context, id string) (*models.SupportQuery, error) {
	if q, ok := f.queries[id]; ok {
		copied := *q
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupportRepo) Respond(_ context.Context, id, response string) error {
	q, ok := f.queries[id]
	if !ok {
		return sql.ErrNoRows
	}
	q.Status = models.SupportAnswered
	q.AdminResponse = &response
	return nil
}

func (f *fakeSupportRepo) CreateContact(_ context.Context, contact *models.ContactQuery) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	f.contacts = append(f.contacts, *contact)
	return nil
}

func (f *fakeSupportRepo) ListContacts(_ context.Context) ([]models.ContactQuery, error) {
	return f.contacts, nil
}

func premiumUser() models.UserInfo {
	return models.UserInfo{ID: "user-1", Email: "ana@example.com", FirstName: "Ana", LastName: "Silva", Role: models.RoleStudent}
}

func supportRequest() SupportQueryRequest {
	return SupportQueryRequest{Subject: "Exam prep", Description: "Need help with integrals"}
}

func newSupportFixture(balance float64) (*SupportService, *fakeSupportRepo, *fakeMail) {
	repo := newFakeSupportRepo()
	ledger := newFakeLedger()
	ledger.balances["user-1"] = balance
	mail := &fakeMail{configured: true}
	svc := NewSupportService(repo, ledger, mail, 50, nil, nil)
	return svc, repo, mail
}

func TestCreateQueryBelowThresholdForbidden(t *testing.T) {
	svc, repo, mail := newSupportFixture(49.5)

	_, err := svc.CreateQuery(context.Background(), premiumUser(), supportRequest())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	require.Empty(t, repo.queries)
	require.Empty(t, mail.adminMail)
}

func TestCreateQueryAtThresholdSucceeds(t *testing.T) {
	svc, repo, mail := newSupportFixture(50)

	query, err := svc.CreateQuery(context.Background(), premiumUser(), supportRequest())
	require.NoError(t, err)
	require.Equal(t, models.SupportPending, query.Status)
	require.Equal(t, models.UrgencyNormal, query.Urgency)
	require.Equal(t, "Ana Silva", query.UserName)
	require.Len(t, repo.queries, 1)

	// Filing a query never spends tokens, only gates on them.
	require.Len(t, mail.adminMail, 1)
	require.Contains(t, mail.adminMail[0].Subject, "Exam prep")
}

func TestRespondMarksAnswered(t *testing.T) {
	svc, repo, _ := newSupportFixture(100)

	created, err := svc.CreateQuery(context.Background(), premiumUser(), supportRequest())
	require.NoError(t, err)

	answered, err := svc.Respond(context.Background(), created.ID, "Try chapter 4 first.")
	require.NoError(t, err)
	require.Equal(t, models.SupportAnswered, answered.Status)
	require.Equal(t, "Try chapter 4 first.", *answered.AdminResponse)
	require.Len(t, repo.queries, 1)
}

func TestRespondUnknownQuery(t *testing.T) {
	svc, _, _ := newSupportFixture(100)

	_, err := svc.Respond(context.Background(), "missing", "answer")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateContactRelaysToAdmin(t *testing.T) {
	svc, repo, mail := newSupportFixture(0)

	contact, err := svc.CreateContact(context.Background(), ContactRequest{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Message: "How do I sign up?",
	})
	require.NoError(t, err)
	require.NotEmpty(t, contact.ID)
	require.Len(t, repo.contacts, 1)
	require.Len(t, mail.adminMail, 1)
}

func TestCreateContactValidation(t *testing.T) {
	svc, _, _ := newSupportFixture(0)

	_, err := svc.CreateContact(context.Background(), ContactRequest{Name: "X", Email: "not-an-email", Message: "hi"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
