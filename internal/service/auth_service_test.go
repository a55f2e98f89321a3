package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type fakeProfileRepo struct {
	byID    map[string]*models.Profile
	byEmail map[string]*models.Profile
	tokens  map[string]*models.RefreshToken
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		byID:    make(map[string]*models.Profile),
		byEmail: make(map[string]*models.Profile),
		tokens:  make(map[string]*models.RefreshToken),
	}
}

func (f *fakeProfileRepo) Create(_ context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	f.byID[profile.ID] = profile
	f.byEmail[profile.Email] = profile
	return nil
}

func (f *fakeProfileRepo) FindByEmail(_ context.Context, email string) (*models.Profile, error) {
	if p, ok := f.byEmail[email]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) FindByID(_ context.Context, id string) (*models.Profile, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeProfileRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	if p, ok := f.byID[id]; ok {
		p.LastLogin = &ts
	}
	return nil
}

func (f *fakeProfileRepo) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	p, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.PasswordHash = hash
	return nil
}

func (f *fakeProfileRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeProfileRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, t := range f.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeProfileRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	now := time.Now().UTC()
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Revoked = true
			t.RevokedAt = &now
		}
	}
	return nil
}

func newAuthService(repo *fakeProfileRepo, ledger *fakeLedger, mail *fakeMail) *AuthService {
	return NewAuthService(repo, ledger, mail, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "campus-api-test",
		WelcomeBonus:       15,
	})
}

func signupRequest() models.SignupRequest {
	return models.SignupRequest{
		Email:     "ana@example.com",
		Password:  "secret123",
		FirstName: "Ana",
		LastName:  "Silva",
		Role:      "student",
		College:   "State University",
	}
}

func TestSignupCreditsWelcomeBonus(t *testing.T) {
	repo := newFakeProfileRepo()
	ledger := newFakeLedger()
	mail := &fakeMail{configured: true, siteURL: "https://globlecampus.example"}
	svc := newAuthService(repo, ledger, mail)

	resp, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	balance, err := ledger.Balance(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, 15.0, balance)
	require.Equal(t, 1, ledger.transactionCount(resp.User.ID))

	require.Len(t, mail.messages, 1)
	require.Equal(t, "ana@example.com", mail.messages[0].To)
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := newAuthService(repo, newFakeLedger(), &fakeMail{})

	_, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), signupRequest())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := newAuthService(repo, newFakeLedger(), &fakeMail{})

	_, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginTrashedAccount(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := newAuthService(repo, newFakeLedger(), &fakeMail{})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	trashed := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &models.Profile{
		Email:        "gone@example.com",
		PasswordHash: string(hash),
		FirstName:    "Gone",
		Role:         models.RoleStudent,
		TrashedAt:    &trashed,
	}))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "gone@example.com", Password: "secret123"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAccountTrashed.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := newAuthService(repo, newFakeLedger(), &fakeMail{})

	resp, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked, replaying it must fail.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := newAuthService(repo, newFakeLedger(), &fakeMail{})

	resp, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, "ana@example.com", claims.Email)
	require.False(t, claims.IsAdmin)
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	repo := newFakeProfileRepo()
	mail := &fakeMail{configured: true}
	svc := newAuthService(repo, newFakeLedger(), mail)

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	require.Empty(t, mail.messages)
}

func TestForgotPasswordRequiresMail(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := newAuthService(repo, newFakeLedger(), &fakeMail{configured: false})

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ana@example.com"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrMailUnconfigured.Code, appErrors.FromError(err).Code)
}

func TestForgotPasswordResetsAndQueuesEmail(t *testing.T) {
	repo := newFakeProfileRepo()
	mail := &fakeMail{configured: true, siteURL: "https://globlecampus.example"}
	svc := newAuthService(repo, newFakeLedger(), mail)

	resp, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)
	oldHash := repo.byID[resp.User.ID].PasswordHash
	mail.messages = nil

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ana@example.com"}))
	require.NotEqual(t, oldHash, repo.byID[resp.User.ID].PasswordHash)
	require.Len(t, mail.messages, 1)

	// Sessions issued before the reset are revoked.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)
}

func TestGeneratePasswordContainsAllClasses(t *testing.T) {
	password, err := generatePassword(12)
	require.NoError(t, err)
	require.Len(t, password, 12)

	var upper, lower, digit, symbol bool
	for _, ch := range password {
		switch {
		case ch >= 'A' && ch <= 'Z':
			upper = true
		case ch >= 'a' && ch <= 'z':
			lower = true
		case ch >= '0' && ch <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	require.True(t, upper && lower && digit && symbol)
}
