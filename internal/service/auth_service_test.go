package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
	"github.com/madrasah-labs/class-review-api/pkg/mail"
)

type mockAuthRepo struct {
	user              *models.User
	findByEmailErr    error
	updatePasswordErr error
	resetToken        string
	resetExpiresAt    time.Time
	passwordUpdates   int
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	if m.user == nil || m.resetToken == "" || m.resetToken != token {
		return nil, sql.ErrNoRows
	}
	expires := m.resetExpiresAt
	m.user.ResetToken = &m.resetToken
	m.user.ResetTokenExpires = &expires
	return m.user, nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.passwordUpdates++
	if m.user != nil && m.user.ID == id {
		m.user.PasswordHash = passwordHash
		m.user.MustChangePassword = false
		m.user.ResetToken = nil
		m.user.ResetTokenExpires = nil
	}
	m.resetToken = ""
	return nil
}

func (m *mockAuthRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	m.resetToken = token
	m.resetExpiresAt = expiresAt
	return nil
}

func newAuthService(repo *mockAuthRepo, mailer mail.Mailer) *AuthService {
	return NewAuthService(repo, mailer, validator.New(), zap.NewNop(), AuthServiceConfig{
		TokenSecret:   "secret",
		TokenExpiry:   time.Hour,
		BcryptCost:    bcrypt.MinCost,
		ResetTokenTTL: time.Hour,
	})
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Name:         "Ustadha Amina",
		Email:        "amina@example.com",
		PasswordHash: string(hash),
		Roles:        pq.StringArray{string(models.RoleTeacher)},
		Active:       true,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "password")}
	svc := newAuthService(repo, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "amina@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "u1", res.User.ID)
	assert.Contains(t, res.User.Roles, string(models.RoleTeacher))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	user := activeUser(t, "password")
	user.Active = false
	svc := newAuthService(&mockAuthRepo{user: user}, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "amina@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{user: activeUser(t, "password")}, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "amina@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceForgotPasswordUnknownIsSilent(t *testing.T) {
	mailer := mail.NewConsoleMailer(zap.NewNop())
	svc := newAuthService(&mockAuthRepo{}, mailer)

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Empty(t, mailer.Sent())
}

func TestAuthServiceForgotPasswordStoresTokenAndMails(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "password")}
	mailer := mail.NewConsoleMailer(zap.NewNop())
	svc := newAuthService(repo, mailer)

	err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "amina@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.resetToken)
	require.Len(t, mailer.Sent(), 1)
	assert.Contains(t, mailer.Sent()[0].TextBody, repo.resetToken)
}

func TestAuthServiceResetPasswordSingleUse(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "password")}
	svc := newAuthService(repo, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "amina@example.com"}))
	token := repo.resetToken

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: token, NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.passwordUpdates)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.PasswordHash), []byte("newpassword")))

	// The token is consumed by the password update.
	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: token, NewPassword: "another-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResetPasswordExpiredToken(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "password")}
	svc := newAuthService(repo, nil)
	repo.resetToken = "expired-token"
	repo.resetExpiresAt = time.Now().UTC().Add(-time.Minute)

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Token: "expired-token", NewPassword: "newpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.passwordUpdates)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "old-password")}
	svc := newAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old-password", NewPassword: "new-password"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.PasswordHash), []byte("new-password")))
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "old-password")}
	svc := newAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePasswordForcedSkipsOld(t *testing.T) {
	user := activeUser(t, "temporary")
	user.MustChangePassword = true
	repo := &mockAuthRepo{user: user}
	svc := newAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{NewPassword: "chosen-password"})
	require.NoError(t, err)
	assert.False(t, repo.user.MustChangePassword)
}

func TestAuthServiceChangePasswordMissingOld(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "old-password")}
	svc := newAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{NewPassword: "new-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBadRequest.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	user := activeUser(t, "password")
	user.MustChangePassword = true
	svc := newAuthService(&mockAuthRepo{user: user}, nil)

	token, _, err := svc.generateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.MustChangePassword)
	assert.True(t, claims.HasRole(models.RoleTeacher))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{}, nil)
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
