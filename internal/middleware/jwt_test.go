package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madrasah-labs/class-review-api/internal/models"
	"github.com/madrasah-labs/class-review-api/internal/service"
)

type stubAuthRepo struct{}

func (stubAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (stubAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (stubAuthRepo) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (stubAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (stubAuthRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return nil
}

const jwtTestSecret = "jwt-test-secret"

func jwtAuthService() *service.AuthService {
	return service.NewAuthService(stubAuthRepo{}, nil, nil, nil, service.AuthServiceConfig{
		TokenSecret: jwtTestSecret,
		TokenExpiry: time.Hour,
	})
}

func signedToken(t *testing.T, method jwt.SigningMethod, secret string) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "u1",
		Roles:  []string{string(models.RoleAdmin)},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func jwtContext(t *testing.T, authorization string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/videos", nil)
	if authorization != "" {
		c.Request.Header.Set("Authorization", authorization)
	}
	return c, rec
}

func TestJWTAcceptsValidBearerToken(t *testing.T) {
	c, _ := jwtContext(t, "Bearer "+signedToken(t, jwt.SigningMethodHS256, jwtTestSecret))

	JWT(jwtAuthService())(c)

	assert.False(t, c.IsAborted())
	value, exists := c.Get(ContextUserKey)
	require.True(t, exists)
	claims := value.(*models.JWTClaims)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.HasRole(models.RoleAdmin))
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	c, rec := jwtContext(t, "")

	JWT(jwtAuthService())(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	c, rec := jwtContext(t, "Token abcdef")

	JWT(jwtAuthService())(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	c, rec := jwtContext(t, "Bearer "+signedToken(t, jwt.SigningMethodHS256, "other-secret"))

	JWT(jwtAuthService())(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsUnexpectedSigningMethod(t *testing.T) {
	c, rec := jwtContext(t, "Bearer "+signedToken(t, jwt.SigningMethodHS512, jwtTestSecret))

	JWT(jwtAuthService())(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
