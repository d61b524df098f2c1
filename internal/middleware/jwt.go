package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/madrasah-labs/class-review-api/internal/service"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
	"github.com/madrasah-labs/class-review-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT requires a valid Bearer token and stores its claims in the context.
func JWT(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWith(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			return
		}

		claims, err := auth.ValidateToken(raw)
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || token == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

func abortWith(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
