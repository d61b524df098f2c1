package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/madrasah-labs/class-review-api/internal/models"
	appErrors "github.com/madrasah-labs/class-review-api/pkg/errors"
)

// SelfRole is a pseudo-role admitting a caller whose user ID matches the
// :id route parameter, regardless of actual roles.
const SelfRole = "SELF"

// RBAC lets the request through when the caller holds any of the named
// roles. Claims must already be in the context (see JWT).
func RBAC(allowed ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(allowed))
	allowSelf := false
	for _, role := range allowed {
		if role == SelfRole {
			allowSelf = true
			continue
		}
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			abortWith(c, appErrors.ErrUnauthorized)
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			abortWith(c, appErrors.ErrUnauthorized)
			return
		}

		for _, role := range claims.Roles {
			if _, ok := roleSet[role]; ok {
				c.Next()
				return
			}
		}
		if allowSelf && claims.UserID != "" && c.Param("id") == claims.UserID {
			c.Next()
			return
		}

		abortWith(c, appErrors.ErrForbidden)
	}
}

// RequireRoles is RBAC over typed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed = append(allowed, string(role))
	}
	return RBAC(allowed...)
}
