package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/madrasah-labs/class-review-api/internal/middleware"
	"github.com/madrasah-labs/class-review-api/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil when
// the route was reached without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
