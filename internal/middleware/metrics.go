package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/madrasah-labs/class-review-api/internal/service"
)

// Metrics records request count and latency. The route template is used as
// the path label so parameterized routes share a series.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		defer func() {
			path := c.FullPath()
			if path == "" {
				path = c.Request.URL.Path
			}
			metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
		}()

		c.Next()
	}
}
