package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/metrics"
)

// MetricsMiddleware records request count and latency by route template, so path
// parameters such as session ids do not explode label cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
