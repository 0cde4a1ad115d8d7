package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"quantumsport/internal/auth"
	"quantumsport/internal/logger"
)

// RequestLoggingMiddleware logs one line per request. Server errors are logged at error level.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if customerID, ok := auth.GetCustomerID(c); ok {
			fields = append(fields, "customer_id", customerID)
		}

		if status >= 500 {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
