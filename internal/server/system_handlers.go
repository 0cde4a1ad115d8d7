package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quantumsport/internal/api"
	"quantumsport/internal/email"
	"quantumsport/internal/logger"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// @Summary      Health check
// @Description  Reports "degraded" with 503 when a dependency does not answer.
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := api.HealthResponse{Status: "ok"}
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}

		for _, hc := range checks {
			if err := hc.Check(c.Request.Context()); err != nil {
				logger.Warn("Health check failed", "dependency", hc.Name, "error", err)
				resp.Status = "degraded"
				resp.Checks[hc.Name] = "down"
				continue
			}
			resp.Checks[hc.Name] = "up"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// @Summary      Queue a test email
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        email query string true "Recipient email"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/test-email [post]
func TestEmail(emailService *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		testEmail := c.Query("email")
		if testEmail == "" {
			api.BadRequest(c, "email parameter required")
			return
		}

		if err := emailService.Send(c.Request.Context(), testEmail, "Test User", "Test Email from Quantum Sport", "Email is working!"); err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error(), Code: api.CodeInternal})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "Email queued successfully"})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
