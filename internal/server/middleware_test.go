package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantumsport/internal/api"
	"quantumsport/internal/auth"
	"quantumsport/internal/availability"
	"quantumsport/internal/booking"
	"quantumsport/internal/cart"
	"quantumsport/internal/checkout"
	"quantumsport/internal/config"
	"quantumsport/internal/invoice"
	"quantumsport/internal/logger"
	"quantumsport/internal/metrics"
	"quantumsport/internal/session"
)

func TestMain(m *testing.M) {
	logger.Init()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestMetricsMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(MetricsMiddleware())

	router.GET("/sessions/:sessionID/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/sessions/:sessionID/cart", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/sessions/abc/cart", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	unmatched := metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before = testutil.ToFloat64(unmatched)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(unmatched))
}

func TestRequestLoggingMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestLoggingMiddleware())

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test?date=2025-01-20", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitMiddleware(1, 3))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		require.Equal(t, http.StatusOK, w.Code, "request %d within burst", i+1)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, api.CodeRateLimited, body.Code)
	assert.True(t, body.Retriable)

	other := httptest.NewRequest("GET", "/test", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     1,
		burst:    1,
		ttl:      time.Minute,
		now:      time.Now,
	}
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	now = now.Add(30 * time.Second)
	rl.Allow("2.2.2.2")

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, rl.evict())
	assert.Len(t, rl.visitors, 1)
}

func TestCorsMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware([]string{"*"}))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://app.quantumsport.id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware([]string{"https://app.quantumsport.id"}))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "https://app.quantumsport.id")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.quantumsport.id", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	router := gin.New()
	router.GET("/ok", Health(HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}))
	router.GET("/degraded", Health(
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }},
	))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/degraded", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"postgres": "up", "redis": "down"}, body.Checks)
}

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:           "0",
		JWTSecret:      testSecret,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		CORSOrigins:    []string{"*"},
	}

	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	return New(cfg, Handlers{
		Availability: availability.NewHandler(availability.NewService(nil, sessions, time.UTC, 0)),
		Booking:      booking.NewHandler(booking.NewService(sessions, cart.DefaultTaxRateBps)),
		Checkout:     checkout.NewHandler(nil),
		Invoice:      invoice.NewHandler(nil, nil, nil),
	}, nil)
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken("cust-1", "ayu@example.com", role, testSecret)
	require.NoError(t, err)
	return tok
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		status int
	}{
		{"health is public", "GET", "/health", "", http.StatusOK},
		{"metrics are public", "GET", "/metrics", "", http.StatusOK},
		{"cart needs a token", "POST", "/sessions", "", http.StatusUnauthorized},
		{"customer creates session", "POST", "/sessions", auth.RoleCustomer, http.StatusCreated},
		{"grid rejects bad date before fetching", "GET", "/venues/v1/grid?date=soon", auth.RoleCustomer, http.StatusBadRequest},
		{"admin routes need admin", "GET", "/admin/checkouts", auth.RoleCustomer, http.StatusForbidden},
		{"unknown route", "GET", "/nope", auth.RoleCustomer, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+token(t, tt.role))
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
