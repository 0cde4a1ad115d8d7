package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quantumsport/internal/auth"
	"quantumsport/internal/availability"
	"quantumsport/internal/booking"
	"quantumsport/internal/checkout"
	"quantumsport/internal/config"
	"quantumsport/internal/email"
	"quantumsport/internal/invoice"
)

// Handlers bundles the feature handlers mounted by the router.
type Handlers struct {
	Availability *availability.Handler
	Booking      *booking.Handler
	Checkout     *checkout.Handler
	Invoice      *invoice.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, h Handlers, emailService *email.Service, checks ...HealthCheck) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	router.GET("/health", Health(checks...))
	router.GET("/metrics", Metrics())

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/venues/:venueID/grid", h.Availability.GetGrid)

		protected.POST("/sessions", h.Booking.CreateSession)
		protected.DELETE("/sessions/:sessionID", h.Booking.EndSession)
		protected.GET("/sessions/:sessionID/cart", h.Booking.GetCart)
		protected.DELETE("/sessions/:sessionID/cart", h.Booking.ClearCart)
		protected.POST("/sessions/:sessionID/cart/bookings/toggle", h.Booking.ToggleBooking)
		protected.DELETE("/sessions/:sessionID/cart/bookings", h.Booking.RemoveBooking)
		protected.POST("/sessions/:sessionID/cart/coaches/toggle", h.Booking.ToggleCoach)
		protected.PUT("/sessions/:sessionID/cart/inventory", h.Booking.SetInventory)

		protected.POST("/sessions/:sessionID/checkout", h.Checkout.Checkout)
		protected.GET("/checkouts", h.Checkout.ListMyCheckouts)

		protected.GET("/invoices/:invoiceID", h.Invoice.GetInvoice)
		protected.GET("/invoices/:invoiceID/events", h.Invoice.StreamStatus)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/checkouts", h.Checkout.ListAllCheckouts)
		if emailService != nil {
			admin.POST("/test-email", TestEmail(emailService))
		}
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests. Open event streams
// end when their request contexts are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "Accept", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
