package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"quantumsport/internal/availability"
	"quantumsport/internal/booking"
	"quantumsport/internal/checkout"
	"quantumsport/internal/config"
	"quantumsport/internal/db"
	"quantumsport/internal/email"
	"quantumsport/internal/invoice"
	"quantumsport/internal/logger"
	"quantumsport/internal/server"
	"quantumsport/internal/session"
	"quantumsport/internal/upstream"
)

const (
	sessionSweepInterval = time.Minute
	queueGaugeInterval   = 15 * time.Second
)

// @title Quantum Sport Booking API
// @version 1.0
// @description Court booking front for Quantum Sport venues: availability grid, selection cart, checkout and invoice tracking.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting Quantum Sport booking service")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Connecting to database...")
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	var store session.Store
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		store = session.NewRedisStore(rdb)
	default:
		mem := session.NewMemoryStore()
		go mem.RunSweeper(ctx, sessionSweepInterval)
		store = mem
	}
	sessions := session.NewManager(store, cfg.SessionTTL)
	logger.Info("Session store ready", "backend", cfg.SessionStore, "ttl", cfg.SessionTTL)

	client := upstream.NewClient(upstream.Options{
		BaseURL:             cfg.UpstreamBaseURL,
		APIKey:              cfg.UpstreamAPIKey,
		Timeout:             cfg.UpstreamTimeout,
		ConsecutiveFailures: cfg.UpstreamBreakerTrips,
	})

	emailService := email.New(rdb, email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	})
	go emailService.Start(ctx)
	go reportQueueLength(ctx, emailService)

	checkouts := checkout.NewRepository(database)
	poller := invoice.NewPoller(client, cfg.InvoicePollInterval, cfg.InvoicePollMaxErrors)
	watcher := invoice.NewWatcher(poller, checkouts, emailService)

	srv := server.New(cfg, server.Handlers{
		Availability: availability.NewHandler(availability.NewService(client, sessions, cfg.VenueTimezone, cfg.UpstreamTimeout)),
		Booking:      booking.NewHandler(booking.NewService(sessions, cfg.TaxRateBps)),
		Checkout:     checkout.NewHandler(checkout.NewService(checkouts, sessions, client, watcher, emailService, cfg.TaxRateBps)),
		Invoice:      invoice.NewHandler(client, checkouts, poller),
	}, emailService,
		server.HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return db.Ping(ctx, database) }},
		server.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	watcher.StopAll()
	cancel()

	logger.Info("Server stopped")
}

func reportQueueLength(ctx context.Context, emailService *email.Service) {
	ticker := time.NewTicker(queueGaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emailService.QueueLength(ctx)
		}
	}
}
