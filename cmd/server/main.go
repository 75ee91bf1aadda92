package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/relance/internal"
	"github.com/DukeRupert/relance/internal/billing"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/email"
	"github.com/DukeRupert/relance/internal/handler"
	"github.com/DukeRupert/relance/internal/jobs"
	"github.com/DukeRupert/relance/internal/metrics"
	"github.com/DukeRupert/relance/internal/middleware"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/DukeRupert/relance/internal/storage"
	"github.com/DukeRupert/relance/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	version, err := internal.RunMigrations(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready", "schema_version", version)

	// Initialize repository
	repo := repository.New(db)
	inTx := service.NewTxRunner(db, repo)
	clk := clock.Real{}

	cal, err := cfg.Calendar()
	if err != nil {
		return fmt.Errorf("calendar initialization failed: %w", err)
	}

	files, err := storage.New(cfg.StorageConfig(), logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize services
	entitlementsService := service.NewEntitlementsService(repo, clk, logger)
	quoteService := service.NewQuoteService(inTx, service.NewCadenceGenerator(cal), clk, service.QuoteConfig{
		MaxResendsPerMonth: cfg.MaxResendsPerMonth,
	}, logger)
	subscriptionService := service.NewSubscriptionService(repo, logger)

	var billingService billing.Service
	if cfg.BillingEnabled() {
		prices, err := cfg.StripePrices()
		if err != nil {
			return fmt.Errorf("billing initialization failed: %w", err)
		}
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, prices)
		logger.Info("Stripe billing enabled", "plans", len(prices.Plans))
	} else {
		logger.Warn("Stripe billing disabled, billing endpoints return stubs")
	}

	// Initialize the cadence worker
	mailer := email.NewFollowUpMailer(repo, files, email.NewSMTPTransport(), clk, logger)
	processor := jobs.NewFollowUpProcessor(repo, inTx, mailer, clk, cfg.AutoEmailEnabled, logger)
	cadenceWorker, err := worker.New(repo, entitlementsService, processor, cal, clk, cfg.WorkerConfig(), logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authFailures := middleware.NewRateLimiter(10, 15*time.Minute, logger)
	defer authFailures.Stop()
	apiLimiter := middleware.NewRateLimiter(cfg.APIRateLimit, time.Minute, logger)
	defer apiLimiter.Stop()
	authMw := middleware.NewAuthMiddleware(repo, authFailures, logger)
	cronMw := middleware.NewCronAuthMiddleware(cfg.CronSecret, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(apiLimiter, logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, authFailures, logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)

	if cfg.CronSecret == "" {
		logger.Warn("CRON_SECRET is not set, cadence runs over HTTP are disabled")
	}
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("METRICS_USERNAME and METRICS_PASSWORD are not set, /metrics is unprotected")
	}

	// Initialize handlers
	cadenceHandler := handler.NewCadenceHandler(cadenceWorker, logger)
	quoteHandler := handler.NewQuoteHandler(quoteService, logger)
	entitlementsHandler := handler.NewEntitlementsHandler(entitlementsService, logger)
	billingHandler := handler.NewBillingHandler(billingService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, subscriptionService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Scheduler trigger
	cadenceHandler.RegisterRoutes(mux, cronMw.Handler)

	// Organization API
	requireOrg := middleware.Stack(authMw.RequireOrganization, rateLimitMw.Limit)
	quoteHandler.RegisterRoutes(mux, requireOrg)
	entitlementsHandler.RegisterRoutes(mux, requireOrg)
	billingHandler.RegisterRoutes(mux, requireOrg)

	// Billing provider callbacks (signature verified in the handler)
	webhookHandler.RegisterRoutes(mux)

	// Fallback
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	root := middleware.Stack(metrics.Middleware, loggingMw.Handler, securityMw.Handler)(mux)

	// ==========================================================================
	// Start worker
	// ==========================================================================

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	if cfg.WorkerEnabled {
		cadenceWorker.Start(workerCtx)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		// Cron runs are bounded by the worker's run budget
		WriteTimeout: cfg.WorkerRunBudget + 30*time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "worker_enabled", cfg.WorkerEnabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if cfg.WorkerEnabled {
		cadenceWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
