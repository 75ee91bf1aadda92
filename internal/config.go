package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DukeRupert/relance/internal/billing"
	"github.com/DukeRupert/relance/internal/calendar"
	"github.com/DukeRupert/relance/internal/storage"
	"github.com/DukeRupert/relance/internal/worker"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Application base URL (for billing return links)
	BaseURL string

	// Shared bearer secret of the scheduler calling /api/cron/cadences.
	// Cron requests are refused with 500 while it is empty.
	CronSecret string

	// Deployment-wide toggle for automatic follow-up emails. Organizations
	// also need the auto email entitlement.
	AutoEmailEnabled bool

	// Forced resends allowed per quote per calendar month
	MaxResendsPerMonth int

	// Requests per minute per organization on the authenticated API
	APIRateLimit int

	// Holidays skipped by the business-day calendar, "2026-12-25,2027-01-01"
	CadenceHolidays string

	// Storage Configuration (quote PDFs attached to follow-ups)
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Worker Configuration
	WorkerEnabled         bool
	WorkerBatchSize       int
	WorkerClaimTimeout    time.Duration
	WorkerRunBudget       time.Duration
	WorkerOrgConcurrency  int
	WorkerPollInterval    time.Duration
	WorkerShutdownTimeout time.Duration
	CadenceLookbackDays   int

	// Stripe Billing Configuration
	// In development, billing handlers function as stubs if these are empty.
	StripeSecretKey     string // Stripe API secret key (sk_test_... or sk_live_...)
	StripeWebhookSecret string // Stripe webhook signing secret (whsec_...)

	// Price ID to plan name, "price_123=Pro,price_456=Business"
	StripePlanPrices     string
	StripeDefaultPriceID string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	defaults := worker.DefaultConfig()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		CronSecret:         getEnv("CRON_SECRET", ""),
		AutoEmailEnabled:   getEnvBool("AUTO_EMAIL_ENABLED", true),
		MaxResendsPerMonth: getEnvInt("MAX_RESENDS_PER_MONTH", 3),
		APIRateLimit:       getEnvInt("API_RATE_LIMIT", 120),
		CadenceHolidays:    getEnv("CADENCE_HOLIDAYS", ""),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", storage.ProviderLocal),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),

		// Worker defaults
		WorkerEnabled:         getEnvBool("WORKER_ENABLED", false),
		WorkerBatchSize:       getEnvInt("WORKER_BATCH_SIZE", defaults.BatchSize),
		WorkerClaimTimeout:    getEnvDuration("WORKER_CLAIM_TIMEOUT", defaults.ClaimTimeout),
		WorkerRunBudget:       getEnvDuration("WORKER_RUN_BUDGET", defaults.RunBudget),
		WorkerOrgConcurrency:  getEnvInt("WORKER_ORG_CONCURRENCY", defaults.OrgConcurrency),
		WorkerPollInterval:    getEnvDuration("WORKER_POLL_INTERVAL", defaults.PollInterval),
		WorkerShutdownTimeout: getEnvDuration("WORKER_SHUTDOWN_TIMEOUT", defaults.ShutdownTimeout),
		CadenceLookbackDays:   getEnvInt("CADENCE_LOOKBACK_DAYS", defaults.LookbackDays),

		// Stripe billing (optional, stubs work without these)
		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePlanPrices:     getEnv("STRIPE_PLAN_PRICES", ""),
		StripeDefaultPriceID: getEnv("STRIPE_DEFAULT_PRICE_ID", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate storage configuration
	if cfg.StorageProvider == storage.ProviderR2 {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != storage.ProviderLocal {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	if cfg.MaxResendsPerMonth < 0 {
		return nil, fmt.Errorf("MAX_RESENDS_PER_MONTH must not be negative, got: %d", cfg.MaxResendsPerMonth)
	}
	if cfg.APIRateLimit < 1 {
		return nil, fmt.Errorf("API_RATE_LIMIT must be at least 1, got: %d", cfg.APIRateLimit)
	}

	if err := cfg.WorkerConfig().Validate(); err != nil {
		return nil, fmt.Errorf("worker configuration: %w", err)
	}
	if _, err := cfg.Calendar(); err != nil {
		return nil, fmt.Errorf("CADENCE_HOLIDAYS: %w", err)
	}
	if _, err := cfg.StripePrices(); err != nil {
		return nil, fmt.Errorf("STRIPE_PLAN_PRICES: %w", err)
	}

	return cfg, nil
}

// WorkerConfig returns the batch worker settings.
func (c *Config) WorkerConfig() worker.Config {
	return worker.Config{
		BatchSize:       c.WorkerBatchSize,
		ClaimTimeout:    c.WorkerClaimTimeout,
		RunBudget:       c.WorkerRunBudget,
		OrgConcurrency:  c.WorkerOrgConcurrency,
		LookbackDays:    c.CadenceLookbackDays,
		PollInterval:    c.WorkerPollInterval,
		ShutdownTimeout: c.WorkerShutdownTimeout,
	}
}

// StorageConfig returns the document storage settings.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Provider: c.StorageProvider,
		Local:    storage.LocalConfig{BasePath: c.LocalStoragePath},
		R2: storage.R2Config{
			AccountID:       c.R2AccountID,
			AccessKeyID:     c.R2AccessKeyID,
			SecretAccessKey: c.R2SecretAccessKey,
			BucketName:      c.R2BucketName,
		},
	}
}

// Calendar returns the business-day calendar with the configured holidays.
func (c *Config) Calendar() (*calendar.Calendar, error) {
	return calendar.ParseHolidays(c.CadenceHolidays)
}

// StripePrices returns the price to plan mapping used by billing.
func (c *Config) StripePrices() (billing.PriceConfig, error) {
	plans, err := billing.ParsePriceMap(c.StripePlanPrices)
	if err != nil {
		return billing.PriceConfig{}, err
	}
	return billing.PriceConfig{Plans: plans, DefaultPriceID: c.StripeDefaultPriceID}, nil
}

// BillingEnabled reports whether Stripe keys are configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
