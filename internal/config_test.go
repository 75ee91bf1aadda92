package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/relance")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.AutoEmailEnabled)
	assert.False(t, cfg.WorkerEnabled)
	assert.Equal(t, 3, cfg.MaxResendsPerMonth)
	assert.False(t, cfg.BillingEnabled())

	wc := cfg.WorkerConfig()
	assert.Equal(t, 50, wc.BatchSize)
	assert.Equal(t, 5*time.Minute, wc.ClaimTimeout)
	assert.Equal(t, 1, wc.LookbackDays)
	assert.NoError(t, wc.Validate())

	sc := cfg.StorageConfig()
	assert.Equal(t, "local", sc.Provider)
	assert.Equal(t, "./storage", sc.Local.BasePath)
}

func TestNewConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := NewConfig()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/relance")
	t.Setenv("WORKER_BATCH_SIZE", "10")
	t.Setenv("WORKER_RUN_BUDGET", "30s")
	t.Setenv("CADENCE_LOOKBACK_DAYS", "2")
	t.Setenv("CADENCE_HOLIDAYS", "2026-12-25")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_PLAN_PRICES", "price_pro=Pro")
	t.Setenv("STRIPE_DEFAULT_PRICE_ID", "price_pro")

	cfg, err := NewConfig()
	require.NoError(t, err)

	wc := cfg.WorkerConfig()
	assert.Equal(t, 10, wc.BatchSize)
	assert.Equal(t, 30*time.Second, wc.RunBudget)
	assert.Equal(t, 2, wc.LookbackDays)

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.False(t, cal.IsBusinessDay(time.Date(2026, 12, 25, 9, 0, 0, 0, time.UTC)))

	prices, err := cfg.StripePrices()
	require.NoError(t, err)
	assert.Equal(t, "Pro", prices.Plans["price_pro"])
	assert.Equal(t, "price_pro", prices.DefaultPriceID)
	assert.True(t, cfg.BillingEnabled())
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"unknown storage", "STORAGE_PROVIDER", "s3", "STORAGE_PROVIDER"},
		{"r2 without account", "STORAGE_PROVIDER", "r2", "R2_ACCOUNT_ID"},
		{"batch too large", "WORKER_BATCH_SIZE", "5000", "batch size"},
		{"bad holiday", "CADENCE_HOLIDAYS", "25/12/2026", "CADENCE_HOLIDAYS"},
		{"bad price map", "STRIPE_PLAN_PRICES", "price_pro", "STRIPE_PLAN_PRICES"},
		{"zero rate limit", "API_RATE_LIMIT", "0", "API_RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/relance")
			t.Setenv(tt.key, tt.val)

			_, err := NewConfig()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
