package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the cadence batch worker.
type Config struct {
	// BatchSize is the maximum number of events claimed per organization
	// per run.
	// Default: 50
	BatchSize int

	// ClaimTimeout is how long an event may stay claimed before the reaper
	// returns it to scheduled (likely from a crashed worker).
	// Default: 5 minutes
	ClaimTimeout time.Duration

	// RunBudget is the wall-clock budget of one run. Once spent, no further
	// organizations are started; in-flight ones finish.
	// Default: 2 minutes
	RunBudget time.Duration

	// OrgConcurrency is the number of organizations processed in parallel.
	// Events within one organization are always processed sequentially.
	// Default: 4
	OrgConcurrency int

	// LookbackDays widens the claim window to earlier local days. One day
	// picks up events deferred after the day's last run and claims reaped
	// after midnight.
	// Default: 1
	LookbackDays int

	// PollInterval is how often the in-process ticker triggers a run.
	// Default: 1 minute
	PollInterval time.Duration

	// ShutdownTimeout is how long Stop waits for a running batch to finish.
	// Default: 30 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		BatchSize:       50,
		ClaimTimeout:    5 * time.Minute,
		RunBudget:       2 * time.Minute,
		OrgConcurrency:  4,
		LookbackDays:    1,
		PollInterval:    time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any values are invalid.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	}
	if c.BatchSize > 1000 {
		return fmt.Errorf("batch size too high (max 1000), got %d", c.BatchSize)
	}
	if c.OrgConcurrency < 1 {
		return fmt.Errorf("organization concurrency must be at least 1, got %d", c.OrgConcurrency)
	}
	if c.OrgConcurrency > 100 {
		return fmt.Errorf("organization concurrency too high (max 100), got %d", c.OrgConcurrency)
	}
	if c.ClaimTimeout < 1*time.Minute {
		return fmt.Errorf("claim timeout must be at least 1 minute, got %v", c.ClaimTimeout)
	}
	if c.RunBudget < 1*time.Second {
		return fmt.Errorf("run budget must be at least 1 second, got %v", c.RunBudget)
	}
	if c.LookbackDays < 0 || c.LookbackDays > 30 {
		return fmt.Errorf("lookback days must be between 0 and 30, got %d", c.LookbackDays)
	}
	if c.PollInterval < 1*time.Second {
		return fmt.Errorf("poll interval must be at least 1 second, got %v", c.PollInterval)
	}
	if c.ShutdownTimeout < 1*time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	return nil
}
