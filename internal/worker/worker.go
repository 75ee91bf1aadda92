// Package worker runs the cadence batch: it releases orphaned claims, claims
// due events per organization and hands each one to an EventHandler.
package worker

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/DukeRupert/relance/internal/calendar"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/metrics"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when a run is requested while another run of
// the same worker has not finished.
var ErrRunInProgress = errors.New("cadence run already in progress")

// Organization skip reasons.
const (
	skipNonBusinessDay = "non_business_day"
	skipOutsideWindow  = "outside_window"
	skipBudget         = "budget_exceeded"
	skipError          = "error"
)

// Worker claims and processes due cadence events.
type Worker struct {
	id           string
	store        repository.Querier
	entitlements EntitlementsResolver
	handler      EventHandler
	calendar     *calendar.Calendar
	clock        clock.Clock
	config       Config
	logger       *slog.Logger

	// running serialises runs within this process; other processes are
	// kept apart by SKIP LOCKED claims.
	running sync.Mutex

	// Synchronization
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new Worker with the given configuration.
// The in-process ticker must be started with Start() and stopped with Stop();
// RunOnce can be called directly without it.
func New(
	store repository.Querier,
	entitlements EntitlementsResolver,
	handler EventHandler,
	cal *calendar.Calendar,
	clk clock.Clock,
	config Config,
	logger *slog.Logger,
) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	id := NewID()
	return &Worker{
		id:           id,
		store:        store,
		entitlements: entitlements,
		handler:      handler,
		calendar:     cal,
		clock:        clk,
		config:       config,
		logger:       logger.With("worker_id", id),
		stopCh:       make(chan struct{}),
	}, nil
}

// NewID returns a worker identity of the form <hostname>-<ULID>.
func NewID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "relance"
	}
	return host + "-" + ulid.Make().String()
}

// ID returns the worker identity written to claimed_by.
func (w *Worker) ID() string {
	return w.id
}

// RunOnce executes one batch run and records it in cadence_runs.
func (w *Worker) RunOnce(ctx context.Context) (*Summary, error) {
	if !w.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer w.running.Unlock()

	started := w.clock.Now()
	summary, err := w.run(ctx, started)

	finished := w.clock.Now()
	summary.DurationMs = finished.Sub(started).Milliseconds()

	if err != nil {
		summary.Success = false
		summary.Error = err.Error()
		metrics.RunFailed()
		w.logger.Error("Cadence run failed", "error", err)
	} else {
		summary.Success = true
		metrics.RunFinished(finished.Sub(started), summary.BudgetExceeded)
		w.logger.Info("Cadence run finished",
			"organizations", summary.Organizations,
			"processed", summary.Processed,
			"sent", summary.Sent,
			"tasks_created", summary.TasksCreated,
			"skipped", summary.Skipped,
			"deferred", summary.Deferred,
			"cancelled", summary.Cancelled,
			"failed", summary.Failed,
			"released", summary.Released,
			"budget_exceeded", summary.BudgetExceeded,
			"duration_ms", summary.DurationMs,
		)
	}

	w.recordRun(context.WithoutCancel(ctx), started, finished, summary)
	return summary, err
}

func (w *Worker) run(ctx context.Context, now time.Time) (*Summary, error) {
	summary := &Summary{WorkerID: w.id}

	released, err := w.ReapOrphans(ctx)
	if err != nil {
		// Stale claims wait for the next run.
		w.logger.Error("Failed to release orphaned claims", "error", err)
	}
	summary.Released = released

	// Any organization's local day ends within 24 hours of now.
	orgs, err := w.store.ListOrganizationsWithDueEvents(ctx, now.Add(24*time.Hour))
	if err != nil {
		return summary, fmt.Errorf("list organizations: %w", err)
	}

	deadline := now.Add(w.config.RunBudget)

	var (
		mu       sync.Mutex
		g        errgroup.Group
		deferred int
	)
	g.SetLimit(w.config.OrgConcurrency)

	for _, org := range orgs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Checked once a slot is free, i.e. when the organization would
			// actually start.
			if w.clock.Now().After(deadline) {
				metrics.OrganizationSkipped(skipBudget)
				mu.Lock()
				summary.BudgetExceeded = true
				deferred++
				mu.Unlock()
				return nil
			}

			part, ok := w.runOrganization(ctx, org)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				summary.Organizations++
			}
			summary.merge(part)
			return nil
		})
	}
	_ = g.Wait()

	if summary.BudgetExceeded {
		w.logger.Warn("Run budget exceeded, remaining organizations deferred to next run",
			"remaining", deferred,
			"budget", w.config.RunBudget,
		)
	}

	return summary, nil
}

// runOrganization gates, claims and processes one organization's batch.
// ok is false when the organization was skipped.
func (w *Worker) runOrganization(ctx context.Context, org repository.Organization) (part Summary, ok bool) {
	logger := w.logger.With("organization_id", org.ID)
	now := w.clock.Now()
	local := now.In(calendar.LoadLocation(org.Timezone))

	if !w.calendar.IsBusinessDay(local) {
		metrics.OrganizationSkipped(skipNonBusinessDay)
		logger.Debug("Skipping organization, not a business day", "local_time", local)
		return part, false
	}
	if !calendar.WithinWindow(local, int(org.SendWindowStart), int(org.SendWindowEnd)) {
		metrics.OrganizationSkipped(skipOutsideWindow)
		logger.Debug("Skipping organization, outside send window", "local_time", local)
		return part, false
	}

	// Resolved before claiming so a failure leaves nothing claimed.
	ent, err := w.entitlements.Resolve(ctx, org)
	if err != nil {
		metrics.OrganizationSkipped(skipError)
		logger.Error("Failed to resolve entitlements", "error", err)
		return part, false
	}

	dayStart, dayEnd := calendar.DayBounds(local)
	events, err := w.store.ClaimDueCadenceEvents(ctx, repository.ClaimDueCadenceEventsParams{
		Now:            now,
		WorkerID:       w.id,
		OrganizationID: org.ID,
		WindowStart:    dayStart.AddDate(0, 0, -w.config.LookbackDays),
		WindowEnd:      dayEnd,
		BatchSize:      int32(w.config.BatchSize),
	})
	if err != nil {
		metrics.OrganizationSkipped(skipError)
		logger.Error("Failed to claim cadence events", "error", err)
		return part, false
	}
	metrics.EventsClaimed(len(events))
	if len(events) == 0 {
		return part, true
	}

	logger.Info("Claimed cadence events", "count", len(events))
	slices.SortStableFunc(events, claimOrder)

	// Claimed events are always driven out of the claimed state, even if the
	// caller goes away.
	processCtx := context.WithoutCancel(ctx)
	for _, ev := range events {
		part.add(w.handler.Process(processCtx, w.id, org, *ent, ev))
	}

	return part, true
}

// claimOrder sorts by priority, highest first, then by scheduled time.
func claimOrder(a, b repository.CadenceEvent) int {
	if a.Priority != b.Priority {
		return cmp.Compare(b.Priority, a.Priority)
	}
	return a.ScheduledFor.Compare(b.ScheduledFor)
}

// recordRun writes the run to cadence_runs. Failures are logged only.
func (w *Worker) recordRun(ctx context.Context, started, finished time.Time, summary *Summary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		w.logger.Error("Failed to encode run summary", "error", err)
		return
	}
	if err := w.store.CreateCadenceRun(ctx, repository.CreateCadenceRunParams{
		WorkerID:   w.id,
		StartedAt:  started,
		FinishedAt: finished,
		Summary:    raw,
	}); err != nil {
		w.logger.Error("Failed to record cadence run", "error", err)
	}
}

// Start runs a batch every PollInterval until Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("Worker started", "poll_interval", w.config.PollInterval)
}

// Stop signals the loop to stop and waits for a running batch to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, a batch may still be running")
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
				w.logger.Error("Scheduled cadence run failed", "error", err)
			}
		}
	}
}
