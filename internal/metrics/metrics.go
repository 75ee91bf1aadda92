package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relance"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			// The cron route blocks for a whole batch run
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Cadence batch metrics
var (
	CadenceRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cadence_runs_total",
			Help:      "Total number of cadence batch runs",
		},
		[]string{"result"}, // "completed", "budget_exceeded" or "error"
	)

	CadenceRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cadence_run_duration_seconds",
			Help:      "Cadence batch run duration distribution",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	CadenceEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cadence_events_total",
			Help:      "Total number of cadence events processed, by outcome",
		},
		[]string{"event_type", "outcome"},
	)

	CadenceEventsClaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cadence_events_claimed_total",
			Help:      "Total number of cadence events claimed by this process",
		},
	)

	CadenceOrphansReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cadence_orphans_released_total",
			Help:      "Total number of stale claims returned to scheduled",
		},
	)

	CadenceOrganizationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cadence_organizations_skipped_total",
			Help:      "Organizations skipped by a batch run",
		},
		[]string{"reason"}, // "not_business_day", "outside_window" or "error"
	)
)

// Business metrics
var (
	MarkSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mark_sent_total",
			Help:      "Mark-sent requests by result",
		},
		[]string{"result"},
	)

	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Follow-up emails by delivery status",
		},
		[]string{"status"}, // "sent", "deferred" or "failed"
	)

	TasksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Manual follow-up tasks created",
		},
		[]string{"kind"},
	)
)
