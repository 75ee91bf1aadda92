package metrics

import "time"

// RunFinished records a completed batch run.
func RunFinished(duration time.Duration, budgetExceeded bool) {
	result := "completed"
	if budgetExceeded {
		result = "budget_exceeded"
	}
	CadenceRunsTotal.WithLabelValues(result).Inc()
	CadenceRunDuration.Observe(duration.Seconds())
}

// RunFailed records a batch run that could not start or finish.
func RunFailed() {
	CadenceRunsTotal.WithLabelValues("error").Inc()
}

// EventProcessed records the outcome of one cadence event
func EventProcessed(eventType, outcome string) {
	CadenceEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// EventsClaimed records a successful claim of n events
func EventsClaimed(n int) {
	if n > 0 {
		CadenceEventsClaimed.Add(float64(n))
	}
}

// OrphansReleased records claims returned to scheduled by the reaper
func OrphansReleased(n int64) {
	if n > 0 {
		CadenceOrphansReleased.Add(float64(n))
	}
}

// OrganizationSkipped records an organization left out of a run
func OrganizationSkipped(reason string) {
	CadenceOrganizationsSkipped.WithLabelValues(reason).Inc()
}

// EmailDelivered records a follow-up email attempt by status.
func EmailDelivered(status string) {
	EmailsTotal.WithLabelValues(status).Inc()
}

// TaskCreated records a manual follow-up task.
func TaskCreated(kind string) {
	TasksCreated.WithLabelValues(kind).Inc()
}

// MarkSent records a mark-sent request by result.
func MarkSent(result string) {
	MarkSentTotal.WithLabelValues(result).Inc()
}
