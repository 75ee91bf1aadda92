package worker

// Summary reports one batch run.
type Summary struct {
	Success        bool   `json:"success"`
	WorkerID       string `json:"workerId"`
	Processed      int    `json:"processed"`
	TasksCreated   int    `json:"tasksCreated"`
	Skipped        int    `json:"skipped"`
	Deferred       int    `json:"deferred"`
	Cancelled      int    `json:"cancelled"`
	Failed         int    `json:"failed"`
	DurationMs     int64  `json:"durationMs"`
	Sent           int    `json:"sent"`
	Released       int64  `json:"released"`
	Organizations  int    `json:"organizations"`
	BudgetExceeded bool   `json:"budgetExceeded"`
	Error          string `json:"error,omitempty"`
}

func (s *Summary) add(res EventResult) {
	s.Processed++
	if res.TaskCreated {
		s.TasksCreated++
	}
	switch res.Outcome {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeDeferred:
		s.Deferred++
	case OutcomeCancelled:
		s.Cancelled++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSent:
		s.Sent++
	}
}

func (s *Summary) merge(o Summary) {
	s.Processed += o.Processed
	s.TasksCreated += o.TasksCreated
	s.Skipped += o.Skipped
	s.Deferred += o.Deferred
	s.Cancelled += o.Cancelled
	s.Failed += o.Failed
	s.Sent += o.Sent
}
