package domain

// QuoteStatus is the business status of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft       QuoteStatus = "draft"
	QuoteStatusSent        QuoteStatus = "sent"
	QuoteStatusNegotiation QuoteStatus = "negotiation"
	QuoteStatusWon         QuoteStatus = "won"
	QuoteStatusLost        QuoteStatus = "lost"
)

// StopsCadence reports whether follow-ups must stop for a quote in this status.
func (s QuoteStatus) StopsCadence() bool {
	switch s {
	case QuoteStatusWon, QuoteStatusLost, QuoteStatusNegotiation:
		return true
	}
	return false
}

// PipelineStage is the follow-up marker stored on the quote.
type PipelineStage string

const (
	PipelineStageNew       PipelineStage = "new"
	PipelineStageFollowD1  PipelineStage = "fup_d1"
	PipelineStageFollowD3  PipelineStage = "fup_d3"
	PipelineStageFollowD7  PipelineStage = "fup_d7"
	PipelineStageFollowD14 PipelineStage = "fup_d14"
	PipelineStageCompleted PipelineStage = "completed"
)

// MaxResendsPerMonth is the default anti-abuse cap on forced resends of one quote.
const MaxResendsPerMonth = 3
