package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DukeRupert/relance/internal/calendar"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
)

// PlannedEvent is one step of a cadence before it is persisted.
type PlannedEvent struct {
	Type         domain.CadenceEventType
	ScheduledFor time.Time
	Priority     int32
}

// CadenceGenerator seeds the cadence event store for a quote. Its methods take
// the querier explicitly so they run inside the caller's transaction.
type CadenceGenerator struct {
	calendar *calendar.Calendar
}

// NewCadenceGenerator creates a generator using cal for business-day rules.
func NewCadenceGenerator(cal *calendar.Calendar) *CadenceGenerator {
	return &CadenceGenerator{calendar: cal}
}

// Plan computes the schedule anchored on sentAt. Offsets are added in the
// organization's time zone and rolled forward to the next business day,
// keeping the local time of day.
func (g *CadenceGenerator) Plan(sentAt time.Time, loc *time.Location) []PlannedEvent {
	local := sentAt.In(loc)

	planned := make([]PlannedEvent, 0, len(domain.CadenceSchedule))
	for _, step := range domain.CadenceSchedule {
		at := g.calendar.RollForward(local.AddDate(0, 0, step.OffsetDays))
		planned = append(planned, PlannedEvent{
			Type:         step.Type,
			ScheduledFor: at.UTC(),
			Priority:     step.Priority,
		})
	}
	return planned
}

// Generate inserts the four scheduled events for a first send.
func (g *CadenceGenerator) Generate(ctx context.Context, q repository.Querier, orgID, quoteID uuid.UUID, sentAt time.Time, loc *time.Location) ([]domain.CadenceEvent, error) {
	planned := g.Plan(sentAt, loc)

	events := make([]domain.CadenceEvent, 0, len(planned))
	for _, p := range planned {
		ev, err := q.CreateCadenceEvent(ctx, repository.CreateCadenceEventParams{
			OrganizationID: orgID,
			QuoteID:        quoteID,
			EventType:      string(p.Type),
			ScheduledFor:   p.ScheduledFor,
			Priority:       p.Priority,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s event: %w", p.Type, err)
		}
		events = append(events, repoCadenceEventToDomain(ev))
	}
	return events, nil
}

// Regenerate cancels every live event of the quote with reason "resend" and
// generates a fresh batch anchored on sentAt. It returns the number of
// cancelled events.
func (g *CadenceGenerator) Regenerate(ctx context.Context, q repository.Querier, orgID, quoteID uuid.UUID, sentAt time.Time, loc *time.Location) (int64, []domain.CadenceEvent, error) {
	cancelled, err := q.CancelOpenCadenceEventsForQuote(ctx, repository.CancelOpenCadenceEventsForQuoteParams{
		CancelReason: domain.CancelReasonResend,
		Now:          sentAt,
		QuoteID:      quoteID,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("cancel open events: %w", err)
	}

	events, err := g.Generate(ctx, q, orgID, quoteID, sentAt, loc)
	if err != nil {
		return 0, nil, err
	}
	return cancelled, events, nil
}
