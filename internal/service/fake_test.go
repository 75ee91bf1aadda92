package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/DukeRupert/relance/internal/calendar"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
)

// fakeQuerier is an in-memory repository for the queries the services use.
// Unimplemented methods panic through the nil embedded interface.
type fakeQuerier struct {
	repository.Querier

	orgs          map[uuid.UUID]repository.Organization
	subscriptions map[uuid.UUID]repository.GetSubscriptionWithPlanRow
	usage         map[string]int32
	quotes        map[uuid.UUID]repository.Quote
	events        []repository.CadenceEvent

	usageErr error
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		orgs:          make(map[uuid.UUID]repository.Organization),
		subscriptions: make(map[uuid.UUID]repository.GetSubscriptionWithPlanRow),
		usage:         make(map[string]int32),
		quotes:        make(map[uuid.UUID]repository.Quote),
	}
}

func usageKey(orgID uuid.UUID, start, end time.Time) string {
	return orgID.String() + "|" + start.UTC().Format(time.RFC3339) + "|" + end.UTC().Format(time.RFC3339)
}

func (f *fakeQuerier) GetOrganization(_ context.Context, id uuid.UUID) (repository.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return repository.Organization{}, sql.ErrNoRows
	}
	return org, nil
}

func (f *fakeQuerier) GetOrganizationByStripeCustomerID(_ context.Context, customerID sql.NullString) (repository.Organization, error) {
	for _, org := range f.orgs {
		if org.StripeCustomerID == customerID {
			return org, nil
		}
	}
	return repository.Organization{}, sql.ErrNoRows
}

func (f *fakeQuerier) UpsertSubscription(_ context.Context, arg repository.UpsertSubscriptionParams) error {
	sub, ok := f.subscriptions[arg.OrganizationID]
	if !ok {
		sub = repository.GetSubscriptionWithPlanRow{ID: uuid.New(), OrganizationID: arg.OrganizationID}
	}
	sub.Status = arg.Status
	sub.StripeSubscriptionID = arg.StripeSubscriptionID
	sub.CurrentPeriodStart = arg.CurrentPeriodStart
	sub.CurrentPeriodEnd = arg.CurrentPeriodEnd
	if arg.PlanName.Valid {
		sub.PlanName = arg.PlanName
	}
	f.subscriptions[arg.OrganizationID] = sub
	return nil
}

func (f *fakeQuerier) UpdateSubscriptionStatusByStripeID(_ context.Context, arg repository.UpdateSubscriptionStatusByStripeIDParams) (int64, error) {
	var n int64
	for id, sub := range f.subscriptions {
		if sub.StripeSubscriptionID == arg.StripeSubscriptionID {
			sub.Status = arg.Status
			f.subscriptions[id] = sub
			n++
		}
	}
	return n, nil
}

func (f *fakeQuerier) GetSubscriptionWithPlan(_ context.Context, orgID uuid.UUID) (repository.GetSubscriptionWithPlanRow, error) {
	sub, ok := f.subscriptions[orgID]
	if !ok {
		return repository.GetSubscriptionWithPlanRow{}, sql.ErrNoRows
	}
	return sub, nil
}

func (f *fakeQuerier) GetUsageCount(_ context.Context, arg repository.GetUsageCountParams) (int32, error) {
	if f.usageErr != nil {
		return 0, f.usageErr
	}
	return f.usage[usageKey(arg.OrganizationID, arg.PeriodStart, arg.PeriodEnd)], nil
}

func (f *fakeQuerier) IncrementUsageCounter(_ context.Context, arg repository.IncrementUsageCounterParams) (int32, error) {
	key := usageKey(arg.OrganizationID, arg.PeriodStart, arg.PeriodEnd)
	f.usage[key]++
	return f.usage[key], nil
}

func (f *fakeQuerier) IncrementTrialSentUsed(_ context.Context, id uuid.UUID) (int32, error) {
	org := f.orgs[id]
	org.TrialSentUsed++
	f.orgs[id] = org
	return org.TrialSentUsed, nil
}

func (f *fakeQuerier) GetQuoteForUpdate(_ context.Context, arg repository.GetQuoteForUpdateParams) (repository.Quote, error) {
	q, ok := f.quotes[arg.ID]
	if !ok || q.OrganizationID != arg.OrganizationID {
		return repository.Quote{}, sql.ErrNoRows
	}
	return q, nil
}

func (f *fakeQuerier) MarkQuoteFirstSent(_ context.Context, arg repository.MarkQuoteFirstSentParams) error {
	q := f.quotes[arg.ID]
	q.Status = "sent"
	q.PipelineStage = arg.PipelineStage
	q.FirstSentAt = arg.FirstSentAt
	q.SentAt = arg.FirstSentAt
	f.quotes[arg.ID] = q
	return nil
}

func (f *fakeQuerier) MarkQuoteResent(_ context.Context, arg repository.MarkQuoteResentParams) error {
	q := f.quotes[arg.ID]
	q.Status = "sent"
	q.SentAt = arg.SentAt
	q.PipelineStage = arg.PipelineStage
	q.ResendCount = arg.ResendCount
	q.ResendResetAt = arg.ResendResetAt
	f.quotes[arg.ID] = q
	return nil
}

func (f *fakeQuerier) CreateCadenceEvent(_ context.Context, arg repository.CreateCadenceEventParams) (repository.CadenceEvent, error) {
	ev := repository.CadenceEvent{
		ID:             uuid.New(),
		OrganizationID: arg.OrganizationID,
		QuoteID:        arg.QuoteID,
		EventType:      arg.EventType,
		ScheduledFor:   arg.ScheduledFor,
		Status:         "scheduled",
		Priority:       arg.Priority,
	}
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeQuerier) CancelOpenCadenceEventsForQuote(_ context.Context, arg repository.CancelOpenCadenceEventsForQuoteParams) (int64, error) {
	var n int64
	for i, ev := range f.events {
		if ev.QuoteID != arg.QuoteID {
			continue
		}
		switch ev.Status {
		case "scheduled", "claimed", "deferred", "failed":
			f.events[i].Status = "cancelled"
			f.events[i].CancelReason = sql.NullString{String: arg.CancelReason, Valid: true}
			f.events[i].ClaimedBy = sql.NullString{}
			f.events[i].ClaimedAt = sql.NullTime{}
			n++
		}
	}
	return n, nil
}

func (f *fakeQuerier) eventsByStatus(quoteID uuid.UUID, status string) []repository.CadenceEvent {
	var out []repository.CadenceEvent
	for _, ev := range f.events {
		if ev.QuoteID == quoteID && ev.Status == status {
			out = append(out, ev)
		}
	}
	return out
}

// directTx runs fn against the fake without a real transaction. Writes made
// before an error are not undone; tests account for that explicitly.
func directTx(q repository.Querier) TxRunner {
	return func(_ context.Context, fn func(repository.Querier) error) error {
		return fn(q)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustCalendar(holidays ...string) *calendar.Calendar {
	cal, err := calendar.New(holidays)
	if err != nil {
		panic(err)
	}
	return cal
}
