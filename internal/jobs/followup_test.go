package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/email"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorker = "host-01JTESTWORKER"

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store  *fakeStore
	mailer *fakeMailer
	org    repository.Organization
	quote  repository.GetQuoteWithContactRow
}

func newFixture() *fixture {
	org := repository.Organization{
		ID:                uuid.New(),
		Name:              "Acme",
		Timezone:          "UTC",
		BccInboundAddress: sql.NullString{String: "archive@in.relance.test", Valid: true},
	}
	quote := repository.GetQuoteWithContactRow{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Number:         "Q-12",
		Status:         "sent",
		ContactName:    sql.NullString{String: "Ada", Valid: true},
		ContactEmail:   sql.NullString{String: "Ada@Client.test", Valid: true},
	}
	store := newFakeStore()
	store.quotes[quote.ID] = quote
	return &fixture{store: store, mailer: &fakeMailer{result: email.Result{Status: email.StatusSent}}, org: org, quote: quote}
}

func (f *fixture) claim(eventType domain.CadenceEventType) repository.CadenceEvent {
	ev := repository.CadenceEvent{
		ID:             uuid.New(),
		OrganizationID: f.org.ID,
		QuoteID:        f.quote.ID,
		EventType:      string(eventType),
		Status:         "claimed",
		ClaimedAt:      sql.NullTime{Time: testNow, Valid: true},
		ClaimedBy:      sql.NullString{String: testWorker, Valid: true},
	}
	f.store.events[ev.ID] = ev
	return ev
}

func (f *fixture) processor(autoEmail bool) *FollowUpProcessor {
	return NewFollowUpProcessor(f.store, f.store.tx(), f.mailer, clock.NewFake(testNow), autoEmail, discardLogger())
}

var autoEntitlements = domain.Entitlements{Tier: domain.TierPaid, AutoEmailEnabled: true}

func TestAutoSendEnabled(t *testing.T) {
	assert.True(t, AutoSendEnabled(true, domain.Entitlements{AutoEmailEnabled: true}))
	assert.False(t, AutoSendEnabled(false, domain.Entitlements{AutoEmailEnabled: true}))
	assert.False(t, AutoSendEnabled(true, domain.Entitlements{AutoEmailEnabled: false}))
}

func TestProcess_Preconditions(t *testing.T) {
	for _, status := range []string{"won", "lost", "negotiation"} {
		t.Run(status, func(t *testing.T) {
			f := newFixture()
			q := f.quote
			q.Status = status
			f.store.quotes[q.ID] = q
			ev := f.claim(domain.CadenceCallD7)

			res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

			assert.Equal(t, worker.OutcomeCancelled, res.Outcome)
			got := f.store.events[ev.ID]
			assert.Equal(t, "cancelled", got.Status)
			assert.Equal(t, domain.CancelReasonStatusChanged, got.CancelReason.String)
			assert.Empty(t, f.store.tasks)
			assert.Empty(t, f.store.stages)
		})
	}

	t.Run("quote deleted", func(t *testing.T) {
		f := newFixture()
		delete(f.store.quotes, f.quote.ID)
		ev := f.claim(domain.CadenceEmailD1)

		res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

		assert.Equal(t, worker.OutcomeCancelled, res.Outcome)
		assert.Equal(t, domain.CancelReasonQuoteMissing, f.store.events[ev.ID].CancelReason.String)
	})
}

func TestProcess_CallStep(t *testing.T) {
	f := newFixture()
	ev := f.claim(domain.CadenceCallD7)

	res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

	assert.Equal(t, worker.EventResult{Outcome: worker.OutcomeCompleted, TaskCreated: true}, res)
	require.Len(t, f.store.tasks, 1)
	assert.Equal(t, "call", f.store.tasks[0].Kind)
	assert.Equal(t, "Call Ada about quote Q-12", f.store.tasks[0].Title)
	assert.Equal(t, "fup_d14", f.store.stages[f.quote.ID])
	assert.Empty(t, f.mailer.calls)

	got := f.store.events[ev.ID]
	assert.Equal(t, "completed", got.Status)
	assert.False(t, got.ClaimedBy.Valid)
	assert.False(t, got.ClaimedAt.Valid)
}

func TestProcess_NoEmail(t *testing.T) {
	for name, addr := range map[string]sql.NullString{
		"null":    {},
		"blank":   {String: "  ", Valid: true},
		"invalid": {String: "not-an-address", Valid: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			q := f.quote
			q.ContactEmail = addr
			f.store.quotes[q.ID] = q
			ev := f.claim(domain.CadenceEmailD3)

			res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

			assert.Equal(t, worker.EventResult{Outcome: worker.OutcomeSkipped, TaskCreated: true}, res)
			require.Len(t, f.store.tasks, 1)
			assert.Equal(t, "call", f.store.tasks[0].Kind)
			assert.Equal(t, domain.SkipReasonNoEmail, f.store.events[ev.ID].SkipReason.String)
			assert.Equal(t, "fup_d7", f.store.stages[q.ID])
			assert.Empty(t, f.mailer.calls)
		})
	}
}

func TestProcess_Suppressed(t *testing.T) {
	f := newFixture()
	f.store.suppressed["ada@client.test"] = true
	ev := f.claim(domain.CadenceEmailD1)

	res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

	assert.Equal(t, worker.EventResult{Outcome: worker.OutcomeSkipped}, res)
	assert.Equal(t, domain.SkipReasonSuppressed, f.store.events[ev.ID].SkipReason.String)
	assert.Equal(t, "fup_d3", f.store.stages[f.quote.ID])
	assert.Empty(t, f.store.tasks)
	assert.Empty(t, f.mailer.calls)
}

func TestProcess_SuppressionIgnoresCase(t *testing.T) {
	f := newFixture()
	f.store.suppressed["Ada@Client.TEST"] = true
	f.quote.ContactEmail.String = "ADA@client.test"
	f.store.quotes[f.quote.ID] = f.quote
	ev := f.claim(domain.CadenceEmailD3)

	res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

	assert.Equal(t, worker.OutcomeSkipped, res.Outcome)
	assert.Equal(t, domain.SkipReasonSuppressed, f.store.events[ev.ID].SkipReason.String)
	assert.Empty(t, f.mailer.calls)
}

func TestProcess_TaskEmailMode(t *testing.T) {
	tests := []struct {
		name   string
		global bool
		ent    domain.Entitlements
	}{
		{"global toggle off", false, autoEntitlements},
		{"entitlement off", true, domain.Entitlements{Tier: domain.TierFree}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ev := f.claim(domain.CadenceEmailD14)

			res := f.processor(tt.global).Process(context.Background(), testWorker, f.org, tt.ent, ev)

			assert.Equal(t, worker.EventResult{Outcome: worker.OutcomeCompleted, TaskCreated: true}, res)
			require.Len(t, f.store.tasks, 1)
			assert.Equal(t, "email", f.store.tasks[0].Kind)
			assert.Equal(t, "email_d14", f.store.tasks[0].TemplateCode.String)
			assert.Equal(t, "completed", f.store.stages[f.quote.ID])
			assert.Empty(t, f.mailer.calls)
		})
	}
}

func TestProcess_AutoEmail(t *testing.T) {
	tests := []struct {
		name        string
		result      email.Result
		err         error
		wantOutcome worker.Outcome
		wantStatus  string
		wantReason  string
		wantTask    bool
		wantStage   bool
	}{
		{"sent", email.Result{Status: email.StatusSent}, nil, worker.OutcomeSent, "sent", "", false, true},
		{"no smtp", email.Result{}, email.ErrNoSMTP, worker.OutcomeSkipped, "skipped", domain.SkipReasonNoSMTP, true, false},
		{"no template", email.Result{}, email.ErrNoTemplate, worker.OutcomeSkipped, "skipped", domain.SkipReasonNoTemplate, true, false},
		{"failure", email.Result{}, errors.New("550 mailbox unavailable"), worker.OutcomeFailed, "failed", "", true, false},
		{"deferred", email.Result{Status: email.StatusDeferred, Reason: email.DeferOutsideWindow}, nil, worker.OutcomeDeferred, "scheduled", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.mailer.result, f.mailer.err = tt.result, tt.err
			ev := f.claim(domain.CadenceEmailD1)

			res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantTask, res.TaskCreated)
			require.Len(t, f.mailer.calls, 1)
			assert.Equal(t, "email_d1", f.mailer.calls[0].TemplateCode)

			got := f.store.events[ev.ID]
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantReason, got.SkipReason.String)
			assert.False(t, got.ClaimedBy.Valid)
			assert.False(t, got.ClaimedAt.Valid)

			if tt.wantTask {
				require.Len(t, f.store.tasks, 1)
				assert.Equal(t, "email_d1", f.store.tasks[0].TemplateCode.String)
			} else {
				assert.Empty(t, f.store.tasks)
			}
			_, advanced := f.store.stages[f.quote.ID]
			assert.Equal(t, tt.wantStage, advanced)

			if tt.err != nil && tt.wantOutcome == worker.OutcomeFailed {
				assert.Equal(t, tt.err.Error(), got.ErrorMessage.String)
			}
		})
	}
}

func TestProcess_BccInbound(t *testing.T) {
	f := newFixture()
	ev := f.claim(domain.CadenceEmailD1)
	ent := autoEntitlements
	ent.BccInboundEnabled = true

	f.processor(true).Process(context.Background(), testWorker, f.org, ent, ev)
	require.Len(t, f.mailer.calls, 1)
	assert.Equal(t, "archive@in.relance.test", f.mailer.calls[0].Bcc)

	ev = f.claim(domain.CadenceEmailD3)
	f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)
	require.Len(t, f.mailer.calls, 2)
	assert.Empty(t, f.mailer.calls[1].Bcc)
}

func TestProcess_LostClaim(t *testing.T) {
	f := newFixture()
	ev := f.claim(domain.CadenceCallD7)

	// Reaped and reclaimed by another worker meanwhile.
	stolen := f.store.events[ev.ID]
	stolen.ClaimedBy = sql.NullString{String: "other-worker", Valid: true}
	f.store.events[ev.ID] = stolen

	res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

	assert.Equal(t, worker.OutcomeLost, res.Outcome)
	assert.Empty(t, f.store.tasks)
	assert.Empty(t, f.store.stages)
	assert.Equal(t, "claimed", f.store.events[ev.ID].Status)
}

func TestProcess_RerunOverFinishedEventIsNoop(t *testing.T) {
	f := newFixture()
	ev := f.claim(domain.CadenceEmailD1)
	p := f.processor(false)

	first := p.Process(context.Background(), testWorker, f.org, autoEntitlements, ev)
	second := p.Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

	assert.Equal(t, worker.OutcomeCompleted, first.Outcome)
	assert.Equal(t, worker.OutcomeLost, second.Outcome)
	assert.Len(t, f.store.tasks, 1)
}

func TestProcess_ErrorsMarkFailed(t *testing.T) {
	t.Run("store error", func(t *testing.T) {
		f := newFixture()
		f.store.quoteErr = errors.New("connection refused")
		ev := f.claim(domain.CadenceEmailD1)

		res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

		assert.Equal(t, worker.EventResult{Outcome: worker.OutcomeFailed}, res)
		got := f.store.events[ev.ID]
		assert.Equal(t, "failed", got.Status)
		assert.Contains(t, got.ErrorMessage.String, "connection refused")
		assert.Empty(t, f.store.tasks)
	})

	t.Run("unknown event type", func(t *testing.T) {
		f := newFixture()
		ev := f.claim(domain.CadenceEventType("sms_d2"))

		res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

		assert.Equal(t, worker.OutcomeFailed, res.Outcome)
		assert.Contains(t, f.store.events[ev.ID].ErrorMessage.String, `unknown cadence event type "sms_d2"`)
		assert.Empty(t, f.store.tasks)
		assert.Empty(t, f.mailer.calls)
		assert.NotContains(t, f.store.stages, f.quote.ID)
	})

	t.Run("panic", func(t *testing.T) {
		f := newFixture()
		f.mailer.panics = true
		ev := f.claim(domain.CadenceEmailD1)

		var res worker.EventResult
		assert.NotPanics(t, func() {
			res = f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)
		})

		assert.Equal(t, worker.OutcomeFailed, res.Outcome)
		got := f.store.events[ev.ID]
		assert.Equal(t, "failed", got.Status)
		assert.Contains(t, got.ErrorMessage.String, "smtp client exploded")
	})

	t.Run("task write error", func(t *testing.T) {
		f := newFixture()
		f.store.taskErr = errors.New("disk full")
		ev := f.claim(domain.CadenceCallD7)

		res := f.processor(true).Process(context.Background(), testWorker, f.org, autoEntitlements, ev)

		assert.Equal(t, worker.EventResult{Outcome: worker.OutcomeFailed}, res)
		got := f.store.events[ev.ID]
		assert.Equal(t, "failed", got.Status)
		assert.Contains(t, got.ErrorMessage.String, "disk full")
		assert.Empty(t, f.store.stages)
	})
}
