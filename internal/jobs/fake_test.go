package jobs

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/DukeRupert/relance/internal/email"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/google/uuid"
)

// fakeStore keeps just enough state to check the decision table.
type fakeStore struct {
	repository.Querier

	quotes     map[uuid.UUID]repository.GetQuoteWithContactRow
	suppressed map[string]bool
	events     map[uuid.UUID]repository.CadenceEvent
	tasks      []repository.CreateTaskParams
	stages     map[uuid.UUID]string

	quoteErr error
	taskErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quotes:     make(map[uuid.UUID]repository.GetQuoteWithContactRow),
		suppressed: make(map[string]bool),
		events:     make(map[uuid.UUID]repository.CadenceEvent),
		stages:     make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) GetQuoteWithContact(_ context.Context, id uuid.UUID) (repository.GetQuoteWithContactRow, error) {
	if f.quoteErr != nil {
		return repository.GetQuoteWithContactRow{}, f.quoteErr
	}
	q, ok := f.quotes[id]
	if !ok {
		return repository.GetQuoteWithContactRow{}, sql.ErrNoRows
	}
	return q, nil
}

func (f *fakeStore) ListSuppressedEmails(_ context.Context, arg repository.ListSuppressedEmailsParams) ([]string, error) {
	// lower(email) = ANY($2): stored addresses are folded, arguments are not
	var out []string
	for stored := range f.suppressed {
		if slices.Contains(arg.Emails, strings.ToLower(stored)) {
			out = append(out, stored)
		}
	}
	return out, nil
}

func (f *fakeStore) FinishCadenceEvent(_ context.Context, arg repository.FinishCadenceEventParams) (int64, error) {
	ev, ok := f.events[arg.ID]
	if !ok || ev.Status != "claimed" || ev.ClaimedBy.String != arg.WorkerID {
		return 0, nil
	}
	ev.Status = arg.Status
	ev.SkipReason = arg.SkipReason
	ev.CancelReason = arg.CancelReason
	ev.ErrorMessage = arg.ErrorMessage
	ev.ProcessedAt = sql.NullTime{Time: arg.ProcessedAt, Valid: true}
	ev.ClaimedAt = sql.NullTime{}
	ev.ClaimedBy = sql.NullString{}
	f.events[arg.ID] = ev
	return 1, nil
}

func (f *fakeStore) DeferCadenceEvent(_ context.Context, arg repository.DeferCadenceEventParams) (int64, error) {
	ev, ok := f.events[arg.ID]
	if !ok || ev.Status != "claimed" || ev.ClaimedBy.String != arg.WorkerID {
		return 0, nil
	}
	ev.Status = "scheduled"
	ev.ClaimedAt = sql.NullTime{}
	ev.ClaimedBy = sql.NullString{}
	f.events[arg.ID] = ev
	return 1, nil
}

func (f *fakeStore) CreateTask(_ context.Context, arg repository.CreateTaskParams) (repository.Task, error) {
	if f.taskErr != nil {
		return repository.Task{}, f.taskErr
	}
	f.tasks = append(f.tasks, arg)
	return repository.Task{ID: uuid.New(), Kind: arg.Kind, Title: arg.Title}, nil
}

func (f *fakeStore) UpdateQuotePipelineStage(_ context.Context, arg repository.UpdateQuotePipelineStageParams) error {
	f.stages[arg.ID] = arg.PipelineStage
	return nil
}

// fakeMailer returns a canned result.
type fakeMailer struct {
	result email.Result
	err    error
	calls  []email.Message
	panics bool
}

func (m *fakeMailer) Send(_ context.Context, msg email.Message) (email.Result, error) {
	if m.panics {
		panic("smtp client exploded")
	}
	m.calls = append(m.calls, msg)
	return m.result, m.err
}

// tx runs fn against the fake and restores the previous state on error.
func (f *fakeStore) tx() service.TxRunner {
	return func(_ context.Context, fn func(repository.Querier) error) error {
		events := make(map[uuid.UUID]repository.CadenceEvent, len(f.events))
		for k, v := range f.events {
			events[k] = v
		}
		stages := make(map[uuid.UUID]string, len(f.stages))
		for k, v := range f.stages {
			stages[k] = v
		}
		tasks := len(f.tasks)

		if err := fn(f); err != nil {
			f.events, f.stages, f.tasks = events, stages, f.tasks[:tasks]
			return err
		}
		return nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
