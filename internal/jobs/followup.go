package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/email"
	"github.com/DukeRupert/relance/internal/metrics"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/DukeRupert/relance/internal/worker"
	"github.com/badoux/checkmail"
	"github.com/google/uuid"
)

// errClaimLost rolls back a transition whose guarded update matched no row.
var errClaimLost = errors.New("cadence event claim lost")

// AutoSendEnabled reports whether follow-up emails go out automatically. Both
// the deployment-wide toggle and the organization's entitlement must allow it.
func AutoSendEnabled(global bool, ent domain.Entitlements) bool {
	return global && ent.AutoEmailEnabled
}

// FollowUpProcessor applies the follow-up decision table to claimed cadence
// events. It holds no state between events; every claim is evaluated afresh.
type FollowUpProcessor struct {
	store     repository.Querier
	inTx      service.TxRunner
	mailer    email.Mailer
	clock     clock.Clock
	autoEmail bool
	logger    *slog.Logger
}

// NewFollowUpProcessor creates a new processor. autoEmail is the global
// automatic-sending toggle.
func NewFollowUpProcessor(
	store repository.Querier,
	inTx service.TxRunner,
	mailer email.Mailer,
	clk clock.Clock,
	autoEmail bool,
	logger *slog.Logger,
) *FollowUpProcessor {
	return &FollowUpProcessor{
		store:     store,
		inTx:      inTx,
		mailer:    mailer,
		clock:     clk,
		autoEmail: autoEmail,
		logger:    logger,
	}
}

// transition is the write set for one event.
type transition struct {
	status       domain.CadenceEventStatus
	skipReason   string
	cancelReason string
	errorMessage string
	task         *taskSpec
	advance      bool
}

type taskSpec struct {
	kind         domain.TaskKind
	title        string
	templateCode string
}

// Process drives one claimed event to its next state. Errors and panics are
// contained: the event is marked failed and the caller moves on.
func (p *FollowUpProcessor) Process(ctx context.Context, workerID string, org repository.Organization, ent domain.Entitlements, ev repository.CadenceEvent) (result worker.EventResult) {
	logger := p.logger.With(
		"worker_id", workerID,
		"organization_id", ev.OrganizationID,
		"event_id", ev.ID,
		"quote_id", ev.QuoteID,
		"event_type", ev.EventType,
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic processing cadence event", "panic", r, "stack", string(debug.Stack()))
			result = p.fail(ctx, workerID, ev, fmt.Sprintf("panic: %v", r), logger)
		}
		metrics.EventProcessed(ev.EventType, string(result.Outcome))
	}()

	t, err := p.decide(ctx, org, ent, ev, logger)
	if err != nil {
		logger.Error("Cadence event failed", "error", err)
		return p.fail(ctx, workerID, ev, err.Error(), logger)
	}

	return p.apply(ctx, workerID, ev, t, logger)
}

// decide evaluates the decision table. Only the email send happens here;
// every database write is left to apply.
func (p *FollowUpProcessor) decide(ctx context.Context, org repository.Organization, ent domain.Entitlements, ev repository.CadenceEvent, logger *slog.Logger) (transition, error) {
	quote, err := p.store.GetQuoteWithContact(ctx, ev.QuoteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transition{status: domain.CadenceStatusCancelled, cancelReason: domain.CancelReasonQuoteMissing}, nil
		}
		return transition{}, fmt.Errorf("load quote: %w", err)
	}

	if domain.QuoteStatus(quote.Status).StopsCadence() {
		return transition{status: domain.CadenceStatusCancelled, cancelReason: domain.CancelReasonStatusChanged}, nil
	}

	eventType := domain.CadenceEventType(ev.EventType)
	if !eventType.IsValid() {
		return transition{}, fmt.Errorf("unknown cadence event type %q", ev.EventType)
	}
	contact := contactLabel(quote)

	if !eventType.IsEmail() {
		return transition{
			status:  domain.CadenceStatusCompleted,
			task:    &taskSpec{kind: domain.TaskKindCall, title: fmt.Sprintf("Call %s about quote %s", contact, quote.Number)},
			advance: true,
		}, nil
	}
	templateCode := eventType.TemplateCode()
	emailTask := &taskSpec{
		kind:         domain.TaskKindEmail,
		title:        fmt.Sprintf("Send follow-up email to %s for quote %s", contact, quote.Number),
		templateCode: templateCode,
	}

	recipient := strings.ToLower(strings.TrimSpace(quote.ContactEmail.String))
	if recipient == "" || checkmail.ValidateFormat(recipient) != nil {
		return transition{
			status:     domain.CadenceStatusSkipped,
			skipReason: domain.SkipReasonNoEmail,
			task:       &taskSpec{kind: domain.TaskKindCall, title: fmt.Sprintf("Call %s about quote %s (no email on file)", contact, quote.Number)},
			advance:    true,
		}, nil
	}

	suppressed, err := p.store.ListSuppressedEmails(ctx, repository.ListSuppressedEmailsParams{
		OrganizationID: org.ID,
		Emails:         []string{recipient},
	})
	if err != nil {
		return transition{}, fmt.Errorf("check suppression list: %w", err)
	}
	if len(suppressed) > 0 {
		return transition{status: domain.CadenceStatusSkipped, skipReason: domain.SkipReasonSuppressed, advance: true}, nil
	}

	if !AutoSendEnabled(p.autoEmail, ent) {
		return transition{status: domain.CadenceStatusCompleted, task: emailTask, advance: true}, nil
	}

	msg := email.Message{
		Organization:   org,
		Quote:          quote,
		CadenceEventID: ev.ID,
		TemplateCode:   templateCode,
	}
	if ent.BccInboundEnabled && org.BccInboundAddress.Valid {
		msg.Bcc = org.BccInboundAddress.String
	}

	res, err := p.mailer.Send(ctx, msg)
	switch {
	case errors.Is(err, email.ErrNoSMTP):
		return transition{status: domain.CadenceStatusSkipped, skipReason: domain.SkipReasonNoSMTP, task: emailTask}, nil
	case errors.Is(err, email.ErrNoTemplate):
		return transition{status: domain.CadenceStatusSkipped, skipReason: domain.SkipReasonNoTemplate, task: emailTask}, nil
	case err != nil:
		logger.Warn("Automatic send failed, falling back to a manual task", "error", err)
		return transition{status: domain.CadenceStatusFailed, errorMessage: err.Error(), task: emailTask}, nil
	case res.Status == email.StatusDeferred:
		logger.Debug("Send deferred", "reason", res.Reason)
		return transition{status: domain.CadenceStatusDeferred}, nil
	default:
		return transition{status: domain.CadenceStatusSent, advance: true}, nil
	}
}

// apply writes the transition. The guarded event update comes first so a lost
// claim rolls back before any task or stage write.
func (p *FollowUpProcessor) apply(ctx context.Context, workerID string, ev repository.CadenceEvent, t transition, logger *slog.Logger) worker.EventResult {
	if t.status == domain.CadenceStatusDeferred {
		n, err := p.store.DeferCadenceEvent(ctx, repository.DeferCadenceEventParams{ID: ev.ID, WorkerID: workerID})
		if err != nil {
			logger.Error("Failed to defer cadence event", "error", err)
			return worker.EventResult{Outcome: worker.OutcomeFailed}
		}
		if n == 0 {
			logger.Warn("Cadence event claim lost before deferral")
			return worker.EventResult{Outcome: worker.OutcomeLost}
		}
		return worker.EventResult{Outcome: worker.OutcomeDeferred}
	}

	now := p.clock.Now()
	err := p.inTx(ctx, func(q repository.Querier) error {
		n, err := q.FinishCadenceEvent(ctx, repository.FinishCadenceEventParams{
			Status:       string(t.status),
			SkipReason:   nullString(t.skipReason),
			CancelReason: nullString(t.cancelReason),
			ErrorMessage: nullString(t.errorMessage),
			ProcessedAt:  now,
			ID:           ev.ID,
			WorkerID:     workerID,
		})
		if err != nil {
			return fmt.Errorf("finish event: %w", err)
		}
		if n == 0 {
			return errClaimLost
		}

		if t.task != nil {
			if _, err := q.CreateTask(ctx, repository.CreateTaskParams{
				OrganizationID: ev.OrganizationID,
				QuoteID:        ev.QuoteID,
				CadenceEventID: uuid.NullUUID{UUID: ev.ID, Valid: true},
				Kind:           string(t.task.kind),
				Title:          t.task.title,
				TemplateCode:   nullString(t.task.templateCode),
				DueAt:          now,
			}); err != nil {
				return fmt.Errorf("create task: %w", err)
			}
		}

		if t.advance {
			if stage, ok := domain.CadenceEventType(ev.EventType).NextStage(); ok {
				if err := q.UpdateQuotePipelineStage(ctx, repository.UpdateQuotePipelineStageParams{
					ID:            ev.QuoteID,
					PipelineStage: string(stage),
				}); err != nil {
					return fmt.Errorf("advance stage: %w", err)
				}
			}
		}
		return nil
	})
	if errors.Is(err, errClaimLost) {
		logger.Warn("Cadence event claim lost, transition discarded", "status", t.status)
		return worker.EventResult{Outcome: worker.OutcomeLost}
	}
	if err != nil {
		if t.status == domain.CadenceStatusFailed {
			logger.Error("Failed to record cadence event failure", "error", err)
			return worker.EventResult{Outcome: worker.OutcomeFailed}
		}
		logger.Error("Failed to apply cadence event transition", "error", err, "status", t.status)
		return p.fail(ctx, workerID, ev, err.Error(), logger)
	}

	if t.task != nil {
		metrics.TaskCreated(string(t.task.kind))
	}
	logger.Info("Cadence event processed",
		"status", t.status,
		"skip_reason", t.skipReason,
		"cancel_reason", t.cancelReason,
		"task", t.task != nil,
	)

	return worker.EventResult{Outcome: outcomeFor(t.status), TaskCreated: t.task != nil}
}

// fail marks the event failed without a task.
func (p *FollowUpProcessor) fail(ctx context.Context, workerID string, ev repository.CadenceEvent, msg string, logger *slog.Logger) worker.EventResult {
	res := p.apply(ctx, workerID, ev, transition{status: domain.CadenceStatusFailed, errorMessage: msg}, logger)
	if res.Outcome == worker.OutcomeLost {
		return res
	}
	return worker.EventResult{Outcome: worker.OutcomeFailed}
}

func outcomeFor(status domain.CadenceEventStatus) worker.Outcome {
	switch status {
	case domain.CadenceStatusCompleted:
		return worker.OutcomeCompleted
	case domain.CadenceStatusSent:
		return worker.OutcomeSent
	case domain.CadenceStatusSkipped:
		return worker.OutcomeSkipped
	case domain.CadenceStatusCancelled:
		return worker.OutcomeCancelled
	case domain.CadenceStatusDeferred:
		return worker.OutcomeDeferred
	}
	return worker.OutcomeFailed
}

func contactLabel(q repository.GetQuoteWithContactRow) string {
	if q.ContactName.Valid && q.ContactName.String != "" {
		return q.ContactName.String
	}
	return "the client"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ worker.EventHandler = (*FollowUpProcessor)(nil)
