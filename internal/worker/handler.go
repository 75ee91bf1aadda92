package worker

import (
	"context"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
)

// EventHandler drives one claimed cadence event to its next state.
//
// Implementations must not return until the event has left the claimed state
// (or the claim was found lost), and must contain their own panics.
type EventHandler interface {
	Process(ctx context.Context, workerID string, org repository.Organization, ent domain.Entitlements, ev repository.CadenceEvent) EventResult
}

// EntitlementsResolver computes an organization's entitlements.
type EntitlementsResolver interface {
	Resolve(ctx context.Context, org repository.Organization) (*domain.Entitlements, error)
}

// Outcome is what happened to one claimed event.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSent      Outcome = "sent"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeDeferred  Outcome = "deferred"
	OutcomeFailed    Outcome = "failed"
	// OutcomeLost means the claim was released or cancelled while the event
	// was being processed; nothing was written.
	OutcomeLost Outcome = "lost"
)

// EventResult is returned for every processed event.
type EventResult struct {
	Outcome     Outcome
	TaskCreated bool
}
