// Package domain contains core business types and interfaces.
//
// This file defines cadence events: the four follow-up steps scheduled when a
// quote is sent, their lifecycle states, and the pipeline stage each step
// advances the quote to.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Cadence Event Type
// =============================================================================

// CadenceEventType identifies one follow-up step.
type CadenceEventType string

const (
	CadenceEmailD1  CadenceEventType = "email_d1"
	CadenceEmailD3  CadenceEventType = "email_d3"
	CadenceCallD7   CadenceEventType = "call_d7"
	CadenceEmailD14 CadenceEventType = "email_d14"
)

// CadenceStep describes when a step runs relative to the send date.
type CadenceStep struct {
	Type       CadenceEventType
	OffsetDays int
	Priority   int32
}

// CadenceSchedule is the fixed follow-up sequence, in order. Earlier steps get
// a higher priority so they are claimed first when a batch is full.
var CadenceSchedule = []CadenceStep{
	{Type: CadenceEmailD1, OffsetDays: 1, Priority: 40},
	{Type: CadenceEmailD3, OffsetDays: 3, Priority: 30},
	{Type: CadenceCallD7, OffsetDays: 7, Priority: 20},
	{Type: CadenceEmailD14, OffsetDays: 14, Priority: 10},
}

// nextStage maps a handled step to the pipeline stage written on the quote.
var nextStage = map[CadenceEventType]PipelineStage{
	CadenceEmailD1:  PipelineStageFollowD3,
	CadenceEmailD3:  PipelineStageFollowD7,
	CadenceCallD7:   PipelineStageFollowD14,
	CadenceEmailD14: PipelineStageCompleted,
}

// String returns the string representation of the event type.
func (t CadenceEventType) String() string {
	return string(t)
}

// IsValid returns true if the event type is a recognized value.
func (t CadenceEventType) IsValid() bool {
	_, ok := nextStage[t]
	return ok
}

// IsEmail reports whether the step is an email step.
func (t CadenceEventType) IsEmail() bool {
	switch t {
	case CadenceEmailD1, CadenceEmailD3, CadenceEmailD14:
		return true
	}
	return false
}

// NextStage returns the pipeline stage reached once this step is handled.
func (t CadenceEventType) NextStage() (PipelineStage, bool) {
	stage, ok := nextStage[t]
	return stage, ok
}

// TemplateCode is the email template code associated with the step.
func (t CadenceEventType) TemplateCode() string {
	return string(t)
}

// =============================================================================
// Cadence Event Status
// =============================================================================

// CadenceEventStatus is the lifecycle state of a cadence event.
type CadenceEventStatus string

const (
	CadenceStatusScheduled CadenceEventStatus = "scheduled"
	CadenceStatusClaimed   CadenceEventStatus = "claimed"
	CadenceStatusCompleted CadenceEventStatus = "completed"
	CadenceStatusSkipped   CadenceEventStatus = "skipped"
	CadenceStatusCancelled CadenceEventStatus = "cancelled"
	CadenceStatusFailed    CadenceEventStatus = "failed"
	CadenceStatusDeferred  CadenceEventStatus = "deferred"
	CadenceStatusSent      CadenceEventStatus = "sent"
)

// IsTerminal reports whether the status is never left again, except through a
// resend that cancels and regenerates the whole cadence.
func (s CadenceEventStatus) IsTerminal() bool {
	switch s {
	case CadenceStatusCompleted, CadenceStatusCancelled, CadenceStatusSent, CadenceStatusSkipped:
		return true
	}
	return false
}

// Skip and cancel reasons recorded on events.
const (
	SkipReasonNoEmail    = "no_email"
	SkipReasonSuppressed = "suppressed"
	SkipReasonNoSMTP     = "no_smtp"
	SkipReasonNoTemplate = "no_template"

	CancelReasonStatusChanged = "status_changed"
	CancelReasonResend        = "resend"
	CancelReasonQuoteMissing  = "quote_missing"
)

// CadenceEvent is one scheduled follow-up action for a quote.
type CadenceEvent struct {
	ID             uuid.UUID          `json:"id"`
	OrganizationID uuid.UUID          `json:"organizationId"`
	QuoteID        uuid.UUID          `json:"quoteId"`
	Type           CadenceEventType   `json:"eventType"`
	ScheduledFor   time.Time          `json:"scheduledFor"`
	Status         CadenceEventStatus `json:"status"`
	Priority       int32              `json:"priority"`
}

// =============================================================================
// Tasks
// =============================================================================

// TaskKind identifies the manual action a task asks for.
type TaskKind string

const (
	TaskKindEmail TaskKind = "email"
	TaskKindCall  TaskKind = "call"
)
