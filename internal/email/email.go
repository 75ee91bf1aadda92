// Package email delivers automatic quote follow-up emails.
//
// A Mailer renders the organization's active template for a cadence step and
// sends it through the organization's own SMTP account. Sends that would land
// outside the recipient's send window, or over the account's daily limit, are
// reported as deferred instead of failing.
package email

import (
	"context"
	"errors"

	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Mailer sends one follow-up email.
//
// A nil error with StatusDeferred means the send should be retried later.
// ErrNoSMTP and ErrNoTemplate are configuration gaps on the organization's
// side; any other error is a delivery failure.
type Mailer interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// Transport delivers a composed message over SMTP.
type Transport interface {
	Send(ctx context.Context, settings repository.SmtpSetting, m *gomail.Message) error
}

// =============================================================================
// Data Types
// =============================================================================

// Message is a follow-up email for one cadence event.
type Message struct {
	Organization   repository.Organization
	Quote          repository.GetQuoteWithContactRow
	CadenceEventID uuid.UUID
	TemplateCode   string

	// Bcc is the organization's inbound archive address, empty when BCC
	// inbound is not enabled.
	Bcc string
}

// Status is the outcome of a send that did not error.
type Status string

const (
	StatusSent     Status = "sent"
	StatusDeferred Status = "deferred"
)

// Deferral reasons.
const (
	DeferOutsideWindow = "outside_window"
	DeferDailyLimit    = "daily_limit"
)

// Result reports what happened to a message.
type Result struct {
	Status    Status
	Reason    string
	MessageID string
}

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoSMTP is returned when the organization has no SMTP settings.
	ErrNoSMTP = errors.New("no smtp settings configured")

	// ErrNoTemplate is returned when no active template exists for the code.
	ErrNoTemplate = errors.New("no active email template")
)
