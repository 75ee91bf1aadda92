package email

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/DukeRupert/relance/internal/calendar"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/locale"
	"github.com/DukeRupert/relance/internal/metrics"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/storage"
	"github.com/sqlc-dev/pqtype"
	"gopkg.in/gomail.v2"
)

// FollowUpMailer sends follow-up emails through each organization's SMTP
// account and records every attempt in email_messages.
type FollowUpMailer struct {
	store     repository.Querier
	files     storage.Storage
	transport Transport
	clock     clock.Clock
	logger    *slog.Logger
}

// NewFollowUpMailer creates a new FollowUpMailer. files may be nil, in which
// case quotes are sent without their PDF.
func NewFollowUpMailer(store repository.Querier, files storage.Storage, transport Transport, clk clock.Clock, logger *slog.Logger) *FollowUpMailer {
	return &FollowUpMailer{
		store:     store,
		files:     files,
		transport: transport,
		clock:     clk,
		logger:    logger,
	}
}

// Send renders and delivers msg, or reports it deferred.
func (m *FollowUpMailer) Send(ctx context.Context, msg Message) (Result, error) {
	org := msg.Organization
	q := msg.Quote
	recipient := strings.TrimSpace(q.ContactEmail.String)

	logger := m.logger.With(
		"organization_id", org.ID,
		"quote_id", q.ID,
		"cadence_event_id", msg.CadenceEventID,
	)

	settings, err := m.store.GetSMTPSettings(ctx, org.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrNoSMTP
		}
		return Result{}, fmt.Errorf("load smtp settings: %w", err)
	}

	tmpl, err := m.store.GetActiveEmailTemplate(ctx, repository.GetActiveEmailTemplateParams{
		OrganizationID: org.ID,
		Code:           msg.TemplateCode,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrNoTemplate
		}
		return Result{}, fmt.Errorf("load template: %w", err)
	}

	now := m.clock.Now()

	recipientLoc := calendar.LoadLocation(org.Timezone)
	if q.ContactTimezone.Valid && q.ContactTimezone.String != "" {
		recipientLoc = calendar.LoadLocation(q.ContactTimezone.String)
	}
	if !calendar.WithinWindow(now.In(recipientLoc), int(org.SendWindowStart), int(org.SendWindowEnd)) {
		logger.Debug("Send deferred", "reason", DeferOutsideWindow, "recipient_tz", recipientLoc.String())
		metrics.EmailDelivered(string(StatusDeferred))
		return Result{Status: StatusDeferred, Reason: DeferOutsideWindow}, nil
	}

	if settings.DailyLimit > 0 {
		dayStart, _ := calendar.DayBounds(now.In(calendar.LoadLocation(org.Timezone)))
		sent, err := m.store.CountEmailsSentSince(ctx, repository.CountEmailsSentSinceParams{
			OrganizationID: org.ID,
			CreatedAt:      dayStart,
		})
		if err != nil {
			return Result{}, fmt.Errorf("count sent emails: %w", err)
		}
		if sent >= int64(settings.DailyLimit) {
			logger.Info("Send deferred", "reason", DeferDailyLimit, "sent_today", sent, "daily_limit", settings.DailyLimit)
			metrics.EmailDelivered(string(StatusDeferred))
			return Result{Status: StatusDeferred, Reason: DeferDailyLimit}, nil
		}
	}

	tag := locale.FromString(org.Locale)
	data := newTemplateData(org, q)
	subject, err := renderSubject(tmpl.Subject, tag, data)
	if err != nil {
		return Result{}, err
	}
	body, err := renderBody(tmpl.Body, tag, data)
	if err != nil {
		return Result{}, err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", settings.FromEmail, settings.FromName)
	gm.SetAddressHeader("To", recipient, q.ContactName.String)
	if msg.Bcc != "" {
		gm.SetHeader("Bcc", msg.Bcc)
	}
	gm.SetHeader("Subject", subject)
	messageID := fmt.Sprintf("<%s@%s>", msg.CadenceEventID, domainOf(settings.FromEmail))
	gm.SetHeader("Message-ID", messageID)
	gm.SetBody("text/html", body)
	m.attachQuote(ctx, gm, q, logger)

	headers := map[string]string{
		"From":       settings.FromEmail,
		"To":         recipient,
		"Subject":    subject,
		"Message-ID": messageID,
	}
	if msg.Bcc != "" {
		headers["Bcc"] = msg.Bcc
	}

	if err := m.transport.Send(ctx, settings, gm); err != nil {
		logger.Error("Follow-up email failed", "error", err, "recipient", recipient)
		m.record(ctx, msg, recipient, subject, "failed", err.Error(), headers, logger)
		metrics.EmailDelivered("failed")
		return Result{}, err
	}

	m.record(ctx, msg, recipient, subject, string(StatusSent), "", headers, logger)
	metrics.EmailDelivered(string(StatusSent))
	logger.Info("Follow-up email sent", "recipient", recipient, "template", msg.TemplateCode)

	return Result{Status: StatusSent, MessageID: messageID}, nil
}

// attachQuote attaches the quote PDF when one is stored. A missing or
// oversized document is logged and the email goes out without it.
func (m *FollowUpMailer) attachQuote(ctx context.Context, gm *gomail.Message, q repository.GetQuoteWithContactRow, logger *slog.Logger) {
	if m.files == nil || !q.PdfStorageKey.Valid || q.PdfStorageKey.String == "" {
		return
	}
	key := q.PdfStorageKey.String

	body, info, err := storage.ReadAttachment(ctx, m.files, key, storage.MaxAttachmentSize)
	if err != nil {
		logger.Warn("Quote document unavailable, sending without attachment", "key", key, "error", err)
		return
	}

	gm.Attach(storage.AttachmentName(key, q.Number),
		gomail.SetHeader(map[string][]string{
			"Content-Type": {info.ContentType},
		}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(body)
			return err
		}),
	)
}

// record writes the attempt to the audit log. Failures are logged only; the
// send outcome stands.
func (m *FollowUpMailer) record(ctx context.Context, msg Message, recipient, subject, status, errMsg string, headers map[string]string, logger *slog.Logger) {
	raw, err := json.Marshal(headers)
	if err != nil {
		logger.Error("Failed to encode email headers", "error", err)
		raw = nil
	}

	params := repository.CreateEmailMessageParams{
		OrganizationID: msg.Organization.ID,
		Recipient:      recipient,
		Subject:        subject,
		Status:         status,
		Headers:        pqtype.NullRawMessage{RawMessage: raw, Valid: raw != nil},
	}
	params.QuoteID.UUID, params.QuoteID.Valid = msg.Quote.ID, true
	params.CadenceEventID.UUID, params.CadenceEventID.Valid = msg.CadenceEventID, true
	if errMsg != "" {
		params.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	}

	if err := m.store.CreateEmailMessage(ctx, params); err != nil {
		logger.Error("Failed to record email message", "error", err, "status", status)
	}
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}

var _ Mailer = (*FollowUpMailer)(nil)
