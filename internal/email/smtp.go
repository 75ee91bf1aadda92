package email

import (
	"context"
	"fmt"

	"github.com/DukeRupert/relance/internal/repository"
	"gopkg.in/gomail.v2"
)

// =============================================================================
// SMTP Transport
// =============================================================================

// SMTPTransport dials the organization's SMTP server for every message.
//
// This works with:
// - Mailhog (development): no authentication
// - Hosted providers on 587 (STARTTLS) or 465 (implicit TLS)
type SMTPTransport struct{}

// NewSMTPTransport creates a new SMTP transport.
func NewSMTPTransport() *SMTPTransport {
	return &SMTPTransport{}
}

// Send delivers m using the organization's SMTP settings.
func (t *SMTPTransport) Send(ctx context.Context, settings repository.SmtpSetting, m *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d := gomail.NewDialer(settings.Host, int(settings.Port), settings.Username, settings.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp %s:%d: %w", settings.Host, settings.Port, err)
	}
	return nil
}

var _ Transport = (*SMTPTransport)(nil)
