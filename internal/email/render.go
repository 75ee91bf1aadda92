package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/DukeRupert/relance/internal/locale"
	"github.com/DukeRupert/relance/internal/repository"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// templateData is what organization templates can reference, e.g.
// "Following up on quote {{.QuoteNumber}}".
type templateData struct {
	ContactName      string
	QuoteNumber      string
	QuoteTitle       string
	QuoteTotal       string
	QuoteSentAt      time.Time
	OrganizationName string
}

func newTemplateData(org repository.Organization, q repository.GetQuoteWithContactRow) templateData {
	tag := locale.FromString(org.Locale)
	return templateData{
		ContactName:      q.ContactName.String,
		QuoteNumber:      q.Number,
		QuoteTitle:       q.Title,
		QuoteTotal:       locale.FormatAmount(tag, q.TotalCents, q.Currency),
		QuoteSentAt:      q.SentAt.Time,
		OrganizationName: org.Name,
	}
}

func templateFuncs(tag language.Tag) map[string]any {
	caser := cases.Title(tag)
	return map[string]any{
		"title": caser.String,
		"upper": strings.ToUpper,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
	}
}

// renderSubject renders the subject as plain text; subjects are headers, not HTML.
func renderSubject(src string, tag language.Tag, data templateData) (string, error) {
	tmpl, err := texttemplate.New("subject").Funcs(templateFuncs(tag)).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse subject: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render subject: %w", err)
	}
	// Header injection guard.
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// renderBody renders the HTML body with contextual escaping.
func renderBody(src string, tag language.Tag, data templateData) (string, error) {
	tmpl, err := template.New("body").Funcs(templateFuncs(tag)).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse body: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return buf.String(), nil
}
