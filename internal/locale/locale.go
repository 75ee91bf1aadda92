// Package locale selects the language of user-facing messages and formats
// amounts for it. English and French are supported; anything else falls
// back to English.
package locale

import (
	"github.com/DukeRupert/relance/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{
	language.English,
	language.French,
}

var matcher = language.NewMatcher(supported)

func init() {
	for key, fr := range frenchMessages {
		_ = message.SetString(language.French, key, fr)
	}
}

// frenchMessages is keyed by the English text.
var frenchMessages = map[string]string{
	domain.ReasonSubscriptionCancelled.DefaultMessage(): "Votre abonnement est résilié. Réactivez-le pour envoyer des devis.",
	domain.ReasonPaymentRequired.DefaultMessage():       "Votre dernier paiement a échoué. Mettez à jour votre moyen de paiement pour envoyer des devis.",
	domain.ReasonLimitExceeded.DefaultMessage():         "Vous avez atteint votre limite de devis pour cette période.",
	domain.ReasonResendLimit.DefaultMessage():           "Ce devis a été renvoyé trop de fois ce mois-ci.",
	domain.ReasonAlreadySent.DefaultMessage():           "Ce devis a déjà été envoyé.",
	"This action is not allowed.":                       "Cette action n'est pas autorisée.",
}

// Match picks the best supported language from an Accept-Language header,
// then the organization's stored locale.
func Match(acceptLanguage, orgLocale string) language.Tag {
	var prefs []language.Tag
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	if orgLocale != "" {
		if tag, err := language.Parse(orgLocale); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if len(prefs) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// FromString parses a stored locale such as "fr" or "fr-FR".
func FromString(s string) language.Tag {
	return Match("", s)
}

// PermissionMessage returns the localized explanation of a refusal.
func PermissionMessage(tag language.Tag, reason domain.PermissionReason) string {
	return message.NewPrinter(tag).Sprintf(reason.DefaultMessage())
}

// FormatAmount formats minor currency units with the language's number
// conventions, e.g. "450.00 EUR" in English and "450,00 EUR" in French.
func FormatAmount(tag language.Tag, cents int64, currency string) string {
	return message.NewPrinter(tag).Sprintf("%.2f %s", float64(cents)/100, currency)
}
