package locale

import (
	"testing"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		org    string
		want   language.Tag
	}{
		{"nothing", "", "", language.English},
		{"header french", "fr-FR,fr;q=0.9,en;q=0.8", "en", language.French},
		{"org french", "", "fr", language.French},
		{"unsupported header falls to org", "de-DE", "fr", language.French},
		{"garbage", "!!", "??", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.accept, tt.org)
			base, _ := got.Base()
			wantBase, _ := tt.want.Base()
			assert.Equal(t, wantBase, base)
		})
	}
}

func TestPermissionMessage(t *testing.T) {
	assert.Equal(t,
		"You have reached your quote limit for this period.",
		PermissionMessage(language.English, domain.ReasonLimitExceeded),
	)
	assert.Equal(t,
		"Ce devis a déjà été envoyé.",
		PermissionMessage(language.French, domain.ReasonAlreadySent),
	)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "450.00 EUR", FormatAmount(language.English, 45000, "EUR"))
	assert.Equal(t, "450,00 EUR", FormatAmount(language.French, 45000, "EUR"))
}
