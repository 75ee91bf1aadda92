package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveMarkSent(t *testing.T, quotes *fakeQuoteService, target, body string, org bool) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	NewQuoteHandler(quotes, discardLogger()).RegisterRoutes(mux, passThrough)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, target, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if org {
		req = withOrganization(req, testOrganization())
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestQuoteHandler_MarkSent_FirstSend(t *testing.T) {
	quoteID := uuid.New()
	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	quotes := &fakeQuoteService{result: &service.MarkSentResult{
		QuoteID:   quoteID,
		FirstSend: true,
		SentAt:    sentAt,
		Cadence: service.CadenceSummary{
			Generated: 4,
			Events: []domain.CadenceEvent{
				{Type: domain.CadenceEmailD1, ScheduledFor: sentAt.AddDate(0, 0, 1)},
			},
		},
		QuotesRemaining: 7,
	}}

	rec := serveMarkSent(t, quotes, "/api/quotes/"+quoteID.String()+"/mark-sent", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success         bool      `json:"success"`
		QuoteID         uuid.UUID `json:"quoteId"`
		FirstSend       bool      `json:"firstSend"`
		QuotesRemaining int       `json:"quotesRemaining"`
		Cadence         struct {
			Generated int   `json:"generated"`
			Cancelled int64 `json:"cancelled"`
			Events    []any `json:"events"`
		} `json:"cadence"`
	}
	decodeBody(t, rec.Body, &body)
	assert.True(t, body.Success)
	assert.Equal(t, quoteID, body.QuoteID)
	assert.True(t, body.FirstSend)
	assert.Equal(t, 7, body.QuotesRemaining)
	assert.Equal(t, 4, body.Cadence.Generated)
	assert.Len(t, body.Cadence.Events, 1)

	require.Len(t, quotes.params, 1)
	assert.Equal(t, quoteID, quotes.params[0].QuoteID)
	assert.False(t, quotes.params[0].Force)
}

func TestQuoteHandler_MarkSent_Force(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		wantOK bool
		force  bool
	}{
		{"query flag", "?force=true", "", true, true},
		{"json body", "", `{"force":true}`, true, true},
		{"json body false", "", `{"force":false}`, true, false},
		{"query false falls back to body", "?force=false", `{"force":true}`, true, true},
		{"empty body", "", "", true, false},
		{"bad query", "?force=maybe", "", false, false},
		{"bad body", "", `{force`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := &fakeQuoteService{result: &service.MarkSentResult{}}
			rec := serveMarkSent(t, quotes, "/api/quotes/"+uuid.NewString()+"/mark-sent"+tt.query, tt.body, true)

			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Empty(t, quotes.params)
				return
			}
			require.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, quotes.params, 1)
			assert.Equal(t, tt.force, quotes.params[0].Force)
		})
	}
}

func TestQuoteHandler_MarkSent_Refused(t *testing.T) {
	quotes := &fakeQuoteService{
		err: domain.NewPermissionError("quote.mark_sent", domain.ReasonLimitExceeded, domain.ActionStartSubscription, domain.TierFree, 5, 5),
	}

	rec := serveMarkSent(t, quotes, "/api/quotes/"+uuid.NewString()+"/mark-sent", "", true)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	var body JSONError
	decodeBody(t, rec.Body, &body)
	assert.Equal(t, "LIMIT_EXCEEDED", body.Error)
	assert.Equal(t, "start_subscription", body.Action)
	assert.Equal(t, "/pricing", body.RedirectURL)
	assert.Equal(t, 5, *body.Limit)
	assert.Equal(t, 5, *body.Used)
}

func TestQuoteHandler_MarkSent_Validation(t *testing.T) {
	quotes := &fakeQuoteService{}

	rec := serveMarkSent(t, quotes, "/api/quotes/not-a-uuid/mark-sent", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveMarkSent(t, quotes, "/api/quotes/"+uuid.NewString()+"/mark-sent", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, quotes.params)
}

func TestQuoteHandler_MarkSent_NotFound(t *testing.T) {
	quotes := &fakeQuoteService{err: domain.NotFound("quote.mark_sent", "quote", "x")}

	rec := serveMarkSent(t, quotes, "/api/quotes/"+uuid.NewString()+"/mark-sent", "", true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body JSONError
	decodeBody(t, rec.Body, &body)
	assert.Nil(t, body.Limit)
}
