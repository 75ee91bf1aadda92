package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/metrics"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/google/uuid"
)

// maxMarkSentBody bounds the optional JSON body of a mark-sent request.
const maxMarkSentBody = 4 << 10

// QuoteHandler handles quote lifecycle requests.
type QuoteHandler struct {
	quotes service.QuoteService
	logger *slog.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quotes service.QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		logger: logger,
	}
}

// RegisterRoutes registers quote routes behind requireOrg.
func (h *QuoteHandler) RegisterRoutes(mux *http.ServeMux, requireOrg func(http.Handler) http.Handler) {
	mux.Handle("POST /api/quotes/{id}/mark-sent", requireOrg(http.HandlerFunc(h.MarkSent)))
}

type markSentRequest struct {
	Force bool `json:"force"`
}

type markSentResponse struct {
	Success bool `json:"success"`
	*service.MarkSentResult
}

// MarkSent records that the quote went out and seeds its follow-up cadence.
// Force may be given as ?force=true or as {"force": true}.
func (h *QuoteHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	const op = "quote.mark_sent"

	org := auth.GetOrganization(r.Context())
	if org == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	quoteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		metrics.MarkSent("invalid")
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid quote ID"))
		return
	}

	force, err := parseForce(r)
	if err != nil {
		metrics.MarkSent("invalid")
		ErrorResponse(w, r, h.logger, domain.Invalid(op, err.Error()))
		return
	}

	result, err := h.quotes.MarkSent(r.Context(), service.MarkSentParams{
		OrganizationID: org.ID,
		QuoteID:        quoteID,
		Force:          force,
	})
	if err != nil {
		if pe, ok := domain.AsPermissionError(err); ok {
			metrics.MarkSent(string(pe.Reason))
		} else {
			metrics.MarkSent("error")
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if result.FirstSend {
		metrics.MarkSent("first_send")
	} else {
		metrics.MarkSent("resend")
	}
	writeJSON(w, http.StatusOK, markSentResponse{Success: true, MarkSentResult: result})
}

// parseForce reads the force flag from the query string, then the body.
func parseForce(r *http.Request) (bool, error) {
	if v := r.URL.Query().Get("force"); v != "" {
		force, err := strconv.ParseBool(v)
		if err != nil {
			return false, errors.New("force must be true or false")
		}
		if force {
			return true, nil
		}
	}

	if r.Body == nil {
		return false, nil
	}
	var req markSentRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxMarkSentBody)).Decode(&req)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, errors.New("request body must be JSON")
	}
	return req.Force, nil
}
