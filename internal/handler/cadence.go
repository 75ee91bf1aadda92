// Package handler contains the HTTP handlers of the follow-up API.
//
// This file implements the cron trigger for the cadence batch.
//
// Route:
//   - POST /api/cron/cadences -> Run
//
// The route is authenticated with the shared cron secret, not an API token.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/worker"
)

// CadenceRunner runs one batch of due cadence events.
type CadenceRunner interface {
	RunOnce(ctx context.Context) (*worker.Summary, error)
}

// CadenceHandler triggers batch runs on behalf of an external scheduler.
type CadenceHandler struct {
	runner CadenceRunner
	logger *slog.Logger
}

// NewCadenceHandler creates a new CadenceHandler.
func NewCadenceHandler(runner CadenceRunner, logger *slog.Logger) *CadenceHandler {
	return &CadenceHandler{
		runner: runner,
		logger: logger,
	}
}

// RegisterRoutes registers the cron route behind requireCron.
func (h *CadenceHandler) RegisterRoutes(mux *http.ServeMux, requireCron func(http.Handler) http.Handler) {
	mux.Handle("POST /api/cron/cadences", requireCron(http.HandlerFunc(h.Run)))
}

// Run executes one batch and returns its summary. A run that failed part way
// still reports what it processed, with a 500 status.
func (h *CadenceHandler) Run(w http.ResponseWriter, r *http.Request) {
	const op = "cadence.run"

	summary, err := h.runner.RunOnce(r.Context())
	switch {
	case errors.Is(err, worker.ErrRunInProgress):
		ErrorResponse(w, r, h.logger, domain.Conflict(op, "A cadence run is already in progress"))
	case err != nil && summary == nil:
		InternalErrorResponse(w, r, h.logger, err)
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, summary)
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}
