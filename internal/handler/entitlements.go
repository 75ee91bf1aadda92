package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/service"
)

// EntitlementsHandler exposes the derived entitlements of the caller.
type EntitlementsHandler struct {
	entitlements service.EntitlementsService
	logger       *slog.Logger
}

// NewEntitlementsHandler creates a new EntitlementsHandler.
func NewEntitlementsHandler(entitlements service.EntitlementsService, logger *slog.Logger) *EntitlementsHandler {
	return &EntitlementsHandler{
		entitlements: entitlements,
		logger:       logger,
	}
}

// RegisterRoutes registers entitlement routes behind requireOrg.
func (h *EntitlementsHandler) RegisterRoutes(mux *http.ServeMux, requireOrg func(http.Handler) http.Handler) {
	mux.Handle("GET /api/entitlements", requireOrg(http.HandlerFunc(h.Get)))
}

// Get returns the organization's entitlements as of now.
func (h *EntitlementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	org := auth.GetOrganization(r.Context())
	if org == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	ent, err := h.entitlements.Resolve(r.Context(), *org)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}
