// Package handler contains the HTTP handlers of the follow-up API.
//
// This file implements the billing links behind the remediation actions of a
// refused send.
//
// Routes handled:
//   - POST /api/billing/portal   -> OpenPortal
//   - POST /api/billing/checkout -> CreateCheckout
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/billing"
	"github.com/DukeRupert/relance/internal/domain"
)

// BillingHandler hands out Stripe portal and checkout links.
type BillingHandler struct {
	billing billing.Service
	baseURL string
	logger  *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured (development mode).
func NewBillingHandler(billingService billing.Service, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		baseURL: baseURL,
		logger:  logger,
	}
}

// RegisterRoutes registers billing routes behind requireOrg.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireOrg func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/portal", requireOrg(http.HandlerFunc(h.OpenPortal)))
	mux.Handle("POST /api/billing/checkout", requireOrg(http.HandlerFunc(h.CreateCheckout)))
}

type billingLinkResponse struct {
	URL  string `json:"url"`
	Stub bool   `json:"stub,omitempty"`
}

// OpenPortal creates a Stripe Customer Portal session for the organization.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	const op = "billing.open_portal"

	org := auth.GetOrganization(r.Context())
	if org == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	returnURL := fmt.Sprintf("%s/settings/billing", h.baseURL)

	if h.billing == nil {
		h.logger.Warn("Portal requested but Stripe is not configured", "organization_id", org.ID)
		writeJSON(w, http.StatusOK, billingLinkResponse{URL: returnURL, Stub: true})
		return
	}

	if !org.StripeCustomerID.Valid {
		ErrorResponse(w, r, h.logger, domain.Conflict(op, "No billing account is linked to this organization"))
		return
	}

	portalURL, err := h.billing.CreatePortalSession(org.StripeCustomerID.String, returnURL)
	if err != nil {
		h.logger.Error("Failed to create portal session", "error", err, "organization_id", org.ID)
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, billingLinkResponse{URL: portalURL})
}

// CreateCheckout creates a Stripe Checkout session for starting a
// subscription. The price defaults to the configured default price.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "billing.create_checkout"

	org := auth.GetOrganization(r.Context())
	if org == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	cancelURL := fmt.Sprintf("%s/settings/billing", h.baseURL)

	if h.billing == nil {
		h.logger.Warn("Checkout attempted but Stripe is not configured", "organization_id", org.ID)
		writeJSON(w, http.StatusOK, billingLinkResponse{URL: cancelURL, Stub: true})
		return
	}

	if !org.StripeCustomerID.Valid {
		ErrorResponse(w, r, h.logger, domain.Conflict(op, "No billing account is linked to this organization"))
		return
	}

	priceID := r.URL.Query().Get("price_id")
	if priceID == "" {
		priceID = h.billing.DefaultPriceID()
	}
	if h.billing.PlanForPriceID(priceID) == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Unknown price"))
		return
	}

	successURL := fmt.Sprintf("%s/settings/billing?updated=1", h.baseURL)
	checkoutURL, err := h.billing.CreateCheckoutSession(org.StripeCustomerID.String, priceID, successURL, cancelURL)
	if err != nil {
		h.logger.Error("Failed to create checkout session", "error", err, "organization_id", org.ID)
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, billingLinkResponse{URL: checkoutURL})
}
