// Package handler contains the HTTP handlers of the follow-up API.
//
// This file implements the Stripe webhook handler that keeps subscription
// status current.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it directly.
// Authentication is via the Stripe webhook signature verification.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/relance/internal/billing"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/stripe/stripe-go/v79"
)

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing       billing.Service
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, subscriptions service.SubscriptionService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:       billingService,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC and carry no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook processes incoming Stripe webhook events.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("Stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Read body (limit to 64KB)
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("Failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Verify signature
	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("Webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("Stripe webhook received", "type", event.Type, "id", event.ID)

	// Stripe retries any non-2xx; only storage failures return one.
	ctx := context.WithoutCancel(r.Context())
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		err = h.handleSubscriptionEvent(ctx, event)
	case "invoice.payment_failed":
		err = h.handlePaymentFailed(ctx, event)
	default:
		h.logger.Debug("Unhandled webhook event type", "type", event.Type)
	}

	if err != nil && domain.ErrorCode(err) == domain.EINTERNAL {
		h.logger.Error("Webhook processing failed", "error", err, "type", event.Type, "id", event.ID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleSubscriptionEvent(ctx context.Context, event stripe.Event) error {
	update, ok, err := billing.ParseSubscriptionEvent(h.billing, event.Data.Raw)
	if err != nil {
		h.logger.Error("Failed to parse subscription event", "error", err, "type", event.Type)
		return nil
	}
	if !ok {
		h.logger.Debug("Subscription event ignored", "type", event.Type, "id", event.ID)
		return nil
	}

	err = h.subscriptions.Sync(ctx, service.SyncSubscriptionParams{
		CustomerID:     update.CustomerID,
		SubscriptionID: update.SubscriptionID,
		Status:         update.Status,
		PeriodStart:    update.PeriodStart,
		PeriodEnd:      update.PeriodEnd,
		PlanName:       update.PlanName,
	})
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		h.logger.Warn("No organization for subscription event",
			"customer_id", update.CustomerID, "subscription_id", update.SubscriptionID)
	}
	return err
}

func (h *WebhookHandler) handlePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("Failed to parse invoice payment failed event", "error", err)
		return nil
	}

	if invoice.Subscription == nil {
		return nil
	}

	err := h.subscriptions.SetStatus(ctx, invoice.Subscription.ID, domain.SubscriptionStatusPastDue)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		h.logger.Debug("Subscription not found for payment failure", "subscription_id", invoice.Subscription.ID)
	}
	return err
}
