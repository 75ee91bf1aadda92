// Package billing provides the Stripe integration behind subscription status
// and the remediation links offered when a send is refused.
package billing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for subscribing.
	// Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// PlanForPriceID returns the plan name for a Stripe price ID, or "".
	PlanForPriceID(priceID string) string

	// DefaultPriceID is the price offered to organizations starting a subscription.
	DefaultPriceID() string
}

// PriceConfig maps Stripe price IDs to plan names.
type PriceConfig struct {
	// Plans maps price ID to the plans.name it subscribes to.
	Plans map[string]string
	// DefaultPriceID is used for checkout when no price is requested.
	DefaultPriceID string
}

// ParsePriceMap parses "price_123=Pro,price_456=Business".
func ParsePriceMap(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		priceID, plan, ok := strings.Cut(pair, "=")
		priceID, plan = strings.TrimSpace(priceID), strings.TrimSpace(plan)
		if !ok || priceID == "" || plan == "" {
			return nil, fmt.Errorf("invalid price mapping %q: want price_id=plan", pair)
		}
		out[priceID] = plan
	}
	return out, nil
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	prices        PriceConfig
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey is used to authenticate Stripe API calls.
// The webhookSecret is used to verify incoming webhook signatures.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	if prices.Plans == nil {
		prices.Plans = make(map[string]string)
	}
	return &stripeService{
		webhookSecret: webhookSecret,
		prices:        prices,
	}
}

func (s *stripeService) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) PlanForPriceID(priceID string) string {
	return s.prices.Plans[priceID]
}

func (s *stripeService) DefaultPriceID() string {
	return s.prices.DefaultPriceID
}

// =============================================================================
// Subscription mapping
// =============================================================================

// StatusFromStripe maps a Stripe subscription status onto the stored one.
// Incomplete subscriptions have never been paid and are not tracked.
func StatusFromStripe(status stripe.SubscriptionStatus) (domain.SubscriptionStatus, bool) {
	switch status {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionStatusActive, true
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusTrialing, true
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusPaused:
		return domain.SubscriptionStatusPastDue, true
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return domain.SubscriptionStatusCancelled, true
	}
	return "", false
}

// SubscriptionUpdate is the subscription state carried by a webhook event.
type SubscriptionUpdate struct {
	CustomerID     string
	SubscriptionID string
	Status         domain.SubscriptionStatus
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PlanName       string
}

// ParseSubscriptionEvent decodes a customer.subscription.* event payload.
// ok is false when the subscription has no customer or an untracked status.
func ParseSubscriptionEvent(svc Service, raw json.RawMessage) (update SubscriptionUpdate, ok bool, err error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return SubscriptionUpdate{}, false, fmt.Errorf("parse subscription: %w", err)
	}
	if sub.Customer == nil {
		return SubscriptionUpdate{}, false, nil
	}

	status, tracked := StatusFromStripe(sub.Status)
	if !tracked {
		return SubscriptionUpdate{}, false, nil
	}

	update = SubscriptionUpdate{
		CustomerID:     sub.Customer.ID,
		SubscriptionID: sub.ID,
		Status:         status,
	}
	if sub.CurrentPeriodStart > 0 {
		update.PeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	}
	if sub.CurrentPeriodEnd > 0 {
		update.PeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		update.PlanName = svc.PlanForPriceID(sub.Items.Data[0].Price.ID)
	}
	return update, true, nil
}
