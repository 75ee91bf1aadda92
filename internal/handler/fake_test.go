package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/DukeRupert/relance/internal/auth"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/DukeRupert/relance/internal/service"
	"github.com/DukeRupert/relance/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrganization() *repository.Organization {
	return &repository.Organization{
		ID:       uuid.New(),
		Name:     "Atelier Martin",
		Timezone: "Europe/Paris",
		Locale:   "en",
	}
}

func withOrganization(r *http.Request, org *repository.Organization) *http.Request {
	return r.WithContext(auth.SetOrganization(r.Context(), org))
}

func decodeBody(t *testing.T, body io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}

type fakeRunner struct {
	summary *worker.Summary
	err     error
	calls   int
}

func (f *fakeRunner) RunOnce(context.Context) (*worker.Summary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeQuoteService struct {
	result *service.MarkSentResult
	err    error
	params []service.MarkSentParams
}

func (f *fakeQuoteService) MarkSent(_ context.Context, params service.MarkSentParams) (*service.MarkSentResult, error) {
	f.params = append(f.params, params)
	return f.result, f.err
}

type fakeEntitlements struct {
	ent *domain.Entitlements
	err error
}

func (f *fakeEntitlements) ForOrganization(context.Context, uuid.UUID) (*domain.Entitlements, error) {
	return f.ent, f.err
}

func (f *fakeEntitlements) Resolve(context.Context, repository.Organization) (*domain.Entitlements, error) {
	return f.ent, f.err
}

type fakeBilling struct {
	portalURL   string
	checkoutURL string
	portalErr   error
	event       stripe.Event
	verifyErr   error
	plans       map[string]string
	customerIDs []string
	priceIDs    []string
}

func (f *fakeBilling) CreateCheckoutSession(customerID, priceID, _, _ string) (string, error) {
	f.customerIDs = append(f.customerIDs, customerID)
	f.priceIDs = append(f.priceIDs, priceID)
	return f.checkoutURL, nil
}

func (f *fakeBilling) CreatePortalSession(customerID, _ string) (string, error) {
	f.customerIDs = append(f.customerIDs, customerID)
	return f.portalURL, f.portalErr
}

func (f *fakeBilling) VerifyWebhookSignature([]byte, string) (stripe.Event, error) {
	return f.event, f.verifyErr
}

func (f *fakeBilling) PlanForPriceID(priceID string) string {
	return f.plans[priceID]
}

func (f *fakeBilling) DefaultPriceID() string {
	return "price_default"
}

type fakeSubscriptions struct {
	synced   []service.SyncSubscriptionParams
	statuses map[string]domain.SubscriptionStatus
	err      error
}

func (f *fakeSubscriptions) Sync(_ context.Context, params service.SyncSubscriptionParams) error {
	f.synced = append(f.synced, params)
	return f.err
}

func (f *fakeSubscriptions) SetStatus(_ context.Context, subscriptionID string, status domain.SubscriptionStatus) error {
	if f.statuses == nil {
		f.statuses = make(map[string]domain.SubscriptionStatus)
	}
	f.statuses[subscriptionID] = status
	return f.err
}
