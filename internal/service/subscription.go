package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
)

// SubscriptionService keeps the stored subscription in step with the
// billing provider. Entitlements read the stored status on every request, so
// a status change here takes effect on the next mark-sent or batch run.
type SubscriptionService interface {
	Sync(ctx context.Context, params SyncSubscriptionParams) error
	SetStatus(ctx context.Context, subscriptionID string, status domain.SubscriptionStatus) error
}

// SyncSubscriptionParams is the provider's view of one subscription.
type SyncSubscriptionParams struct {
	CustomerID     string
	SubscriptionID string
	Status         domain.SubscriptionStatus
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PlanName       string
}

type subscriptionService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(queries repository.Querier, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		queries: queries,
		logger:  logger,
	}
}

// Sync upserts the subscription of the organization owning the customer.
func (s *subscriptionService) Sync(ctx context.Context, params SyncSubscriptionParams) error {
	const op = "subscription.sync"

	org, err := s.queries.GetOrganizationByStripeCustomerID(ctx, toNullString(params.CustomerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "organization for customer", params.CustomerID)
		}
		return domain.Internal(err, op, "failed to load organization")
	}

	err = s.queries.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		OrganizationID:       org.ID,
		Status:               string(params.Status),
		StripeSubscriptionID: toNullString(params.SubscriptionID),
		CurrentPeriodStart:   toNullTime(params.PeriodStart),
		CurrentPeriodEnd:     toNullTime(params.PeriodEnd),
		PlanName:             toNullString(params.PlanName),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to store subscription")
	}

	s.logger.Info("Subscription synced",
		"organization_id", org.ID,
		"subscription_id", params.SubscriptionID,
		"status", params.Status,
		"plan", params.PlanName,
	)
	return nil
}

// SetStatus changes the status of a known subscription.
func (s *subscriptionService) SetStatus(ctx context.Context, subscriptionID string, status domain.SubscriptionStatus) error {
	const op = "subscription.set_status"

	n, err := s.queries.UpdateSubscriptionStatusByStripeID(ctx, repository.UpdateSubscriptionStatusByStripeIDParams{
		StripeSubscriptionID: toNullString(subscriptionID),
		Status:               string(status),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update subscription")
	}
	if n == 0 {
		return domain.NotFound(op, "subscription", subscriptionID)
	}

	s.logger.Info("Subscription status changed", "subscription_id", subscriptionID, "status", status)
	return nil
}
