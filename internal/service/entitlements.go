// Package service contains the business logic layer.
//
// This file implements the entitlements service, which loads an
// organization's subscription, trial and usage state and hands it to the pure
// resolver in the domain package.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EntitlementsService defines operations for reading derived entitlements.
type EntitlementsService interface {
	// ForOrganization loads the organization and resolves its entitlements now.
	ForOrganization(ctx context.Context, orgID uuid.UUID) (*domain.Entitlements, error)

	// Resolve computes entitlements for an organization that is already loaded.
	Resolve(ctx context.Context, org repository.Organization) (*domain.Entitlements, error)
}

// =============================================================================
// Implementation
// =============================================================================

type entitlementsService struct {
	queries repository.Querier
	clock   clock.Clock
	logger  *slog.Logger
}

// NewEntitlementsService creates a new EntitlementsService.
func NewEntitlementsService(queries repository.Querier, clk clock.Clock, logger *slog.Logger) EntitlementsService {
	return &entitlementsService{
		queries: queries,
		clock:   clk,
		logger:  logger,
	}
}

// ForOrganization loads the organization and resolves its entitlements now.
func (s *entitlementsService) ForOrganization(ctx context.Context, orgID uuid.UUID) (*domain.Entitlements, error) {
	const op = "entitlements.for_organization"

	org, err := s.queries.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "organization", orgID.String())
		}
		return nil, domain.Internal(err, op, "failed to load organization")
	}

	return s.resolve(ctx, op, org)
}

// Resolve computes entitlements for an organization that is already loaded.
func (s *entitlementsService) Resolve(ctx context.Context, org repository.Organization) (*domain.Entitlements, error) {
	return s.resolve(ctx, "entitlements.resolve", org)
}

func (s *entitlementsService) resolve(ctx context.Context, op string, org repository.Organization) (*domain.Entitlements, error) {
	resolved, err := resolveEntitlements(ctx, s.queries, org, s.clock.Now())
	if err != nil {
		s.logger.Error("Failed to resolve entitlements", "error", err, "op", op, "organization_id", org.ID)
		return nil, domain.Internal(err, op, "failed to resolve entitlements")
	}
	return &resolved.Entitlements, nil
}

// =============================================================================
// Loading
// =============================================================================

// resolvedEntitlements bundles the derived entitlements with the billing
// period the usage figure was read from.
type resolvedEntitlements struct {
	Entitlements domain.Entitlements
	Period       BillingPeriod
}

// resolveEntitlements reads everything the resolver needs through q, which may
// be bound to a transaction.
func resolveEntitlements(ctx context.Context, q repository.Querier, org repository.Organization, now time.Time) (resolvedEntitlements, error) {
	input := domain.EntitlementInput{
		TrialEndsAt:       fromNullTime(org.TrialEndsAt),
		TrialSentLimit:    int(org.TrialSentLimit),
		TrialSentUsed:     int(org.TrialSentUsed),
		AutoEmailEnabled:  org.AutoEmailEnabled,
		BccInboundEnabled: org.BccInboundEnabled,
		StorageUsedBytes:  org.StorageUsedBytes,
		StorageQuotaBytes: org.StorageQuotaBytes,
	}

	var periodStart, periodEnd *time.Time
	sub, err := q.GetSubscriptionWithPlan(ctx, org.ID)
	switch {
	case err == nil:
		input.Subscription = &domain.SubscriptionSnapshot{
			Status:            domain.SubscriptionStatus(sub.Status),
			PlanName:          fromNullString(sub.PlanName),
			PlanMonthlyLimit:  fromNullInt32(sub.PlanMonthlyQuoteLimit),
			LegacyQuotesLimit: fromNullInt32(sub.QuotesLimit),
		}
		periodStart = fromNullTime(sub.CurrentPeriodStart)
		periodEnd = fromNullTime(sub.CurrentPeriodEnd)
	case errors.Is(err, sql.ErrNoRows):
		// No subscription record: trial or free.
	default:
		return resolvedEntitlements{}, fmt.Errorf("get subscription: %w", err)
	}

	period := billingPeriodFor(periodStart, periodEnd, now)

	// Trial usage lives on the organization row; the period counter is only
	// read for paid and free tiers.
	if domain.ResolveTier(input, now) != domain.TierTrial {
		used, err := periodUsage(ctx, q, org.ID, period)
		if err != nil {
			return resolvedEntitlements{}, err
		}
		input.PeriodQuotesSent = used
	}

	return resolvedEntitlements{
		Entitlements: domain.CalculateEntitlements(input, now),
		Period:       period,
	}, nil
}
