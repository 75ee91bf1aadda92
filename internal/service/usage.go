// Package service contains the business logic layer.
//
// This file implements the quota/usage store: billing period resolution and
// the atomic counters incremented on qualifying first sends.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
)

// BillingPeriod is the half-open interval [Start, End) usage is counted in.
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// billingPeriodFor returns the subscription's current period when it is known
// and contains now, otherwise the calendar month of now in UTC.
func billingPeriodFor(start, end *time.Time, now time.Time) BillingPeriod {
	if start != nil && end != nil && !now.Before(*start) && now.Before(*end) {
		return BillingPeriod{Start: start.UTC(), End: end.UTC()}
	}
	return calendarMonth(now)
}

// calendarMonth returns the boundaries of now's month in UTC.
func calendarMonth(now time.Time) BillingPeriod {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return BillingPeriod{Start: start, End: start.AddDate(0, 1, 0)}
}

// periodUsage reads the quotes-sent counter for the period.
func periodUsage(ctx context.Context, q repository.Querier, orgID uuid.UUID, period BillingPeriod) (int, error) {
	count, err := q.GetUsageCount(ctx, repository.GetUsageCountParams{
		OrganizationID: orgID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
	})
	if err != nil {
		return 0, fmt.Errorf("get usage count: %w", err)
	}
	return int(count), nil
}

// recordFirstSend increments the counter the tier consumes and returns its
// new value. Trial organizations consume their trial allowance; everyone else
// consumes the period counter. Both increments happen in place.
func recordFirstSend(ctx context.Context, q repository.Querier, orgID uuid.UUID, tier domain.Tier, period BillingPeriod) (int, error) {
	if tier == domain.TierTrial {
		used, err := q.IncrementTrialSentUsed(ctx, orgID)
		if err != nil {
			return 0, fmt.Errorf("increment trial usage: %w", err)
		}
		return int(used), nil
	}

	used, err := q.IncrementUsageCounter(ctx, repository.IncrementUsageCounterParams{
		OrganizationID: orgID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
	})
	if err != nil {
		return 0, fmt.Errorf("increment usage counter: %w", err)
	}
	return int(used), nil
}
