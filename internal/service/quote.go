// Package service contains the business logic layer.
//
// This file implements the mark-sent gate: the first send of a quote is
// checked against the organization's entitlements, consumes one unit of
// quota and seeds the follow-up cadence. Resends skip the quota entirely and
// are capped per calendar month instead.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/relance/internal/calendar"
	"github.com/DukeRupert/relance/internal/clock"
	"github.com/DukeRupert/relance/internal/domain"
	"github.com/DukeRupert/relance/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// QuoteService defines the mark-sent operation.
type QuoteService interface {
	// MarkSent records that the quote was sent to the client. On a first send
	// it enforces the organization's quota; with force it resends an already
	// sent quote, cancelling and regenerating its cadence.
	MarkSent(ctx context.Context, params MarkSentParams) (*MarkSentResult, error)
}

// MarkSentParams identifies the quote to mark sent.
type MarkSentParams struct {
	OrganizationID uuid.UUID
	QuoteID        uuid.UUID
	Force          bool
}

// CadenceSummary describes the cadence changes made by a mark-sent call.
type CadenceSummary struct {
	Generated int                   `json:"generated"`
	Cancelled int64                 `json:"cancelled"`
	Events    []domain.CadenceEvent `json:"events"`
}

// MarkSentResult is returned on success.
type MarkSentResult struct {
	QuoteID         uuid.UUID      `json:"quoteId"`
	FirstSend       bool           `json:"firstSend"`
	SentAt          time.Time      `json:"sentAt"`
	Cadence         CadenceSummary `json:"cadence"`
	QuotesRemaining int            `json:"quotesRemaining"`
}

// QuoteConfig holds the tunables of the mark-sent gate.
type QuoteConfig struct {
	// MaxResendsPerMonth caps forced resends of one quote per calendar month.
	MaxResendsPerMonth int
}

// =============================================================================
// Implementation
// =============================================================================

type quoteService struct {
	inTx      TxRunner
	generator *CadenceGenerator
	clock     clock.Clock
	config    QuoteConfig
	logger    *slog.Logger
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(inTx TxRunner, generator *CadenceGenerator, clk clock.Clock, config QuoteConfig, logger *slog.Logger) QuoteService {
	if config.MaxResendsPerMonth <= 0 {
		config.MaxResendsPerMonth = domain.MaxResendsPerMonth
	}
	return &quoteService{
		inTx:      inTx,
		generator: generator,
		clock:     clk,
		config:    config,
		logger:    logger,
	}
}

// MarkSent records that the quote was sent to the client.
func (s *quoteService) MarkSent(ctx context.Context, params MarkSentParams) (*MarkSentResult, error) {
	const op = "quote.mark_sent"

	now := s.clock.Now()
	var result *MarkSentResult

	err := s.inTx(ctx, func(q repository.Querier) error {
		quote, err := q.GetQuoteForUpdate(ctx, repository.GetQuoteForUpdateParams{
			ID:             params.QuoteID,
			OrganizationID: params.OrganizationID,
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "quote", params.QuoteID.String())
			}
			return domain.Internal(err, op, "failed to load quote")
		}

		org, err := q.GetOrganization(ctx, params.OrganizationID)
		if err != nil {
			return domain.Internal(err, op, "failed to load organization")
		}

		resolved, err := resolveEntitlements(ctx, q, org, now)
		if err != nil {
			return domain.Internal(err, op, "failed to resolve entitlements")
		}

		switch {
		case !quote.FirstSentAt.Valid:
			result, err = s.firstSend(ctx, q, org, quote, resolved, now)
		case params.Force:
			result, err = s.resend(ctx, q, org, quote, resolved, now)
		default:
			ent := resolved.Entitlements
			err = domain.NewPermissionError(op, domain.ReasonAlreadySent, "", ent.Tier, ent.EffectivePlanLimit, ent.QuotesUsed)
		}
		return err
	})
	if err != nil {
		if pe, ok := domain.AsPermissionError(err); ok {
			s.logger.Info("Mark sent refused",
				"quote_id", params.QuoteID,
				"organization_id", params.OrganizationID,
				"reason", pe.Reason,
			)
		} else if domain.ErrorCode(err) == domain.EINTERNAL {
			s.logger.Error("Mark sent failed", "error", err, "op", op, "quote_id", params.QuoteID)
		}
		return nil, err
	}

	s.logger.Info("Quote marked sent",
		"quote_id", params.QuoteID,
		"organization_id", params.OrganizationID,
		"first_send", result.FirstSend,
		"events", result.Cadence.Generated,
		"cancelled", result.Cadence.Cancelled,
	)
	return result, nil
}

// firstSend gates on entitlements, consumes quota and generates the cadence.
func (s *quoteService) firstSend(ctx context.Context, q repository.Querier, org repository.Organization, quote repository.Quote, resolved resolvedEntitlements, now time.Time) (*MarkSentResult, error) {
	const op = "quote.mark_sent"

	ent := resolved.Entitlements
	if !ent.CanMarkSent.Allowed {
		return nil, domain.NewPermissionError(op, ent.CanMarkSent.Reason, ent.CanMarkSent.Action, ent.Tier, ent.EffectivePlanLimit, ent.QuotesUsed)
	}

	used, err := recordFirstSend(ctx, q, org.ID, ent.Tier, resolved.Period)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to record usage")
	}
	// A concurrent first send may have taken the last unit between the check
	// and the increment; the returned count is authoritative.
	if used > ent.EffectivePlanLimit {
		action := domain.ActionUpgradePlan
		if ent.Tier == domain.TierFree {
			action = domain.ActionStartSubscription
		}
		return nil, domain.NewPermissionError(op, domain.ReasonLimitExceeded, action, ent.Tier, ent.EffectivePlanLimit, used-1)
	}

	if err := q.MarkQuoteFirstSent(ctx, repository.MarkQuoteFirstSentParams{
		ID:            quote.ID,
		PipelineStage: string(domain.PipelineStageFollowD1),
		FirstSentAt:   toNullTime(now),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to update quote")
	}

	events, err := s.generator.Generate(ctx, q, org.ID, quote.ID, now, calendar.LoadLocation(org.Timezone))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate cadence")
	}

	return &MarkSentResult{
		QuoteID:   quote.ID,
		FirstSend: true,
		SentAt:    now,
		Cadence: CadenceSummary{
			Generated: len(events),
			Events:    events,
		},
		QuotesRemaining: max(0, ent.EffectivePlanLimit-used),
	}, nil
}

// resend applies the monthly resend cap and regenerates the cadence. Quota is
// neither checked nor consumed.
func (s *quoteService) resend(ctx context.Context, q repository.Querier, org repository.Organization, quote repository.Quote, resolved resolvedEntitlements, now time.Time) (*MarkSentResult, error) {
	const op = "quote.mark_sent"

	ent := resolved.Entitlements
	count := resendsThisMonth(quote, now)
	if count >= s.config.MaxResendsPerMonth {
		return nil, domain.NewPermissionError(op, domain.ReasonResendLimit, "", ent.Tier, s.config.MaxResendsPerMonth, count)
	}

	if err := q.MarkQuoteResent(ctx, repository.MarkQuoteResentParams{
		ID:            quote.ID,
		SentAt:        toNullTime(now),
		PipelineStage: string(domain.PipelineStageFollowD1),
		ResendCount:   int32(count + 1),
		ResendResetAt: toNullTime(now),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to update quote")
	}

	cancelled, events, err := s.generator.Regenerate(ctx, q, org.ID, quote.ID, now, calendar.LoadLocation(org.Timezone))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to regenerate cadence")
	}

	return &MarkSentResult{
		QuoteID:   quote.ID,
		FirstSend: false,
		SentAt:    now,
		Cadence: CadenceSummary{
			Generated: len(events),
			Cancelled: cancelled,
			Events:    events,
		},
		QuotesRemaining: ent.QuotesRemaining,
	}, nil
}

// resendsThisMonth returns the stored resend count, or zero when the counter
// was last touched before the current calendar month.
func resendsThisMonth(quote repository.Quote, now time.Time) int {
	if !quote.ResendResetAt.Valid || quote.ResendResetAt.Time.Before(calendarMonth(now).Start) {
		return 0
	}
	return int(quote.ResendCount)
}
