// Package domain contains core business types and interfaces.
//
// This file defines the entitlements resolver: a pure function from an
// organization's subscription, trial and usage state to its tier, quota and
// feature flags. Nothing here is persisted; entitlements are recomputed on
// every read so an expired trial loses its features without a background job.
package domain

import (
	"math"
	"time"
)

// FreeTierLimit is the number of quotes a free organization may send per period.
const FreeTierLimit = 5

// =============================================================================
// Tier
// =============================================================================

// Tier is the billing classification of an organization.
type Tier string

const (
	TierPaid  Tier = "paid"
	TierTrial Tier = "trial"
	TierFree  Tier = "free"
)

// SubscriptionStatus is the state of an organization's subscription record.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// =============================================================================
// Permission reasons and remediation
// =============================================================================

// PermissionReason is the machine-readable reason an action was refused.
type PermissionReason string

const (
	ReasonSubscriptionCancelled PermissionReason = "SUBSCRIPTION_CANCELLED"
	ReasonPaymentRequired       PermissionReason = "PAYMENT_REQUIRED"
	ReasonLimitExceeded         PermissionReason = "LIMIT_EXCEEDED"
	ReasonResendLimit           PermissionReason = "RESEND_LIMIT"
	ReasonAlreadySent           PermissionReason = "ALREADY_SENT"
)

// ErrorCode maps the reason onto an application error code.
func (r PermissionReason) ErrorCode() string {
	switch r {
	case ReasonSubscriptionCancelled:
		return EFORBIDDEN
	case ReasonPaymentRequired, ReasonLimitExceeded:
		return EPAYMENT
	case ReasonResendLimit:
		return ERATELIMIT
	case ReasonAlreadySent:
		return ECONFLICT
	}
	return EFORBIDDEN
}

// DefaultMessage is the English message used when no localized one is available.
func (r PermissionReason) DefaultMessage() string {
	switch r {
	case ReasonSubscriptionCancelled:
		return "Your subscription is cancelled. Reactivate it to send quotes."
	case ReasonPaymentRequired:
		return "Your last payment failed. Update your payment method to send quotes."
	case ReasonLimitExceeded:
		return "You have reached your quote limit for this period."
	case ReasonResendLimit:
		return "This quote has been resent too many times this month."
	case ReasonAlreadySent:
		return "This quote has already been sent."
	}
	return "This action is not allowed."
}

// RemediationAction is the next step suggested to the user.
type RemediationAction string

const (
	ActionReactivateSubscription RemediationAction = "reactivate_subscription"
	ActionUpdatePayment          RemediationAction = "update_payment"
	ActionUpgradePlan            RemediationAction = "upgrade_plan"
	ActionStartSubscription      RemediationAction = "start_subscription"
)

// SendPermission is the outcome of the canMarkSent evaluation.
type SendPermission struct {
	Allowed bool              `json:"allowed"`
	Reason  PermissionReason  `json:"reason,omitempty"`
	Action  RemediationAction `json:"action,omitempty"`
}

// =============================================================================
// Input and output
// =============================================================================

// SubscriptionSnapshot is the subscription and plan state used for resolution.
// Limits are nil when the column is null.
type SubscriptionSnapshot struct {
	Status            SubscriptionStatus
	PlanName          string
	PlanMonthlyLimit  *int
	LegacyQuotesLimit *int
}

// EntitlementInput is everything the resolver reads.
type EntitlementInput struct {
	TrialEndsAt       *time.Time
	TrialSentLimit    int
	TrialSentUsed     int
	AutoEmailEnabled  bool
	BccInboundEnabled bool
	StorageUsedBytes  int64
	StorageQuotaBytes int64
	Subscription      *SubscriptionSnapshot
	// PeriodQuotesSent is the usage counter for the current billing period.
	PeriodQuotesSent int
}

// Entitlements is the derived, point-in-time set of permissions and limits.
type Entitlements struct {
	Tier               Tier           `json:"tier"`
	PlanName           string         `json:"planName,omitempty"`
	EffectivePlanLimit int            `json:"effectivePlanLimit"`
	QuotesUsed         int            `json:"quotesUsed"`
	QuotesRemaining    int            `json:"quotesRemaining"`
	AutoEmailEnabled   bool           `json:"autoEmailEnabled"`
	BccInboundEnabled  bool           `json:"bccInboundEnabled"`
	TrialActive        bool           `json:"trialActive"`
	TrialDaysRemaining int            `json:"trialDaysRemaining"`
	TrialEndsAt        *time.Time     `json:"trialEndsAt,omitempty"`
	CanMarkSent        SendPermission `json:"canMarkSent"`
	StorageUsedBytes   int64          `json:"storageUsedBytes"`
	StorageQuotaBytes  int64          `json:"storageQuotaBytes"`
}

// =============================================================================
// Tier precedence
// =============================================================================

type tierRule struct {
	tier    Tier
	matches func(in EntitlementInput, now time.Time) bool
}

// tierRules is evaluated in order; the first match wins. Any subscription
// record makes the organization paid, whatever its status.
var tierRules = []tierRule{
	{
		tier: TierPaid,
		matches: func(in EntitlementInput, _ time.Time) bool {
			return in.Subscription != nil
		},
	},
	{
		tier: TierTrial,
		matches: func(in EntitlementInput, now time.Time) bool {
			return in.TrialEndsAt != nil && now.Before(*in.TrialEndsAt)
		},
	},
	{
		tier: TierFree,
		matches: func(EntitlementInput, time.Time) bool {
			return true
		},
	},
}

// ResolveTier returns the tier of the first matching rule.
func ResolveTier(in EntitlementInput, now time.Time) Tier {
	for _, rule := range tierRules {
		if rule.matches(in, now) {
			return rule.tier
		}
	}
	return TierFree
}

// =============================================================================
// Send permission
// =============================================================================

type permissionRule struct {
	reason PermissionReason
	denies func(in EntitlementInput, e Entitlements) bool
	action func(tier Tier) RemediationAction
}

// permissionRules is evaluated in order; the first rule that denies wins.
var permissionRules = []permissionRule{
	{
		reason: ReasonSubscriptionCancelled,
		denies: func(in EntitlementInput, _ Entitlements) bool {
			return in.Subscription != nil && in.Subscription.Status == SubscriptionStatusCancelled
		},
		action: func(Tier) RemediationAction { return ActionReactivateSubscription },
	},
	{
		reason: ReasonPaymentRequired,
		denies: func(in EntitlementInput, _ Entitlements) bool {
			return in.Subscription != nil && in.Subscription.Status == SubscriptionStatusPastDue
		},
		action: func(Tier) RemediationAction { return ActionUpdatePayment },
	},
	{
		reason: ReasonLimitExceeded,
		denies: func(_ EntitlementInput, e Entitlements) bool {
			return e.QuotesUsed >= e.EffectivePlanLimit
		},
		action: func(tier Tier) RemediationAction {
			if tier == TierFree {
				return ActionStartSubscription
			}
			return ActionUpgradePlan
		},
	},
}

func evaluateSendPermission(in EntitlementInput, e Entitlements) SendPermission {
	for _, rule := range permissionRules {
		if rule.denies(in, e) {
			return SendPermission{Reason: rule.reason, Action: rule.action(e.Tier)}
		}
	}
	return SendPermission{Allowed: true}
}

// =============================================================================
// Resolver
// =============================================================================

// CalculateEntitlements derives the organization's entitlements at now.
func CalculateEntitlements(in EntitlementInput, now time.Time) Entitlements {
	tier := ResolveTier(in, now)

	e := Entitlements{
		Tier:              tier,
		TrialEndsAt:       in.TrialEndsAt,
		StorageUsedBytes:  in.StorageUsedBytes,
		StorageQuotaBytes: in.StorageQuotaBytes,
	}

	switch tier {
	case TierPaid:
		e.PlanName = in.Subscription.PlanName
		e.EffectivePlanLimit = paidLimit(in.Subscription)
		e.QuotesUsed = in.PeriodQuotesSent
	case TierTrial:
		e.EffectivePlanLimit = in.TrialSentLimit
		e.QuotesUsed = in.TrialSentUsed
		e.TrialActive = true
		e.TrialDaysRemaining = TrialDaysRemaining(*in.TrialEndsAt, now)
	default:
		e.EffectivePlanLimit = FreeTierLimit
		e.QuotesUsed = in.PeriodQuotesSent
	}

	e.QuotesRemaining = max(0, e.EffectivePlanLimit-e.QuotesUsed)

	// Stored flags only count for paid and trial organizations.
	if tier != TierFree {
		e.AutoEmailEnabled = in.AutoEmailEnabled
		e.BccInboundEnabled = in.BccInboundEnabled
	}

	e.CanMarkSent = evaluateSendPermission(in, e)
	return e
}

func paidLimit(sub *SubscriptionSnapshot) int {
	if sub.PlanMonthlyLimit != nil {
		return *sub.PlanMonthlyLimit
	}
	if sub.LegacyQuotesLimit != nil {
		return *sub.LegacyQuotesLimit
	}
	return FreeTierLimit
}

// TrialDaysRemaining returns the whole days left until endsAt, rounded up and
// never negative.
func TrialDaysRemaining(endsAt, now time.Time) int {
	left := endsAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
