package service

import (
	"context"

	"github.com/fanvault/fanvault/internal/subscription/domain"
)

// Service converges subscription records toward the state carried by a
// processor event. Callers hand it a fully-resolved record; the service owns
// identifier assignment, status normalization, and the pre-activation period
// rule.
type Service interface {
	// MapFanStatus translates a processor subscription status into the
	// internal fan lifecycle. Unknown statuses collapse to canceled.
	MapFanStatus(external string) domain.Status

	// MapPlanStatus translates a processor subscription status into the
	// entitlement lifecycle, where anything not active is canceled.
	MapPlanStatus(external string) string

	// ReconcileFan replaces the converged row for the record's processor
	// subscription id with the given state.
	ReconcileFan(ctx context.Context, sub *domain.FanSubscription) error

	// ReconcilePlan replaces the entitlement row keyed by (user, key) with
	// the given state.
	ReconcilePlan(ctx context.Context, ent *domain.PlanEntitlement) error

	// DeleteFan removes the converged fan row for a processor subscription.
	// Missing rows are not an error.
	DeleteFan(ctx context.Context, processorSubscriptionID string) error

	// ExpirePlan moves the entitlement tied to a processor subscription to
	// expired and clears its billing period.
	ExpirePlan(ctx context.Context, processorSubscriptionID string) error
}
