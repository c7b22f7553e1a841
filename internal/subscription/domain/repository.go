package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository is the persistence contract for converged records. Upserts
// replace every reconciled field: the processor's current event is always
// authoritative, so partial fields are never merged from an older row.
type Repository interface {
	UpsertFanSubscription(ctx context.Context, db *gorm.DB, sub *FanSubscription) error
	FindFanSubscriptionByProcessorID(ctx context.Context, db *gorm.DB, processorSubscriptionID string) (*FanSubscription, error)
	DeleteFanSubscriptionByProcessorID(ctx context.Context, db *gorm.DB, processorSubscriptionID string) error

	UpsertPlanEntitlement(ctx context.Context, db *gorm.DB, ent *PlanEntitlement) error
	FindPlanEntitlementByProcessorID(ctx context.Context, db *gorm.DB, processorSubscriptionID string) (*PlanEntitlement, error)
	ExpirePlanEntitlement(ctx context.Context, db *gorm.DB, processorSubscriptionID string, at time.Time) error
}
