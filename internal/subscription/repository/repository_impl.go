package repository

import (
	"context"
	"time"

	"github.com/fanvault/fanvault/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertFanSubscription(ctx context.Context, db *gorm.DB, sub *domain.FanSubscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fan_subscriptions (
			id, fan_id, creator_id, plan_id, status, cancel_at_period_end,
			processor_customer_id, processor_subscription_id,
			period_start, period_end, canceled_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (processor_subscription_id) DO UPDATE SET
			fan_id = excluded.fan_id,
			creator_id = excluded.creator_id,
			plan_id = excluded.plan_id,
			status = excluded.status,
			cancel_at_period_end = excluded.cancel_at_period_end,
			processor_customer_id = excluded.processor_customer_id,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			canceled_at = excluded.canceled_at,
			updated_at = excluded.updated_at`,
		sub.ID,
		sub.FanID,
		sub.CreatorID,
		sub.PlanID,
		sub.Status,
		sub.CancelAtPeriodEnd,
		sub.ProcessorCustomerID,
		sub.ProcessorSubscriptionID,
		sub.PeriodStart,
		sub.PeriodEnd,
		sub.CanceledAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) FindFanSubscriptionByProcessorID(ctx context.Context, db *gorm.DB, processorSubscriptionID string) (*domain.FanSubscription, error) {
	var item domain.FanSubscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, fan_id, creator_id, plan_id, status, cancel_at_period_end,
			processor_customer_id, processor_subscription_id,
			period_start, period_end, canceled_at, updated_at
		 FROM fan_subscriptions
		 WHERE processor_subscription_id = ?
		 LIMIT 1`,
		processorSubscriptionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) DeleteFanSubscriptionByProcessorID(ctx context.Context, db *gorm.DB, processorSubscriptionID string) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM fan_subscriptions WHERE processor_subscription_id = ?`,
		processorSubscriptionID,
	).Error
}

func (r *repo) UpsertPlanEntitlement(ctx context.Context, db *gorm.DB, ent *domain.PlanEntitlement) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plan_entitlements (
			id, user_id, entitlement_key, status, cancel_at_period_end,
			processor_customer_id, processor_subscription_id,
			period_start, period_end, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, entitlement_key) DO UPDATE SET
			status = excluded.status,
			cancel_at_period_end = excluded.cancel_at_period_end,
			processor_customer_id = excluded.processor_customer_id,
			processor_subscription_id = excluded.processor_subscription_id,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			updated_at = excluded.updated_at`,
		ent.ID,
		ent.UserID,
		ent.EntitlementKey,
		ent.Status,
		ent.CancelAtPeriodEnd,
		ent.ProcessorCustomerID,
		ent.ProcessorSubscriptionID,
		ent.PeriodStart,
		ent.PeriodEnd,
		ent.UpdatedAt,
	).Error
}

func (r *repo) FindPlanEntitlementByProcessorID(ctx context.Context, db *gorm.DB, processorSubscriptionID string) (*domain.PlanEntitlement, error) {
	var item domain.PlanEntitlement
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, entitlement_key, status, cancel_at_period_end,
			processor_customer_id, processor_subscription_id,
			period_start, period_end, updated_at
		 FROM plan_entitlements
		 WHERE processor_subscription_id = ?
		 LIMIT 1`,
		processorSubscriptionID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ExpirePlanEntitlement(ctx context.Context, db *gorm.DB, processorSubscriptionID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE plan_entitlements
		 SET status = ?, period_start = NULL, period_end = NULL,
			cancel_at_period_end = FALSE, updated_at = ?
		 WHERE processor_subscription_id = ?`,
		domain.EntitlementStatusExpired,
		at,
		processorSubscriptionID,
	).Error
}
