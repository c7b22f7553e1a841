package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanvault/fanvault/internal/subscription/domain"
	"github.com/fanvault/fanvault/internal/subscription/repository"
	"github.com/fanvault/fanvault/internal/subscription/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_sub_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE fan_subscriptions (
			id BIGINT PRIMARY KEY,
			fan_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			plan_id TEXT,
			status TEXT NOT NULL,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			processor_customer_id TEXT,
			processor_subscription_id TEXT NOT NULL,
			period_start DATETIME,
			period_end DATETIME,
			canceled_at DATETIME,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_fan_subscriptions_processor_subscription ON fan_subscriptions(processor_subscription_id)`,
		`CREATE TABLE plan_entitlements (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			entitlement_key TEXT NOT NULL,
			status TEXT NOT NULL,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			processor_customer_id TEXT,
			processor_subscription_id TEXT NOT NULL,
			period_start DATETIME,
			period_end DATETIME,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_plan_entitlements_user_key ON plan_entitlements(user_id, entitlement_key)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) service.Service {
	t.Helper()

	node, err := snowflake.NewNode(20)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestMapFanStatus(t *testing.T) {
	svc := newService(t, setupTestDB(t))

	cases := map[string]domain.Status{
		"active":             domain.StatusActive,
		"trialing":           domain.StatusActive,
		"past_due":           domain.StatusPastDue,
		"unpaid":             domain.StatusUnpaid,
		"canceled":           domain.StatusCanceled,
		"incomplete":         domain.StatusIncomplete,
		"incomplete_expired": domain.StatusIncomplete,
		"paused":             domain.StatusCanceled,
		"made_up":            domain.StatusCanceled,
	}
	for external, want := range cases {
		if got := svc.MapFanStatus(external); got != want {
			t.Fatalf("MapFanStatus(%s) = %s, want %s", external, got, want)
		}
	}
}

func TestMapPlanStatus(t *testing.T) {
	svc := newService(t, setupTestDB(t))

	cases := map[string]string{
		"active":     domain.EntitlementStatusActive,
		"trialing":   domain.EntitlementStatusActive,
		"past_due":   domain.EntitlementStatusCanceled,
		"unpaid":     domain.EntitlementStatusCanceled,
		"canceled":   domain.EntitlementStatusCanceled,
		"incomplete": domain.EntitlementStatusCanceled,
	}
	for external, want := range cases {
		if got := svc.MapPlanStatus(external); got != want {
			t.Fatalf("MapPlanStatus(%s) = %s, want %s", external, got, want)
		}
	}
}

func TestReconcileFanReusesRowAcrossUpdates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)
	repo := repository.Provide()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	first := &domain.FanSubscription{
		FanID:                   "F1",
		CreatorID:               "C1",
		Status:                  domain.StatusActive,
		ProcessorSubscriptionID: "sub_1",
		PeriodStart:             &start,
		PeriodEnd:               &end,
	}
	if err := svc.ReconcileFan(ctx, first); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	second := &domain.FanSubscription{
		FanID:                   "F1",
		CreatorID:               "C1",
		Status:                  domain.StatusPastDue,
		CancelAtPeriodEnd:       true,
		ProcessorSubscriptionID: "sub_1",
		PeriodStart:             &start,
		PeriodEnd:               &end,
	}
	if err := svc.ReconcileFan(ctx, second); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	stored, err := repo.FindFanSubscriptionByProcessorID(ctx, db, "sub_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored row")
	}
	if stored.ID != first.ID {
		t.Fatalf("row identity changed across updates: %d vs %d", stored.ID, first.ID)
	}
	if stored.Status != domain.StatusPastDue || !stored.CancelAtPeriodEnd {
		t.Fatalf("update did not replace fields: %+v", stored)
	}
	if stored.PeriodStart == nil || !stored.PeriodStart.Equal(start) {
		t.Fatalf("period start did not round-trip: %v", stored.PeriodStart)
	}
	if stored.PeriodEnd == nil || !stored.PeriodEnd.Equal(end) {
		t.Fatalf("period end did not round-trip: %v", stored.PeriodEnd)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM fan_subscriptions`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
}

func TestReconcileFanClearsPeriodForPreActivation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)
	repo := repository.Provide()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	sub := &domain.FanSubscription{
		FanID:                   "F1",
		CreatorID:               "C1",
		Status:                  domain.StatusIncomplete,
		ProcessorSubscriptionID: "sub_1",
		PeriodStart:             &start,
		PeriodEnd:               &end,
	}
	if err := svc.ReconcileFan(ctx, sub); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	stored, err := repo.FindFanSubscriptionByProcessorID(ctx, db, "sub_1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.PeriodStart != nil || stored.PeriodEnd != nil {
		t.Fatalf("pre-activation rows must not carry a period: %+v", stored)
	}
}

func TestReconcilePlanReplacesByUserAndKey(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)
	repo := repository.Provide()

	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	first := &domain.PlanEntitlement{
		UserID:                  "U1",
		EntitlementKey:          domain.EntitlementKeyCreatorPlan,
		Status:                  domain.EntitlementStatusActive,
		ProcessorSubscriptionID: "sub_a",
		PeriodEnd:               &end,
	}
	if err := svc.ReconcilePlan(ctx, first); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	// A fresh purchase replaces the same (user, key) slot even when the
	// external subscription id changed.
	second := &domain.PlanEntitlement{
		UserID:                  "U1",
		EntitlementKey:          domain.EntitlementKeyCreatorPlan,
		Status:                  domain.EntitlementStatusActive,
		ProcessorSubscriptionID: "sub_b",
		PeriodEnd:               &end,
	}
	if err := svc.ReconcilePlan(ctx, second); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM plan_entitlements`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one entitlement per (user, key), got %d", count)
	}

	stored, err := repo.FindPlanEntitlementByProcessorID(ctx, db, "sub_b")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored == nil {
		t.Fatal("expected entitlement tracking the new subscription")
	}
}

func TestExpirePlanClearsPeriodAndFlag(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)
	repo := repository.Provide()

	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	ent := &domain.PlanEntitlement{
		UserID:                  "U1",
		EntitlementKey:          domain.EntitlementKeyCreatorPlan,
		Status:                  domain.EntitlementStatusActive,
		CancelAtPeriodEnd:       true,
		ProcessorSubscriptionID: "sub_a",
		PeriodEnd:               &end,
	}
	if err := svc.ReconcilePlan(ctx, ent); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if err := svc.ExpirePlan(ctx, "sub_a"); err != nil {
		t.Fatalf("expire: %v", err)
	}

	stored, err := repo.FindPlanEntitlementByProcessorID(ctx, db, "sub_a")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != domain.EntitlementStatusExpired {
		t.Fatalf("expected expired, got %s", stored.Status)
	}
	if stored.PeriodEnd != nil || stored.CancelAtPeriodEnd {
		t.Fatalf("expiry must clear period and flag: %+v", stored)
	}
}

func TestDeleteFanIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	sub := &domain.FanSubscription{
		FanID:                   "F1",
		CreatorID:               "C1",
		Status:                  domain.StatusCheckoutPending,
		ProcessorSubscriptionID: "sub_1",
	}
	if err := svc.ReconcileFan(ctx, sub); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if err := svc.DeleteFan(ctx, "sub_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteFan(ctx, "sub_1"); err != nil {
		t.Fatalf("repeat delete must not fail: %v", err)
	}
}
