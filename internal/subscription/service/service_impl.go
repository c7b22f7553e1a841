package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fanvault/fanvault/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) MapFanStatus(external string) domain.Status {
	switch external {
	case "active", "trialing":
		return domain.StatusActive
	case "past_due":
		return domain.StatusPastDue
	case "unpaid":
		return domain.StatusUnpaid
	case "canceled":
		return domain.StatusCanceled
	case "incomplete", "incomplete_expired":
		return domain.StatusIncomplete
	default:
		return domain.StatusCanceled
	}
}

func (s *service) MapPlanStatus(external string) string {
	switch external {
	case "active", "trialing":
		return domain.EntitlementStatusActive
	default:
		return domain.EntitlementStatusCanceled
	}
}

func (s *service) ReconcileFan(ctx context.Context, sub *domain.FanSubscription) error {
	if sub.Status.PreActivation() {
		sub.PeriodStart = nil
		sub.PeriodEnd = nil
	}

	existing, err := s.repo.FindFanSubscriptionByProcessorID(ctx, s.db, sub.ProcessorSubscriptionID)
	if err != nil {
		return err
	}
	if existing != nil {
		sub.ID = existing.ID
	} else {
		sub.ID = s.genID.Generate()
	}
	sub.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpsertFanSubscription(ctx, s.db, sub); err != nil {
		return err
	}

	s.log.Info("fan subscription reconciled",
		zap.String("processor_subscription_id", sub.ProcessorSubscriptionID),
		zap.String("fan_id", sub.FanID),
		zap.String("creator_id", sub.CreatorID),
		zap.String("status", string(sub.Status)),
	)
	return nil
}

func (s *service) ReconcilePlan(ctx context.Context, ent *domain.PlanEntitlement) error {
	existing, err := s.repo.FindPlanEntitlementByProcessorID(ctx, s.db, ent.ProcessorSubscriptionID)
	if err != nil {
		return err
	}
	if existing != nil {
		ent.ID = existing.ID
	} else {
		ent.ID = s.genID.Generate()
	}
	ent.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpsertPlanEntitlement(ctx, s.db, ent); err != nil {
		return err
	}

	s.log.Info("plan entitlement reconciled",
		zap.String("processor_subscription_id", ent.ProcessorSubscriptionID),
		zap.String("user_id", ent.UserID),
		zap.String("status", ent.Status),
	)
	return nil
}

func (s *service) DeleteFan(ctx context.Context, processorSubscriptionID string) error {
	if err := s.repo.DeleteFanSubscriptionByProcessorID(ctx, s.db, processorSubscriptionID); err != nil {
		return err
	}
	s.log.Info("fan subscription removed",
		zap.String("processor_subscription_id", processorSubscriptionID),
	)
	return nil
}

func (s *service) ExpirePlan(ctx context.Context, processorSubscriptionID string) error {
	if err := s.repo.ExpirePlanEntitlement(ctx, s.db, processorSubscriptionID, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Info("plan entitlement expired",
		zap.String("processor_subscription_id", processorSubscriptionID),
	)
	return nil
}
