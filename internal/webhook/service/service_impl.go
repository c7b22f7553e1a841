package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/fanvault/fanvault/internal/identity/domain"
	"github.com/fanvault/fanvault/internal/observability/metrics"
	"github.com/fanvault/fanvault/internal/processor"
	subdomain "github.com/fanvault/fanvault/internal/subscription/domain"
	subservice "github.com/fanvault/fanvault/internal/subscription/service"
	"github.com/fanvault/fanvault/internal/webhook/domain"
	"github.com/fanvault/fanvault/internal/webhook/stripe"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Adapter  *stripe.Adapter
	Events   domain.EventRepository
	Identity identitydomain.Repository
	SubRepo  subdomain.Repository
	Subs     subservice.Service
	Client   processor.Client
	Metrics  *metrics.WebhookMetrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	adapter  *stripe.Adapter
	events   domain.EventRepository
	identity identitydomain.Repository
	subRepo  subdomain.Repository
	subs     subservice.Service
	client   processor.Client
	metrics  *metrics.WebhookMetrics
}

func NewService(p Params) Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("webhook.service"),
		genID:    p.GenID,
		adapter:  p.Adapter,
		events:   p.Events,
		identity: p.Identity,
		subRepo:  p.SubRepo,
		subs:     p.Subs,
		client:   p.Client,
		metrics:  p.Metrics,
	}
}

func (s *service) IngestWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	started := time.Now()

	if err := s.adapter.Verify(payload, signatureHeader); err != nil {
		s.metrics.RecordEvent("", metrics.OutcomeRejectedSignature)
		return err
	}

	ev, err := s.adapter.Parse(payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			s.metrics.RecordEvent("", metrics.OutcomeIgnored)
			return err
		}
		s.log.Warn("webhook payload rejected", zap.Error(err))
		s.metrics.RecordEvent("", metrics.OutcomeFailed)
		return err
	}

	defer func() {
		s.metrics.RecordDuration(ev.Type, time.Since(started))
	}()

	log := s.log.With(
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.Type),
		zap.String("account_id", ev.Account),
	)

	claimed, err := s.events.InsertEvent(ctx, s.db, &domain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        stripe.Provider,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		Payload:         string(payload),
		ReceivedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.metrics.RecordEvent(ev.Type, metrics.OutcomeFailed)
		return err
	}
	if !claimed {
		prev, err := s.events.FindEvent(ctx, s.db, stripe.Provider, ev.ID)
		if err != nil {
			s.metrics.RecordEvent(ev.Type, metrics.OutcomeFailed)
			return err
		}
		if prev != nil && prev.ProcessedAt != nil {
			log.Info("duplicate delivery acknowledged")
			s.metrics.RecordEvent(ev.Type, metrics.OutcomeDuplicate)
			return domain.ErrEventAlreadyProcessed
		}
		// earlier attempt never completed, run it again
	}

	outcome, err := s.dispatch(ctx, log, ev)
	if err != nil {
		log.Error("webhook reconciliation failed", zap.Error(err))
		s.metrics.RecordEvent(ev.Type, metrics.OutcomeFailed)
		return err
	}
	s.metrics.RecordEvent(ev.Type, outcome)

	if outcome == metrics.OutcomeProcessed {
		if err := s.events.MarkProcessed(ctx, s.db, stripe.Provider, ev.ID, time.Now().UTC()); err != nil {
			log.Warn("failed to stamp event as processed", zap.Error(err))
		}
	}
	return nil
}

func (s *service) dispatch(ctx context.Context, log *zap.Logger, ev *domain.Event) (string, error) {
	switch ev.Kind {
	case domain.KindCheckoutCompleted:
		return s.handleCheckout(ctx, log, ev)
	case domain.KindSubscriptionChange:
		return s.reconcile(ctx, log, ev, ev.Subscription, nil, false)
	case domain.KindSubscriptionDeleted:
		return s.handleDeleted(ctx, log, ev)
	default:
		return metrics.OutcomeIgnored, nil
	}
}

// handleCheckout completes a checkout by fetching the subscription it created
// and reconciling from the authoritative object. The session's own metadata
// rides along as a fallback for identity fields the subscription lacks.
func (s *service) handleCheckout(ctx context.Context, log *zap.Logger, ev *domain.Event) (string, error) {
	sub, err := s.client.GetSubscription(ctx, ev.Checkout.SubscriptionID.String(), ev.Account)
	if err != nil {
		return "", err
	}
	return s.reconcile(ctx, log, ev, sub, ev.Checkout.Metadata, true)
}

// reconcile routes a subscription object to the platform-entitlement or
// fan-subscription path and converges the matching record. The payload is
// swapped for the authoritative object first so that status, flags, and
// period all come from the same current snapshot, regardless of delivery
// order.
func (s *service) reconcile(ctx context.Context, log *zap.Logger, ev *domain.Event, sub *processor.Subscription, extra map[string]string, fromCheckout bool) (string, error) {
	if !fromCheckout && !s.subs.MapFanStatus(sub.Status).PreActivation() {
		sub = s.authoritative(ctx, sub, ev.Account)
	}

	platform, err := s.isPlatform(ctx, sub, extra)
	if err != nil {
		return "", err
	}
	if platform {
		return s.reconcilePlan(ctx, log, ev, sub, extra)
	}
	return s.reconcileFan(ctx, log, ev, sub, extra, fromCheckout)
}

// isPlatform classifies a subscription: the creator_plan metadata marker
// first, then whether an entitlement row already tracks this external id.
func (s *service) isPlatform(ctx context.Context, sub *processor.Subscription, extra map[string]string) (bool, error) {
	if metaValue(sub, extra, "key") == subdomain.EntitlementKeyCreatorPlan {
		return true, nil
	}
	ent, err := s.subRepo.FindPlanEntitlementByProcessorID(ctx, s.db, sub.ID)
	if err != nil {
		return false, err
	}
	return ent != nil, nil
}

func (s *service) reconcileFan(ctx context.Context, log *zap.Logger, ev *domain.Event, sub *processor.Subscription, extra map[string]string, fromCheckout bool) (string, error) {
	fanID, err := s.resolveFan(ctx, sub, extra)
	if err != nil {
		return "", err
	}
	if fanID == "" {
		log.Info("fan identity not yet resolvable, skipping",
			zap.String("subscription_id", sub.ID),
			zap.String("customer_id", sub.Customer.String()))
		return metrics.OutcomeSkippedIdentity, nil
	}

	creator, err := s.resolveCreator(ctx, sub, ev.Account, extra)
	if err != nil {
		return "", err
	}
	if creator == nil {
		log.Info("creator identity not yet resolvable, skipping",
			zap.String("subscription_id", sub.ID),
			zap.String("price_id", sub.FirstPriceID()))
		return metrics.OutcomeSkippedIdentity, nil
	}

	status := s.subs.MapFanStatus(sub.Status)
	if fromCheckout && status.PreActivation() {
		status = subdomain.StatusCheckoutPending
	}

	var start, end *time.Time
	if !status.PreActivation() {
		start, end, err = derivePeriod(sub)
		if errors.Is(err, ErrPeriodUnavailable) {
			log.Warn("billing period underivable, skipping",
				zap.String("subscription_id", sub.ID),
				zap.String("status", sub.Status))
			return metrics.OutcomeSkippedPeriod, nil
		}
		if err != nil {
			return "", err
		}
	}

	rec := &subdomain.FanSubscription{
		FanID:                   fanID,
		CreatorID:               creator.CreatorID,
		PlanID:                  creator.PlanID,
		Status:                  status,
		CancelAtPeriodEnd:       sub.CancelAtPeriodEnd,
		ProcessorCustomerID:     optional(sub.Customer.String()),
		ProcessorSubscriptionID: sub.ID,
		PeriodStart:             start,
		PeriodEnd:               end,
		CanceledAt:              unixTime(sub.CanceledAt),
	}
	if err := s.subs.ReconcileFan(ctx, rec); err != nil {
		return "", err
	}
	return metrics.OutcomeProcessed, nil
}

func (s *service) reconcilePlan(ctx context.Context, log *zap.Logger, ev *domain.Event, sub *processor.Subscription, extra map[string]string) (string, error) {
	userID, err := s.resolveUser(ctx, sub, extra)
	if err != nil {
		return "", err
	}
	if userID == "" {
		log.Info("entitlement user not yet resolvable, skipping",
			zap.String("subscription_id", sub.ID),
			zap.String("customer_id", sub.Customer.String()))
		return metrics.OutcomeSkippedIdentity, nil
	}

	var start, end *time.Time
	if !s.subs.MapFanStatus(sub.Status).PreActivation() {
		start, end, err = derivePeriod(sub)
		if errors.Is(err, ErrPeriodUnavailable) {
			log.Warn("billing period underivable, skipping",
				zap.String("subscription_id", sub.ID),
				zap.String("status", sub.Status))
			return metrics.OutcomeSkippedPeriod, nil
		}
		if err != nil {
			return "", err
		}
	}

	rec := &subdomain.PlanEntitlement{
		UserID:                  userID,
		EntitlementKey:          subdomain.EntitlementKeyCreatorPlan,
		Status:                  s.subs.MapPlanStatus(sub.Status),
		CancelAtPeriodEnd:       sub.CancelAtPeriodEnd,
		ProcessorCustomerID:     optional(sub.Customer.String()),
		ProcessorSubscriptionID: sub.ID,
		PeriodStart:             start,
		PeriodEnd:               end,
	}
	if err := s.subs.ReconcilePlan(ctx, rec); err != nil {
		return "", err
	}
	return metrics.OutcomeProcessed, nil
}

// handleDeleted routes a deletion by which record type tracks the external
// id: platform entitlements expire in place, fan subscriptions are removed.
func (s *service) handleDeleted(ctx context.Context, log *zap.Logger, ev *domain.Event) (string, error) {
	sub := ev.Subscription

	ent, err := s.subRepo.FindPlanEntitlementByProcessorID(ctx, s.db, sub.ID)
	if err != nil {
		return "", err
	}
	if ent != nil || sub.Meta("key") == subdomain.EntitlementKeyCreatorPlan {
		if err := s.subs.ExpirePlan(ctx, sub.ID); err != nil {
			return "", err
		}
		return metrics.OutcomeProcessed, nil
	}

	if err := s.subs.DeleteFan(ctx, sub.ID); err != nil {
		return "", err
	}
	return metrics.OutcomeProcessed, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
