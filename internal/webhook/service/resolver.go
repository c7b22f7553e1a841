package service

import (
	"context"

	"github.com/fanvault/fanvault/internal/processor"
)

// creatorIdentity is the tenant side of a resolved fan subscription.
type creatorIdentity struct {
	CreatorID string
	PlanID    *string
}

// resolveCreator finds the creator behind a subscription. Embedded metadata
// wins; otherwise the first line item's price is looked up in the mapping
// table scoped to the emitting account. The same price id can exist under
// several accounts, so the lookup is never global.
func (s *service) resolveCreator(ctx context.Context, sub *processor.Subscription, accountID string, extra map[string]string) (*creatorIdentity, error) {
	if creatorID := metaValue(sub, extra, "creator_id"); creatorID != "" {
		ident := &creatorIdentity{CreatorID: creatorID}
		if planID := metaValue(sub, extra, "plan_id"); planID != "" {
			ident.PlanID = &planID
		}
		return ident, nil
	}

	priceID := sub.FirstPriceID()
	if priceID == "" {
		return nil, nil
	}
	plan, err := s.identity.FindPlanByPrice(ctx, s.db, accountID, priceID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	planID := plan.PlanID
	return &creatorIdentity{CreatorID: plan.CreatorID, PlanID: &planID}, nil
}

// resolveFan finds the subscriber: metadata fan_id first, then a reverse
// lookup of the processor customer id. Returns "" when neither resolves.
func (s *service) resolveFan(ctx context.Context, sub *processor.Subscription, extra map[string]string) (string, error) {
	if fanID := metaValue(sub, extra, "fan_id"); fanID != "" {
		return fanID, nil
	}
	customerID := sub.Customer.String()
	if customerID == "" {
		return "", nil
	}
	return s.identity.FindFanByCustomer(ctx, s.db, customerID)
}

// resolveUser finds the platform-level purchaser for an entitlement event.
func (s *service) resolveUser(ctx context.Context, sub *processor.Subscription, extra map[string]string) (string, error) {
	if userID := metaValue(sub, extra, "user_id"); userID != "" {
		return userID, nil
	}
	return s.resolveFan(ctx, sub, extra)
}

// metaValue reads a key from the subscription's metadata, falling back to the
// checkout session's metadata when the subscription was created without it.
func metaValue(sub *processor.Subscription, extra map[string]string, key string) string {
	if v := sub.Meta(key); v != "" {
		return v
	}
	return extra[key]
}
