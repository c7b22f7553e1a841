// Package domain contains the converged subscription records the webhook core
// reconciles toward the processor's state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the internal lifecycle state of a fan subscription.
type Status string

const (
	StatusActive          Status = "active"
	StatusPastDue         Status = "past_due"
	StatusUnpaid          Status = "unpaid"
	StatusCanceled        Status = "canceled"
	StatusIncomplete      Status = "incomplete"
	StatusCheckoutPending Status = "checkout_pending"
)

// PreActivation reports whether s precedes the first successful payment.
// Records in these states never carry a billing period.
func (s Status) PreActivation() bool {
	return s == StatusIncomplete || s == StatusCheckoutPending
}

// Entitlement lifecycle states. The platform mapping is stricter than the fan
// one: anything that is not active collapses to canceled, and deletion moves
// the record to expired.
const (
	EntitlementStatusActive   = "active"
	EntitlementStatusCanceled = "canceled"
	EntitlementStatusExpired  = "expired"
)

// EntitlementKeyCreatorPlan marks a platform-level creator-plan purchase, both
// as the entitlement row key and as the classifying metadata value on the
// processor subscription.
const EntitlementKeyCreatorPlan = "creator_plan"

// FanSubscription is the converged record for one fan-to-creator pairing.
// ProcessorSubscriptionID is the sole idempotency key: replaying any event for
// the same external id converges onto the same row.
type FanSubscription struct {
	ID                      snowflake.ID `gorm:"primaryKey"`
	FanID                   string       `gorm:"type:text;not null;index"`
	CreatorID               string       `gorm:"type:text;not null;index"`
	PlanID                  *string      `gorm:"type:text"`
	Status                  Status       `gorm:"type:text;not null"`
	CancelAtPeriodEnd       bool         `gorm:"not null;default:false"`
	ProcessorCustomerID     *string      `gorm:"type:text"`
	ProcessorSubscriptionID string       `gorm:"type:text;not null;uniqueIndex"`
	PeriodStart             *time.Time   `gorm:""`
	PeriodEnd               *time.Time   `gorm:""`
	CanceledAt              *time.Time   `gorm:""`
	UpdatedAt               time.Time    `gorm:"not null"`
}

func (FanSubscription) TableName() string { return "fan_subscriptions" }

// EffectiveStatus reports the status used for access decisions. A canceled
// subscription whose paid period has not yet elapsed still grants access.
func (s *FanSubscription) EffectiveStatus(now time.Time) Status {
	if s.Status == StatusCanceled && s.PeriodEnd != nil && s.PeriodEnd.After(now) {
		return StatusActive
	}
	return s.Status
}

// PlanEntitlement is a platform-level access grant, keyed by (user, purpose).
type PlanEntitlement struct {
	ID                      snowflake.ID `gorm:"primaryKey"`
	UserID                  string       `gorm:"type:text;not null;index:ux_plan_entitlements_user_key,unique"`
	EntitlementKey          string       `gorm:"type:text;not null;index:ux_plan_entitlements_user_key,unique"`
	Status                  string       `gorm:"type:text;not null"`
	CancelAtPeriodEnd       bool         `gorm:"not null;default:false"`
	ProcessorCustomerID     *string      `gorm:"type:text"`
	ProcessorSubscriptionID string       `gorm:"type:text;not null;index"`
	PeriodStart             *time.Time   `gorm:""`
	PeriodEnd               *time.Time   `gorm:""`
	UpdatedAt               time.Time    `gorm:"not null"`
}

func (PlanEntitlement) TableName() string { return "plan_entitlements" }

// EffectiveStatus mirrors the fan-subscription access-grace rule.
func (e *PlanEntitlement) EffectiveStatus(now time.Time) string {
	if e.Status == EntitlementStatusCanceled && e.PeriodEnd != nil && e.PeriodEnd.After(now) {
		return EntitlementStatusActive
	}
	return e.Status
}
