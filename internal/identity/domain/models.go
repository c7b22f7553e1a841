// Package domain contains the read-only identity mappings the reconciler
// resolves events against. Rows are written by account provisioning and
// profile management, never by the webhook core.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreatorPlan maps a connected account's price to the owning creator and plan.
// The same price id can exist under different accounts, so lookups are always
// scoped by account.
type CreatorPlan struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AccountID string       `gorm:"type:text;not null;index:ux_creator_plans_account_price,unique"`
	PriceID   string       `gorm:"type:text;not null;index:ux_creator_plans_account_price,unique"`
	CreatorID string       `gorm:"type:text;not null"`
	PlanID    string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CreatorPlan) TableName() string { return "creator_plans" }

// CustomerMapping maps a processor customer id to the internal fan id.
type CustomerMapping struct {
	ID                  snowflake.ID `gorm:"primaryKey"`
	ProcessorCustomerID string       `gorm:"type:text;not null;uniqueIndex"`
	FanID               string       `gorm:"type:text;not null"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerMapping) TableName() string { return "customer_mappings" }
