package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// EventRecord is one row of the delivery ledger. The (provider,
// provider_event_id) pair is unique, which makes the first insert the
// processing claim for a delivery.
type EventRecord struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	Provider        string       `gorm:"type:text;not null;index:ux_webhook_events_provider_event,unique"`
	ProviderEventID string       `gorm:"type:text;not null;index:ux_webhook_events_provider_event,unique"`
	EventType       string       `gorm:"type:text;not null"`
	Payload         string       `gorm:"type:text;not null"`
	ReceivedAt      time.Time    `gorm:"not null"`
	ProcessedAt     *time.Time   `gorm:""`
}

func (EventRecord) TableName() string { return "webhook_events" }

// EventRepository is the delivery ledger. InsertEvent reports false when the
// delivery was already claimed by an earlier insert.
type EventRepository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, rec *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, provider, providerEventID string, at time.Time) error
}
