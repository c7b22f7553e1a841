package repository

import (
	"context"
	"time"

	"github.com/fanvault/fanvault/internal/webhook/domain"
	"github.com/fanvault/fanvault/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.EventRepository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, gdb *gorm.DB, rec *domain.EventRecord) (bool, error) {
	err := gdb.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, provider, provider_event_id, event_type, payload, received_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Provider,
		rec.ProviderEventID,
		rec.EventType,
		rec.Payload,
		rec.ReceivedAt,
		rec.ProcessedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repo) FindEvent(ctx context.Context, gdb *gorm.DB, provider, providerEventID string) (*domain.EventRecord, error) {
	var rec domain.EventRecord
	err := gdb.WithContext(ctx).Raw(
		`SELECT id, provider, provider_event_id, event_type, payload, received_at, processed_at
		 FROM webhook_events
		 WHERE provider = ? AND provider_event_id = ?
		 LIMIT 1`,
		provider,
		providerEventID,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) MarkProcessed(ctx context.Context, gdb *gorm.DB, provider, providerEventID string, at time.Time) error {
	return gdb.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed_at = ? WHERE provider = ? AND provider_event_id = ?`,
		at,
		provider,
		providerEventID,
	).Error
}
