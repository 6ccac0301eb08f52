package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	courseModels "lms/models/course"
)

type webhookStore struct {
	db *gorm.DB
}

// NewWebhookStore returns the PostgreSQL-backed WebhookStore.
func NewWebhookStore(db *gorm.DB) WebhookStore {
	return &webhookStore{db: db}
}

func (s *webhookStore) Record(ctx context.Context, event *courseModels.WebhookEvent) error {
	err := s.db.WithContext(ctx).Create(event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEventSeen
		}
		return err
	}
	return nil
}

func (s *webhookStore) Discard(ctx context.Context, eventID string) error {
	return s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&courseModels.WebhookEvent{}).Error
}
