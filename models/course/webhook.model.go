package course

import "time"

// WebhookEvent records every verified provider event, handled or not.
// The unique event id is the idempotency guard under at-least-once
// delivery, and the row doubles as the audit trail for failed payments.
type WebhookEvent struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	EventID    string    `json:"event_id" gorm:"uniqueIndex;not null"`
	Type       string    `json:"type" gorm:"index"`
	IntentID   string    `json:"intent_id" gorm:"index"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}
