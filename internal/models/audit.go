package models

import "time"

// Audit event types recorded by the dispatch core.
const (
	EventAlertCreated      = "alert_created"
	EventAlertCancelled    = "alert_cancelled"
	EventAlertResolved     = "alert_resolved"
	EventAlertFalseAlarm   = "alert_false_alarm"
	EventNotification      = "notification_attempt"
	EventAuthorityNotified = "authority_notification"
	EventFanOutSettled     = "fanout_settled"
	EventAlertEscalated    = "alert_escalated"
)

// AuditEntry is an immutable record. Sequence is assigned by the log on
// append and totally orders all entries across concurrent writers.
type AuditEntry struct {
	Sequence  uint64            `gorm:"primaryKey;autoIncrement" json:"sequence"`
	AlertID   *string           `gorm:"size:36;index:idx_audit_alert" json:"alert_id,omitempty"`
	EventType string            `gorm:"size:50;not null" json:"event_type"`
	ActorID   *string           `gorm:"size:255" json:"actor_id,omitempty"`
	Timestamp time.Time         `gorm:"not null" json:"timestamp"`
	Payload   map[string]string `gorm:"serializer:json" json:"payload,omitempty"`
}

func (AuditEntry) TableName() string { return "audit_entries" }

// NotificationOutcome is the result of one channel attempt. It is not a
// table of its own: the notifier records each outcome as an audit payload.
type NotificationOutcome struct {
	Channel     string    `json:"channel"`
	Target      string    `json:"target"`
	Succeeded   bool      `json:"succeeded"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}
