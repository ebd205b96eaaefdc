package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Sahaya/internal/models"
	"Sahaya/pkg/errors"
)

// Observer is notified after every successful append. Used to feed the
// live event stream and metrics; observers must not block.
type Observer func(entry models.AuditEntry)

// Log is the append-only audit sink. Sequence numbers come from the
// database's auto-increment assignment, which is atomic and totally ordered
// across concurrent appenders. There is no update or delete path.
type Log struct {
	db        *gorm.DB
	observers []Observer
}

func NewLog(db *gorm.DB) *Log {
	return &Log{db: db}
}

// AddObserver registers an after-append hook. Not safe to call once the
// log is in use by concurrent appenders.
func (l *Log) AddObserver(o Observer) {
	l.observers = append(l.observers, o)
}

// Append persists the entry and returns its assigned sequence number.
// The caller must leave Sequence zero; a caller-supplied sequence is
// discarded so history cannot be rewritten.
func (l *Log) Append(ctx context.Context, entry models.AuditEntry) (uint64, error) {
	entry.Sequence = 0
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return 0, errors.Wrap(err, errors.CodePersistence, "append audit entry")
	}
	for _, o := range l.observers {
		o(entry)
	}
	return entry.Sequence, nil
}

// HasEvent reports whether the alert already carries an entry of the given
// type. Used to keep sweeps idempotent.
func (l *Log) HasEvent(ctx context.Context, alertID, eventType string) (bool, error) {
	var n int64
	err := l.db.WithContext(ctx).
		Model(&models.AuditEntry{}).
		Where("alert_id = ? AND event_type = ?", alertID, eventType).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, errors.CodePersistence, "query audit events")
	}
	return n > 0, nil
}

// ByAlert returns every entry recorded for the alert, in sequence order.
func (l *Log) ByAlert(ctx context.Context, alertID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := l.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("sequence ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "query audit entries")
	}
	return entries, nil
}
