package store

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"Sahaya/internal/models"
	"Sahaya/pkg/errors"
)

// AlertStore is the durable repository for alerts. Transition is the only
// sanctioned mutation path after creation: it re-checks the expected status
// at write time, so a lost update on the status field is impossible even
// without the dispatch core's per-alert lock.
type AlertStore struct {
	db *gorm.DB
}

func NewAlertStore(db *gorm.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Save persists a new alert record.
func (s *AlertStore) Save(ctx context.Context, alert *models.Alert) error {
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return errors.Wrap(err, errors.CodePersistence, "save alert")
	}
	return nil
}

// Get fetches one alert by id.
func (s *AlertStore) Get(ctx context.Context, alertID string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.WithContext(ctx).First(&alert, "id = ?", alertID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.WithCodef(errors.CodeNotFound, "alert %s not found", alertID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "get alert")
	}
	return &alert, nil
}

// FindActiveBySubject returns the subject's active alerts, newest first.
// A subject may hold several overlapping active alerts.
func (s *AlertStore) FindActiveBySubject(ctx context.Context, subjectID string) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("subject_id = ? AND status = ?", subjectID, models.StatusActive).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "find active alerts")
	}
	return alerts, nil
}

// ListBySubject pages through all of a subject's alerts, newest first.
func (s *AlertStore) ListBySubject(ctx context.Context, subjectID string, page, size int) ([]models.Alert, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	q := s.db.WithContext(ctx).Model(&models.Alert{}).Where("subject_id = ?", subjectID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, errors.CodePersistence, "count alerts")
	}

	var alerts []models.Alert
	err := q.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&alerts).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodePersistence, "list alerts")
	}
	return alerts, total, nil
}

// CountActive returns how many alerts are currently active, across all
// subjects.
func (s *AlertStore) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("status = ?", models.StatusActive).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.CodePersistence, "count active alerts")
	}
	return n, nil
}

// FindActiveOlderThan returns active alerts created before cutoff, oldest
// first. Used by the escalation sweeper.
func (s *AlertStore) FindActiveOlderThan(ctx context.Context, cutoff time.Time) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.StatusActive, cutoff).
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "find stale active alerts")
	}
	return alerts, nil
}

// Transition reads the alert, verifies expected still holds, applies mutate
// and persists with a conditional UPDATE on (id, status). Zero rows affected
// means another writer moved the status first.
func (s *AlertStore) Transition(ctx context.Context, alertID string, expected models.AlertStatus, mutate func(*models.Alert)) (*models.Alert, error) {
	alert, err := s.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status != expected {
		return nil, errors.WithCodef(errors.CodeConcurrentModification,
			"alert %s is %s, expected %s", alertID, alert.Status, expected)
	}

	mutate(alert)

	res := s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND status = ?", alertID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(alert)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, errors.CodePersistence, "transition alert")
	}
	if res.RowsAffected == 0 {
		return nil, errors.WithCodef(errors.CodeConcurrentModification,
			"alert %s changed status during transition", alertID)
	}
	return alert, nil
}
