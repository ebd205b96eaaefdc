package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Sahaya/internal/audit"
	"Sahaya/internal/geo"
	"Sahaya/internal/models"
	"Sahaya/internal/notify"
	"Sahaya/internal/profile"
	"Sahaya/internal/ratelimit"
	"Sahaya/internal/store"
	"Sahaya/internal/validate"
	"Sahaya/pkg/errors"
	"Sahaya/pkg/logger"
	"Sahaya/pkg/metrics"
)

const maxNotesLen = 500

// ResponderRegistry is the capability check for Resolve: only an authorized
// responder may close someone else's alert.
type ResponderRegistry interface {
	IsResponder(ctx context.Context, userID string) (bool, error)
}

// Service owns the alert lifecycle state machine. Mutations on one alert id
// are serialized by a keyed lock, and the store's conditional transition
// backs that up at the persistence layer.
type Service struct {
	store      *store.AlertStore
	auditLog   *audit.Log
	notifier   *notify.Notifier
	geo        *geo.Validator
	directory  profile.Directory
	responders ResponderRegistry
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics

	locks    *keyedMutex
	inFlight sync.WaitGroup
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

func WithRateLimiter(l *ratelimit.Limiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	st *store.AlertStore,
	auditLog *audit.Log,
	notifier *notify.Notifier,
	validator *geo.Validator,
	directory profile.Directory,
	responders ResponderRegistry,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		store:      st,
		auditLog:   auditLog,
		notifier:   notifier,
		geo:        validator,
		directory:  directory,
		responders: responders,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new Active alert and triggers the emergency fan-out on
// a detached goroutine. The caller gets the alert back as soon as the
// record is durable; notification outcomes land in the audit trail.
//
// Location validity is metadata, never a precondition: an SOS with no
// usable location is still an SOS.
func (s *Service) Create(ctx context.Context, subjectID string, loc models.Location, notes string) (*models.Alert, error) {
	if subjectID == "" {
		return nil, errors.WithCode(errors.CodeValidation, "subject id is required")
	}
	if err := s.allow(ctx, subjectID, "create"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	alert := &models.Alert{
		ID:               uuid.NewString(),
		SubjectID:        subjectID,
		Latitude:         loc.Latitude,
		Longitude:        loc.Longitude,
		Address:          validate.Sanitize(loc.Address, maxNotesLen),
		LocationAccuracy: loc.Accuracy,
		LocationVerified: s.geo.Validate(loc.Latitude, loc.Longitude),
		Status:           models.StatusActive,
		Priority:         models.PriorityCritical,
		Notes:            validate.Sanitize(notes, maxNotesLen),
		CreatedAt:        now,
	}

	if err := s.store.Save(ctx, alert); err != nil {
		// Creation is the one path that must fail loudly.
		logger.Error("failed to persist SOS alert",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return nil, err
	}

	s.append(ctx, models.AuditEntry{
		AlertID:   &alert.ID,
		EventType: models.EventAlertCreated,
		ActorID:   &alert.SubjectID,
		Timestamp: now,
		Payload:   createdPayload(alert),
	})
	if s.metrics != nil {
		s.metrics.AlertCreated()
	}

	logger.Info("SOS alert created",
		zap.String("alert_id", alert.ID),
		zap.String("subject_id", subjectID),
		zap.Bool("location_verified", alert.LocationVerified),
	)

	s.fanOutAsync(ctx, notify.KindEmergency, alert)
	return alert, nil
}

// Cancel transitions an Active alert to Cancelled. Only the subject who
// raised the alert may cancel it.
func (s *Service) Cancel(ctx context.Context, alertID, requesterID, reason string) (*models.Alert, error) {
	if err := s.allow(ctx, requesterID, "cancel"); err != nil {
		return nil, err
	}
	reason = validate.Sanitize(reason, maxNotesLen)
	if reason == "" {
		reason = "user cancelled"
	}

	alert, err := s.transition(ctx, alertID, models.StatusCancelled,
		func(a *models.Alert) error {
			if a.SubjectID != requesterID {
				return errors.WithCode(errors.CodeForbidden, "only the alert subject may cancel")
			}
			return nil
		},
		func(a *models.Alert) {
			now := time.Now().UTC()
			a.Status = models.StatusCancelled
			a.ResolvedAt = &now
			a.Notes = appendNote(a.Notes, "Cancelled: "+reason)
		},
		models.EventAlertCancelled, requesterID, map[string]string{"reason": reason},
	)
	if err != nil {
		return nil, err
	}

	// In-flight creation fan-outs are allowed to finish; a late warning
	// beats a lost one. The all-clear goes out as its own fan-out.
	s.fanOutAsync(ctx, notify.KindCancellation, alert)
	return alert, nil
}

// Resolve transitions Active -> Resolved and records the responder.
func (s *Service) Resolve(ctx context.Context, alertID, responderID string) (*models.Alert, error) {
	ok, err := s.responders.IsResponder(ctx, responderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithCode(errors.CodeForbidden, "not an authorized responder")
	}

	return s.transition(ctx, alertID, models.StatusResolved,
		func(a *models.Alert) error { return nil },
		func(a *models.Alert) {
			now := time.Now().UTC()
			a.Status = models.StatusResolved
			a.ResolvedAt = &now
			a.ResponderID = responderID
		},
		models.EventAlertResolved, responderID, map[string]string{"responder_id": responderID},
	)
}

// MarkFalseAlarm transitions Active -> FalseAlarm. Distinguished from
// Cancelled downstream: a false alarm is logged, not broadcast as "user is
// safe" messaging.
func (s *Service) MarkFalseAlarm(ctx context.Context, alertID, requesterID string) (*models.Alert, error) {
	return s.transition(ctx, alertID, models.StatusFalseAlarm,
		func(a *models.Alert) error {
			if a.SubjectID != requesterID {
				return errors.WithCode(errors.CodeForbidden, "only the alert subject may mark a false alarm")
			}
			return nil
		},
		func(a *models.Alert) {
			now := time.Now().UTC()
			a.Status = models.StatusFalseAlarm
			a.ResolvedAt = &now
		},
		models.EventAlertFalseAlarm, requesterID, nil,
	)
}

// Get returns one alert.
func (s *Service) Get(ctx context.Context, alertID string) (*models.Alert, error) {
	return s.store.Get(ctx, alertID)
}

// ListAlerts pages a subject's alert history, newest first.
func (s *Service) ListAlerts(ctx context.Context, subjectID string, page, size int) ([]models.Alert, int64, error) {
	if subjectID == "" {
		return nil, 0, errors.WithCode(errors.CodeValidation, "subject id is required")
	}
	return s.store.ListBySubject(ctx, subjectID, page, size)
}

// ActiveAlertCount reports alerts currently active across all subjects.
func (s *Service) ActiveAlertCount(ctx context.Context) (int64, error) {
	return s.store.CountActive(ctx)
}

// AuditTrail returns the alert's full audit history in sequence order.
func (s *Service) AuditTrail(ctx context.Context, alertID string) ([]models.AuditEntry, error) {
	if _, err := s.store.Get(ctx, alertID); err != nil {
		return nil, err
	}
	return s.auditLog.ByAlert(ctx, alertID)
}

// Drain blocks until every dispatched fan-out has settled. Called on
// shutdown and by tests.
func (s *Service) Drain() { s.inFlight.Wait() }

// transition runs the guarded state machine step for alertID under the
// per-alert lock. A ConcurrentModification from the store is retried once;
// terminal alerts reject with AlreadyTerminal and are left untouched.
func (s *Service) transition(
	ctx context.Context,
	alertID string,
	target models.AlertStatus,
	guard func(*models.Alert) error,
	mutate func(*models.Alert),
	event, actorID string,
	payload map[string]string,
) (*models.Alert, error) {
	unlock := s.locks.lock(alertID)
	defer unlock()

	var updated *models.Alert
	for attempt := 0; ; attempt++ {
		alert, err := s.store.Get(ctx, alertID)
		if err != nil {
			return nil, err
		}
		if err := guard(alert); err != nil {
			return nil, err
		}
		if alert.Status != models.StatusActive {
			return nil, errors.WithCodef(errors.CodeAlreadyTerminal,
				"alert %s is already %s", alertID, alert.Status)
		}

		updated, err = s.store.Transition(ctx, alertID, models.StatusActive, mutate)
		if err == nil {
			break
		}
		if errors.IsConcurrentModification(err) && attempt == 0 {
			continue // retry once, then report
		}
		return nil, err
	}

	now := time.Now().UTC()
	s.append(ctx, models.AuditEntry{
		AlertID:   &updated.ID,
		EventType: event,
		ActorID:   &actorID,
		Timestamp: now,
		Payload:   payload,
	})
	if s.metrics != nil {
		s.metrics.AlertTransition(string(target))
	}

	logger.Info("alert transitioned",
		zap.String("alert_id", alertID),
		zap.String("status", string(target)),
		zap.String("actor_id", actorID),
	)
	return updated, nil
}

// fanOutAsync dispatches notification work detached from the caller's
// request context, so cancelling the HTTP request cannot abort delivery.
func (s *Service) fanOutAsync(ctx context.Context, kind notify.Kind, alert *models.Alert) {
	detached := context.WithoutCancel(ctx)
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		profileData, err := s.directory.GetSubjectProfile(detached, alert.SubjectID)
		if err != nil {
			logger.Error("fan-out aborted: profile lookup failed",
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
			return
		}
		contacts, err := s.directory.GetEmergencyContacts(detached, alert.SubjectID)
		if err != nil {
			logger.Error("fan-out aborted: contact lookup failed",
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
			return
		}
		s.notifier.FanOut(detached, kind, alert, profileData, contacts)
	}()
}

func (s *Service) allow(ctx context.Context, subjectID, operation string) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Allow(ctx, subjectID, operation)
}

func (s *Service) append(ctx context.Context, entry models.AuditEntry) {
	if _, err := s.auditLog.Append(ctx, entry); err != nil {
		// The alert itself is already durable; losing an audit entry is
		// loudly logged, never propagated to the emergency caller.
		logger.Error("audit append failed",
			zap.String("event", entry.EventType),
			zap.Error(err),
		)
	}
}

func createdPayload(alert *models.Alert) map[string]string {
	payload := map[string]string{
		"location_verified": boolString(alert.LocationVerified),
	}
	if alert.Latitude != nil && alert.Longitude != nil {
		payload["latitude"] = floatString(*alert.Latitude)
		payload["longitude"] = floatString(*alert.Longitude)
	}
	if alert.Address != "" {
		payload["address"] = alert.Address
	}
	if alert.Notes != "" {
		payload["notes"] = alert.Notes
	}
	return payload
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
