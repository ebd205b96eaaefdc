package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"Sahaya/internal/audit"
	"Sahaya/internal/models"
	"Sahaya/internal/notify"
	"Sahaya/internal/profile"
	"Sahaya/internal/store"
	"Sahaya/pkg/logger"
	"Sahaya/pkg/metrics"
)

// Sweeper runs periodic background work: it refreshes the active-alert
// gauge and re-escalates alerts that have stayed Active past a threshold
// by re-notifying the primary contact. Each alert is escalated at most
// once, tracked through the audit trail.
type Sweeper struct {
	store         *store.AlertStore
	auditLog      *audit.Log
	notifier      *notify.Notifier
	directory     profile.Directory
	metrics       *metrics.Metrics
	escalateAfter time.Duration

	cron *cron.Cron
}

func New(
	st *store.AlertStore,
	auditLog *audit.Log,
	notifier *notify.Notifier,
	directory profile.Directory,
	m *metrics.Metrics,
	escalateAfter time.Duration,
) *Sweeper {
	return &Sweeper{
		store:         st,
		auditLog:      auditLog,
		notifier:      notifier,
		directory:     directory,
		metrics:       m,
		escalateAfter: escalateAfter,
		cron:          cron.New(),
	}
}

// Start schedules the sweep on the given cron spec (e.g. "@every 1m").
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one pass. Exported so tests and operators can trigger it
// directly.
func (s *Sweeper) Sweep(ctx context.Context) {
	if n, err := s.store.CountActive(ctx); err == nil {
		if s.metrics != nil {
			s.metrics.SetActiveAlerts(n)
		}
	} else {
		logger.Warn("active alert count failed", zap.Error(err))
	}

	if s.escalateAfter <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-s.escalateAfter)
	stale, err := s.store.FindActiveOlderThan(ctx, cutoff)
	if err != nil {
		logger.Warn("stale alert scan failed", zap.Error(err))
		return
	}
	for i := range stale {
		s.escalate(ctx, &stale[i])
	}
}

func (s *Sweeper) escalate(ctx context.Context, alert *models.Alert) {
	done, err := s.auditLog.HasEvent(ctx, alert.ID, models.EventAlertEscalated)
	if err != nil || done {
		return
	}

	// Record the escalation before notifying so overlapping sweeps cannot
	// double-send.
	_, err = s.auditLog.Append(ctx, models.AuditEntry{
		AlertID:   &alert.ID,
		EventType: models.EventAlertEscalated,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]string{"active_for": time.Since(alert.CreatedAt).Round(time.Second).String()},
	})
	if err != nil {
		logger.Warn("escalation audit append failed",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return
	}

	subjectProfile, err := s.directory.GetSubjectProfile(ctx, alert.SubjectID)
	if err != nil {
		logger.Error("escalation aborted: profile lookup failed",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return
	}
	contacts, err := s.directory.GetEmergencyContacts(ctx, alert.SubjectID)
	if err != nil {
		logger.Error("escalation aborted: contact lookup failed",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return
	}
	if len(contacts) > 1 {
		contacts = contacts[:1] // primary-first ordering from the directory
	}

	logger.Warn("re-escalating stale active alert",
		zap.String("alert_id", alert.ID),
		zap.Duration("active_for", time.Since(alert.CreatedAt)),
	)
	s.notifier.FanOut(ctx, notify.KindEmergency, alert, subjectProfile, contacts)
}
