package notify

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"Sahaya/internal/audit"
	"Sahaya/internal/models"
	"Sahaya/internal/validate"
	"Sahaya/pkg/errors"
	"Sahaya/pkg/logger"
	"Sahaya/pkg/metrics"
)

// Notifier fans one alert event out to the subject's emergency contacts
// across every configured channel, with bulkhead isolation: no attempt can
// block or abort another, and the full outcome set is always returned and
// recorded in the audit log.
type Notifier struct {
	contactChannels []Channel
	subjectPush     Channel
	authority       Channel
	auditLog        *audit.Log
	policy          RetryPolicy
	metrics         *metrics.Metrics
}

// Option configures optional notifier collaborators.
type Option func(*Notifier)

func WithSubjectPush(ch Channel) Option  { return func(n *Notifier) { n.subjectPush = ch } }
func WithAuthority(ch Channel) Option    { return func(n *Notifier) { n.authority = ch } }
func WithMetrics(m *metrics.Metrics) Option { return func(n *Notifier) { n.metrics = m } }

func NewNotifier(contactChannels []Channel, auditLog *audit.Log, policy RetryPolicy, opts ...Option) *Notifier {
	n := &Notifier{
		contactChannels: contactChannels,
		auditLog:        auditLog,
		policy:          policy,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FanOut dispatches the rendered message for kind to every contact and
// channel. It never fails as a unit: partial failure is expressed in the
// returned outcomes, each of which is individually appended to the audit
// log before the settle entry is written.
func (n *Notifier) FanOut(ctx context.Context, kind Kind, alert *models.Alert, profile *models.SubjectProfile, contacts []models.EmergencyContact) []models.NotificationOutcome {
	start := time.Now()
	message := Render(kind, profile, alert, start.UTC())

	ordered := orderContacts(contacts)

	var (
		mu       sync.Mutex
		outcomes []models.NotificationOutcome
		wg       sync.WaitGroup
	)
	record := func(out models.NotificationOutcome, event string) {
		mu.Lock()
		outcomes = append(outcomes, out)
		mu.Unlock()
		n.appendOutcome(ctx, alert, kind, out, event)
	}

	for _, contact := range ordered {
		for _, ch := range n.contactChannels {
			wg.Add(1)
			go func(contact models.EmergencyContact, ch Channel) {
				defer wg.Done()
				record(n.attempt(ctx, ch, contact.Phone, message), models.EventNotification)
			}(contact, ch)
		}
	}

	if n.subjectPush != nil && kind == KindEmergency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := "Your SOS was dispatched to your emergency contacts."
			record(n.attemptRaw(ctx, n.subjectPush, alert.SubjectID, body), models.EventNotification)
		}()
	}

	if n.authority != nil && kind == KindEmergency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := n.escalate(ctx, alert, profile)
			record(out, models.EventAuthorityNotified)
			if !out.Succeeded {
				// Never blocks or reverses the alert; operators see it in
				// the audit trail.
				logger.Error("authority escalation failed",
					zap.String("alert_id", alert.ID),
					zap.String("error", out.Error),
				)
			}
		}()
	}

	wg.Wait()
	n.settle(ctx, alert, kind, outcomes, start)
	return outcomes
}

// attempt delivers to one phone-addressed channel under the retry policy.
// A target that is not a plausible mobile number is recorded as a failure
// without touching the gateway.
func (n *Notifier) attempt(ctx context.Context, ch Channel, phone, message string) models.NotificationOutcome {
	if !validate.Phone(phone) {
		out := models.NotificationOutcome{
			Channel:     ch.Name(),
			Target:      phone,
			Succeeded:   false,
			Error:       "invalid phone target",
			AttemptedAt: time.Now().UTC(),
		}
		n.observe(ch.Name(), false)
		return out
	}
	return n.attemptRaw(ctx, ch, phone, message)
}

func (n *Notifier) attemptRaw(ctx context.Context, ch Channel, target, message string) models.NotificationOutcome {
	out := models.NotificationOutcome{
		Channel:     ch.Name(),
		Target:      target,
		AttemptedAt: time.Now().UTC(),
	}
	err := n.policy.run(ctx, func(ctx context.Context) error {
		return ch.Send(ctx, target, message)
	})
	if err != nil {
		out.Error = err.Error()
		n.observe(ch.Name(), false)
		return out
	}
	out.Succeeded = true
	n.observe(ch.Name(), true)
	return out
}

func (n *Notifier) escalate(ctx context.Context, alert *models.Alert, profile *models.SubjectProfile) models.NotificationOutcome {
	payload := AuthorityPayload{
		AlertID:     alert.ID,
		SubjectName: profile.DisplayName,
		District:    profile.District,
		Phone:       profile.Phone,
		Latitude:    alert.Latitude,
		Longitude:   alert.Longitude,
		Address:     alert.Address,
		Priority:    string(alert.Priority),
		Timestamp:   alert.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.observe(n.authority.Name(), false)
		return models.NotificationOutcome{
			Channel:     n.authority.Name(),
			Target:      "emergency-services",
			Error:       errors.Wrap(err, errors.CodeChannel, "encode authority payload").Error(),
			AttemptedAt: time.Now().UTC(),
		}
	}
	return n.attemptRaw(ctx, n.authority, "emergency-services", string(body))
}

func (n *Notifier) appendOutcome(ctx context.Context, alert *models.Alert, kind Kind, out models.NotificationOutcome, event string) {
	entry := models.AuditEntry{
		AlertID:   &alert.ID,
		EventType: event,
		Timestamp: out.AttemptedAt,
		Payload: map[string]string{
			"kind":      kind.String(),
			"channel":   out.Channel,
			"target":    out.Target,
			"succeeded": strconv.FormatBool(out.Succeeded),
		},
	}
	if out.Error != "" {
		entry.Payload["error"] = out.Error
	}
	if _, err := n.auditLog.Append(ctx, entry); err != nil {
		logger.Warn("audit append for notification outcome failed",
			zap.String("alert_id", alert.ID),
			zap.String("channel", out.Channel),
			zap.Error(err),
		)
	}
}

// settle records that the full outcome set is known, which is when the
// event counts as fully captured for reporting.
func (n *Notifier) settle(ctx context.Context, alert *models.Alert, kind Kind, outcomes []models.NotificationOutcome, start time.Time) {
	failures := 0
	for _, out := range outcomes {
		if !out.Succeeded {
			failures++
		}
	}
	entry := models.AuditEntry{
		AlertID:   &alert.ID,
		EventType: models.EventFanOutSettled,
		Timestamp: time.Now().UTC(),
		Payload: map[string]string{
			"kind":     kind.String(),
			"attempts": strconv.Itoa(len(outcomes)),
			"failures": strconv.Itoa(failures),
		},
	}
	if _, err := n.auditLog.Append(ctx, entry); err != nil {
		logger.Warn("audit append for fan-out settle failed",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
	}
	if n.metrics != nil {
		n.metrics.FanOutDone(start)
	}
}

func (n *Notifier) observe(channel string, ok bool) {
	if n.metrics != nil {
		n.metrics.ChannelAttempt(channel, ok)
	}
}

// orderContacts sorts primary contacts first, keeping insertion order
// within each group.
func orderContacts(contacts []models.EmergencyContact) []models.EmergencyContact {
	ordered := make([]models.EmergencyContact, len(contacts))
	copy(ordered, contacts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsPrimary && !ordered[j].IsPrimary
	})
	return ordered
}
