package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sahaya/internal/audit"
	"Sahaya/internal/models"
	"Sahaya/pkg/database"
	"Sahaya/pkg/errors"
)

type fakeChannel struct {
	name string

	mu       sync.Mutex
	targets  []string
	failures int // fail this many sends before succeeding; -1 fails forever
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, target, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = append(c.targets, target)
	if c.failures == -1 {
		return errors.WithCode(errors.CodeChannel, "gateway down")
	}
	if c.failures > 0 {
		c.failures--
		return errors.WithCode(errors.CodeChannel, "transient failure")
	}
	return nil
}

func (c *fakeChannel) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.targets)
}

func setupAudit(t *testing.T) *audit.Log {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditEntry{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return audit.NewLog(db)
}

func testAlert() *models.Alert {
	return &models.Alert{
		ID:        "alert-1",
		SubjectID: "u1",
		Status:    models.StatusActive,
		Priority:  models.PriorityCritical,
		CreatedAt: time.Now().UTC(),
	}
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond}
}

func TestFanOutBulkheadIsolation(t *testing.T) {
	log := setupAudit(t)
	failing := &fakeChannel{name: "sms", failures: -1}
	working := &fakeChannel{name: "messenger"}

	n := NewNotifier([]Channel{failing, working}, log, fastPolicy())

	contacts := []models.EmergencyContact{
		{SubjectID: "u1", Name: "First", Phone: "9876543210", IsPrimary: true},
		{SubjectID: "u1", Name: "Second", Phone: "9123456780"},
	}
	outcomes := n.FanOut(context.Background(), KindEmergency, testAlert(), &models.SubjectProfile{DisplayName: "A"}, contacts)

	// one outcome per contact per channel, failures included
	require.Len(t, outcomes, 4)
	perChannel := map[string]int{}
	succeeded := 0
	for _, out := range outcomes {
		perChannel[out.Channel]++
		if out.Succeeded {
			succeeded++
		} else {
			assert.NotEmpty(t, out.Error)
		}
	}
	assert.Equal(t, 2, perChannel["sms"])
	assert.Equal(t, 2, perChannel["messenger"])
	assert.Equal(t, 2, succeeded)

	// the failing channel did not stop the second contact
	assert.Equal(t, 2, working.calls())

	entries, err := log.ByAlert(context.Background(), "alert-1")
	require.NoError(t, err)
	var attempts, settles int
	for _, e := range entries {
		switch e.EventType {
		case models.EventNotification:
			attempts++
		case models.EventFanOutSettled:
			settles++
		}
	}
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 1, settles)
}

func TestFanOutAuthorityAlwaysAttempted(t *testing.T) {
	log := setupAudit(t)
	sms := &fakeChannel{name: "sms"}
	authority := &fakeChannel{name: "authority", failures: -1}

	n := NewNotifier([]Channel{sms}, log, fastPolicy(), WithAuthority(authority))

	contacts := []models.EmergencyContact{{SubjectID: "u1", Name: "C", Phone: "9876543210"}}
	outcomes := n.FanOut(context.Background(), KindEmergency, testAlert(), &models.SubjectProfile{DisplayName: "A", District: "Mumbai City"}, contacts)

	require.Len(t, outcomes, 2)
	var authorityOut *models.NotificationOutcome
	for i := range outcomes {
		if outcomes[i].Channel == "authority" {
			authorityOut = &outcomes[i]
		}
	}
	require.NotNil(t, authorityOut, "authority step must be attempted")
	assert.False(t, authorityOut.Succeeded)

	// contact delivery was unaffected
	assert.Equal(t, 1, sms.calls())

	entries, err := log.ByAlert(context.Background(), "alert-1")
	require.NoError(t, err)
	var sawAuthority bool
	for _, e := range entries {
		if e.EventType == models.EventAuthorityNotified {
			sawAuthority = true
			assert.Equal(t, "false", e.Payload["succeeded"])
		}
	}
	assert.True(t, sawAuthority)
}

func TestFanOutCancellationSkipsAuthority(t *testing.T) {
	log := setupAudit(t)
	sms := &fakeChannel{name: "sms"}
	authority := &fakeChannel{name: "authority"}

	n := NewNotifier([]Channel{sms}, log, fastPolicy(), WithAuthority(authority))

	contacts := []models.EmergencyContact{{SubjectID: "u1", Name: "C", Phone: "9876543210"}}
	n.FanOut(context.Background(), KindCancellation, testAlert(), &models.SubjectProfile{DisplayName: "A"}, contacts)

	assert.Equal(t, 0, authority.calls())
	assert.Equal(t, 1, sms.calls())
}

func TestRetryPolicyRecoversTransientFailure(t *testing.T) {
	log := setupAudit(t)
	flaky := &fakeChannel{name: "sms", failures: 2}

	n := NewNotifier([]Channel{flaky}, log,
		RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})

	contacts := []models.EmergencyContact{{SubjectID: "u1", Name: "C", Phone: "9876543210"}}
	outcomes := n.FanOut(context.Background(), KindEmergency, testAlert(), &models.SubjectProfile{DisplayName: "A"}, contacts)

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Succeeded)
	assert.Equal(t, 3, flaky.calls())
}

func TestRetryPolicyExhaustsAndRecordsFailure(t *testing.T) {
	log := setupAudit(t)
	dead := &fakeChannel{name: "sms", failures: -1}

	n := NewNotifier([]Channel{dead}, log,
		RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond})

	contacts := []models.EmergencyContact{{SubjectID: "u1", Name: "C", Phone: "9876543210"}}
	outcomes := n.FanOut(context.Background(), KindEmergency, testAlert(), &models.SubjectProfile{DisplayName: "A"}, contacts)

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Succeeded)
	assert.Equal(t, 2, dead.calls())
}

func TestInvalidPhoneNeverReachesGateway(t *testing.T) {
	log := setupAudit(t)
	sms := &fakeChannel{name: "sms"}

	n := NewNotifier([]Channel{sms}, log, fastPolicy())

	contacts := []models.EmergencyContact{{SubjectID: "u1", Name: "C", Phone: "12345"}}
	outcomes := n.FanOut(context.Background(), KindEmergency, testAlert(), &models.SubjectProfile{DisplayName: "A"}, contacts)

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Succeeded)
	assert.Equal(t, "invalid phone target", outcomes[0].Error)
	assert.Equal(t, 0, sms.calls())
}

func TestOrderContactsPrimaryFirst(t *testing.T) {
	contacts := []models.EmergencyContact{
		{Name: "b"}, {Name: "c", IsPrimary: true}, {Name: "d"}, {Name: "e", IsPrimary: true},
	}
	ordered := orderContacts(contacts)
	assert.Equal(t, []string{"c", "e", "b", "d"},
		[]string{ordered[0].Name, ordered[1].Name, ordered[2].Name, ordered[3].Name})
}

func TestSubjectPushOnEmergencyOnly(t *testing.T) {
	log := setupAudit(t)
	push := &fakeChannel{name: "push"}

	n := NewNotifier(nil, log, fastPolicy(), WithSubjectPush(push))

	n.FanOut(context.Background(), KindEmergency, testAlert(), &models.SubjectProfile{DisplayName: "A"}, nil)
	assert.Equal(t, 1, push.calls())

	n.FanOut(context.Background(), KindCancellation, testAlert(), &models.SubjectProfile{DisplayName: "A"}, nil)
	assert.Equal(t, 1, push.calls())
}
