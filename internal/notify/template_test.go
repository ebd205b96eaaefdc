package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Sahaya/internal/models"
)

func f(v float64) *float64 { return &v }

func TestLocationText(t *testing.T) {
	assert.Equal(t, "Location: Dadar, Mumbai",
		LocationText(models.Location{Address: "Dadar, Mumbai", Latitude: f(19.0), Longitude: f(72.8)}))

	assert.Equal(t, "Coordinates: 19.076000, 72.877700",
		LocationText(models.Location{Latitude: f(19.076), Longitude: f(72.8777)}))

	assert.Equal(t, "Location: unavailable", LocationText(models.Location{}))
	assert.Equal(t, "Location: unavailable", LocationText(models.Location{Latitude: f(19.0)}))
}

func TestRenderEmergency(t *testing.T) {
	profile := &models.SubjectProfile{DisplayName: "Asha Kulkarni"}
	alert := &models.Alert{
		Latitude:  f(19.076),
		Longitude: f(72.8777),
		CreatedAt: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}

	msg := RenderEmergency(profile, alert)
	assert.Contains(t, msg, "Asha Kulkarni needs immediate help!")
	assert.Contains(t, msg, "Coordinates: 19.076000, 72.877700")
	assert.Contains(t, msg, "2025-03-01 10:30:00")
	assert.Contains(t, msg, "Emergency: 112")
	assert.Contains(t, msg, "Women Helpline: 1091")
}

func TestRenderCancellation(t *testing.T) {
	profile := &models.SubjectProfile{DisplayName: "Asha Kulkarni"}
	msg := RenderCancellation(profile, time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(msg, "ALERT CANCELLED"))
	assert.Contains(t, msg, "Asha Kulkarni's emergency alert has been cancelled.")
	assert.Contains(t, msg, "They are now safe.")
}

func TestRenderPicksTemplateByKind(t *testing.T) {
	profile := &models.SubjectProfile{DisplayName: "A"}
	alert := &models.Alert{CreatedAt: time.Now()}

	assert.Contains(t, Render(KindEmergency, profile, alert, time.Now()), "EMERGENCY ALERT")
	assert.Contains(t, Render(KindCancellation, profile, alert, time.Now()), "ALERT CANCELLED")
}
