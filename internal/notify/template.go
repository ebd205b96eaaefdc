package notify

import (
	"fmt"
	"time"

	"Sahaya/internal/models"
)

// Kind selects which message template a fan-out renders.
type Kind int

const (
	KindEmergency Kind = iota
	KindCancellation
)

func (k Kind) String() string {
	if k == KindCancellation {
		return "cancellation"
	}
	return "emergency"
}

const timeLayout = "2006-01-02 15:04:05"

// LocationText renders the display line for an alert location: address if
// present, else "lat, lon", else a plain unavailable marker.
func LocationText(loc models.Location) string {
	if loc.Address != "" {
		return fmt.Sprintf("Location: %s", loc.Address)
	}
	if loc.HasCoordinates() {
		return fmt.Sprintf("Coordinates: %.6f, %.6f", *loc.Latitude, *loc.Longitude)
	}
	return "Location: unavailable"
}

// RenderEmergency builds the contact-facing distress message.
func RenderEmergency(profile *models.SubjectProfile, alert *models.Alert) string {
	return fmt.Sprintf(`EMERGENCY ALERT

%s needs immediate help!

%s
Time: %s

Please call immediately or contact emergency services:
Emergency: 112
Women Helpline: 1091

This is an automated alert from the Sahaya safety platform.`,
		profile.DisplayName,
		LocationText(alert.Location()),
		alert.CreatedAt.Format(timeLayout),
	)
}

// RenderCancellation builds the all-clear message sent after a cancel.
func RenderCancellation(profile *models.SubjectProfile, at time.Time) string {
	return fmt.Sprintf(`ALERT CANCELLED

%s's emergency alert has been cancelled.

Time: %s

They are now safe.

- Sahaya safety platform`,
		profile.DisplayName,
		at.Format(timeLayout),
	)
}

// Render picks the template for the fan-out kind.
func Render(kind Kind, profile *models.SubjectProfile, alert *models.Alert, at time.Time) string {
	if kind == KindCancellation {
		return RenderCancellation(profile, at)
	}
	return RenderEmergency(profile, alert)
}
