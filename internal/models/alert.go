package models

import "time"

type AlertStatus string

const (
	StatusActive     AlertStatus = "active"
	StatusResolved   AlertStatus = "resolved"
	StatusCancelled  AlertStatus = "cancelled"
	StatusFalseAlarm AlertStatus = "false_alarm"
)

// Terminal reports whether no further transition is defined out of s.
func (s AlertStatus) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled || s == StatusFalseAlarm
}

type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// Location is the optional position attached to an alert. Coordinates and
// address may both be present; the address wins for display.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Address   string   `json:"address"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Alert is an SOS record. Status mutations go exclusively through the
// dispatch service and the store's Transition path.
type Alert struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SubjectID string `gorm:"size:255;not null;index:idx_alert_subject_status" json:"subject_id"`

	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Address          string   `gorm:"type:text" json:"address"`
	LocationAccuracy *float64 `json:"location_accuracy"`
	LocationVerified bool     `json:"location_verified"`

	Status   AlertStatus   `gorm:"size:20;not null;index:idx_alert_subject_status" json:"status"`
	Priority AlertPriority `gorm:"size:10;not null" json:"priority"`
	Notes    string        `gorm:"type:text" json:"notes"`

	ResponderID string `gorm:"size:255" json:"responder_id,omitempty"`

	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Alert) TableName() string { return "sos_alerts" }

// Location assembles the embedded columns back into a Location value.
func (a *Alert) Location() Location {
	return Location{
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Accuracy:  a.LocationAccuracy,
		Address:   a.Address,
	}
}

// EmergencyContact belongs to the profile subsystem; the dispatch core only
// reads it.
type EmergencyContact struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SubjectID    string `gorm:"size:255;not null;index:idx_contact_subject" json:"subject_id"`
	Name         string `gorm:"size:100;not null" json:"name"`
	Phone        string `gorm:"size:20;not null" json:"phone"`
	Relationship string `gorm:"size:50" json:"relationship"`
	IsPrimary    bool   `json:"is_primary"`

	CreatedAt time.Time `json:"created_at"`
}

func (EmergencyContact) TableName() string { return "emergency_contacts" }

// SubjectProfile is the slice of user data the dispatch core needs for
// rendering messages and the authority payload.
type SubjectProfile struct {
	SubjectID   string `json:"subject_id"`
	DisplayName string `json:"display_name"`
	District    string `json:"district"`
	Phone       string `json:"phone"`
}
