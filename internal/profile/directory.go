package profile

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"Sahaya/internal/models"
	"Sahaya/pkg/errors"
)

// Directory is the read-only view of the profile subsystem. The dispatch
// core never writes through it.
type Directory interface {
	// GetEmergencyContacts returns the subject's contacts ordered
	// primary-first, ties broken by insertion order.
	GetEmergencyContacts(ctx context.Context, subjectID string) ([]models.EmergencyContact, error)
	GetSubjectProfile(ctx context.Context, subjectID string) (*models.SubjectProfile, error)
}

// GormDirectory reads the profile subsystem's tables directly.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) GetEmergencyContacts(ctx context.Context, subjectID string) ([]models.EmergencyContact, error) {
	var contacts []models.EmergencyContact
	err := d.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("is_primary DESC, id ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "load emergency contacts")
	}
	return contacts, nil
}

type subjectRow struct {
	ID        string
	FirstName string
	LastName  string
	District  string
	Phone     string
}

func (d *GormDirectory) GetSubjectProfile(ctx context.Context, subjectID string) (*models.SubjectProfile, error) {
	var row subjectRow
	err := d.db.WithContext(ctx).
		Table("users").
		Select("id", "first_name", "last_name", "district", "phone").
		Where("id = ?", subjectID).
		Take(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		// A missing profile must not block dispatch; render with what we have.
		return &models.SubjectProfile{SubjectID: subjectID, DisplayName: subjectID}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "load subject profile")
	}

	name := strings.TrimSpace(row.FirstName + " " + row.LastName)
	if name == "" {
		name = subjectID
	}
	return &models.SubjectProfile{
		SubjectID:   subjectID,
		DisplayName: name,
		District:    row.District,
		Phone:       row.Phone,
	}, nil
}
