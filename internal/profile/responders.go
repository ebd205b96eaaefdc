package profile

import (
	"context"

	"gorm.io/gorm"

	"Sahaya/pkg/errors"
)

// GormResponderRegistry checks the profile subsystem's role field: users
// with the responder or admin role may resolve alerts.
type GormResponderRegistry struct {
	db *gorm.DB
}

func NewGormResponderRegistry(db *gorm.DB) *GormResponderRegistry {
	return &GormResponderRegistry{db: db}
}

func (r *GormResponderRegistry) IsResponder(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Table("users").
		Where("id = ? AND role IN ?", userID, []string{"responder", "admin"}).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, errors.CodePersistence, "responder lookup")
	}
	return n > 0, nil
}
