package profile

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	gocache "github.com/patrickmn/go-cache"

	"Sahaya/internal/models"
)

// CachedDirectory wraps a Directory with short-lived read caches so a burst
// of fan-outs for the same subject does not hammer the profile tables.
// Contacts sit in a go-cache store with a sliding janitor; profiles sit in
// a bounded expirable LRU.
type CachedDirectory struct {
	inner    Directory
	contacts *gocache.Cache
	profiles *lru.LRU[string, *models.SubjectProfile]
}

func NewCachedDirectory(inner Directory, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedDirectory{
		inner:    inner,
		contacts: gocache.New(ttl, 2*ttl),
		profiles: lru.NewLRU[string, *models.SubjectProfile](1024, nil, ttl),
	}
}

func (c *CachedDirectory) GetEmergencyContacts(ctx context.Context, subjectID string) ([]models.EmergencyContact, error) {
	if v, ok := c.contacts.Get(subjectID); ok {
		return v.([]models.EmergencyContact), nil
	}
	contacts, err := c.inner.GetEmergencyContacts(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	c.contacts.Set(subjectID, contacts, gocache.DefaultExpiration)
	return contacts, nil
}

func (c *CachedDirectory) GetSubjectProfile(ctx context.Context, subjectID string) (*models.SubjectProfile, error) {
	if p, ok := c.profiles.Get(subjectID); ok {
		return p, nil
	}
	p, err := c.inner.GetSubjectProfile(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	c.profiles.Add(subjectID, p)
	return p, nil
}
