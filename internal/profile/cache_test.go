package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sahaya/internal/models"
)

type countingDirectory struct {
	contactCalls int
	profileCalls int
}

func (d *countingDirectory) GetEmergencyContacts(_ context.Context, subjectID string) ([]models.EmergencyContact, error) {
	d.contactCalls++
	return []models.EmergencyContact{{SubjectID: subjectID, Name: "Primary", Phone: "9876543210", IsPrimary: true}}, nil
}

func (d *countingDirectory) GetSubjectProfile(_ context.Context, subjectID string) (*models.SubjectProfile, error) {
	d.profileCalls++
	return &models.SubjectProfile{SubjectID: subjectID, DisplayName: "Asha"}, nil
}

func TestCachedDirectoryServesRepeatsFromCache(t *testing.T) {
	inner := &countingDirectory{}
	cached := NewCachedDirectory(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		contacts, err := cached.GetEmergencyContacts(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, contacts, 1)

		p, err := cached.GetSubjectProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Asha", p.DisplayName)
	}

	assert.Equal(t, 1, inner.contactCalls)
	assert.Equal(t, 1, inner.profileCalls)
}

func TestCachedDirectoryKeysBySubject(t *testing.T) {
	inner := &countingDirectory{}
	cached := NewCachedDirectory(inner, time.Minute)
	ctx := context.Background()

	_, err := cached.GetEmergencyContacts(ctx, "u1")
	require.NoError(t, err)
	_, err = cached.GetEmergencyContacts(ctx, "u2")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.contactCalls)
}

func TestCachedDirectoryExpires(t *testing.T) {
	inner := &countingDirectory{}
	cached := NewCachedDirectory(inner, 20*time.Millisecond)
	ctx := context.Background()

	_, err := cached.GetEmergencyContacts(ctx, "u1")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = cached.GetEmergencyContacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.contactCalls)
}
