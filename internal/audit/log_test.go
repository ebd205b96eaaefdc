package audit

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sahaya/internal/models"
	"Sahaya/pkg/database"
)

func setupLog(t *testing.T) *Log {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return NewLog(db)
}

func TestAppendAssignsSequence(t *testing.T) {
	log := setupLog(t)
	ctx := context.Background()
	alertID := "alert-1"

	seq1, err := log.Append(ctx, models.AuditEntry{AlertID: &alertID, EventType: models.EventAlertCreated})
	require.NoError(t, err)
	seq2, err := log.Append(ctx, models.AuditEntry{AlertID: &alertID, EventType: models.EventAlertCancelled})
	require.NoError(t, err)

	assert.Greater(t, seq2, seq1)
}

func TestAppendDiscardsCallerSequence(t *testing.T) {
	log := setupLog(t)
	ctx := context.Background()

	seq, err := log.Append(ctx, models.AuditEntry{Sequence: 9999, EventType: models.EventAlertCreated})
	require.NoError(t, err)
	assert.NotEqual(t, uint64(9999), seq)
}

func TestByAlertOrderAndIsolation(t *testing.T) {
	log := setupLog(t)
	ctx := context.Background()
	a, b := "alert-a", "alert-b"

	for i := 0; i < 3; i++ {
		_, err := log.Append(ctx, models.AuditEntry{AlertID: &a, EventType: models.EventNotification})
		require.NoError(t, err)
		_, err = log.Append(ctx, models.AuditEntry{AlertID: &b, EventType: models.EventNotification})
		require.NoError(t, err)
	}

	entries, err := log.ByAlert(ctx, a)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i].Sequence, entries[i-1].Sequence)
		assert.Equal(t, a, *entries[i].AlertID)
	}
}

func TestConcurrentAppendsAreTotallyOrdered(t *testing.T) {
	log := setupLog(t)
	ctx := context.Background()

	const n = 1000
	seqs := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			alertID := "alert-concurrent"
			seq, err := log.Append(ctx, models.AuditEntry{AlertID: &alertID, EventType: models.EventNotification})
			assert.NoError(t, err)
			seqs[i] = seq
		}(i)
	}
	wg.Wait()

	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i := 1; i < n; i++ {
		// strictly increasing with no duplicates and no gaps
		assert.Equal(t, seqs[i-1]+1, seqs[i])
	}
}

func TestObserverSeesAppendedEntry(t *testing.T) {
	log := setupLog(t)
	ctx := context.Background()

	var seen []models.AuditEntry
	log.AddObserver(func(e models.AuditEntry) { seen = append(seen, e) })

	alertID := "alert-1"
	seq, err := log.Append(ctx, models.AuditEntry{AlertID: &alertID, EventType: models.EventAlertCreated})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, seq, seen[0].Sequence)
	assert.Equal(t, models.EventAlertCreated, seen[0].EventType)
}

func TestHasEvent(t *testing.T) {
	log := setupLog(t)
	ctx := context.Background()
	alertID := "alert-1"

	ok, err := log.HasEvent(ctx, alertID, models.EventAlertEscalated)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = log.Append(ctx, models.AuditEntry{AlertID: &alertID, EventType: models.EventAlertEscalated})
	require.NoError(t, err)

	ok, err = log.HasEvent(ctx, alertID, models.EventAlertEscalated)
	require.NoError(t, err)
	assert.True(t, ok)
}
