package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *AuditLog {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestRecordAndHistory(t *testing.T) {
	log := openTestLog(t)

	first := Snapshot{
		RecordedAt:     time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		MigrationID:    "add-jsdoc",
		Status:         "active",
		CurrentStep:    1,
		OpenPRs:        1,
		TotalTasks:     4,
		CompletedTasks: 1,
	}
	second := first
	second.RecordedAt = first.RecordedAt.Add(time.Hour)
	second.CurrentStep = 2
	second.CompletedTasks = 2

	require.NoError(t, log.Record(first))
	require.NoError(t, log.Record(second))

	history, err := log.History("add-jsdoc", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first.
	assert.Equal(t, 2, history[0].CurrentStep)
	assert.Equal(t, 1, history[1].CurrentStep)
	assert.Equal(t, first.RecordedAt, history[1].RecordedAt)
}

func TestHistoryFiltersByMigration(t *testing.T) {
	log := openTestLog(t)

	require.NoError(t, log.Record(Snapshot{MigrationID: "alpha", Status: "active", RecordedAt: time.Now()}))
	require.NoError(t, log.Record(Snapshot{MigrationID: "beta", Status: "paused", RecordedAt: time.Now()}))

	history, err := log.History("alpha", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alpha", history[0].MigrationID)
}

func TestHistoryEmpty(t *testing.T) {
	log := openTestLog(t)

	history, err := log.History("missing", 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryLimit(t *testing.T) {
	log := openTestLog(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Record(Snapshot{
			MigrationID: "alpha",
			Status:      "active",
			CurrentStep: i + 1,
			RecordedAt:  time.Now(),
		}))
	}

	history, err := log.History("alpha", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, 5, history[0].CurrentStep)
}
