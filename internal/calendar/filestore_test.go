package calendar

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Baseline used by both store backends' tests: two bookings on working
// weekdays in late January 2026.
const baselineJSON = `[
  {"title": "團隊週會", "start": "2026-01-20T10:00:00", "end": "2026-01-20T11:00:00"},
  {"title": "Client Sync", "start": "2026-01-21T14:00:00", "end": "2026-01-21T15:00:00"}
]`

func writeBaseline(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.json")
	require.NoError(t, os.WriteFile(path, []byte(baselineJSON), 0o644))
	return path
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	workingPath := filepath.Join(t.TempDir(), "working.json")
	store, err := NewFileStore(writeBaseline(t), workingPath, nil)
	require.NoError(t, err)
	return store, workingPath
}

func mustEvent(t *testing.T, title, start, end string) Event {
	t.Helper()
	ev, err := NewEvent(title, start, end)
	require.NoError(t, err)
	return ev
}

func TestFileStoreSeedsFromBaseline(t *testing.T) {
	store, workingPath := newTestFileStore(t)
	defer store.Close()

	events, err := store.Query(context.Background(), Window{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "團隊週會", events[0].Title)

	// Reads never create the working copy.
	_, err = os.Stat(workingPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreQueryWindow(t *testing.T) {
	store, _ := newTestFileStore(t)
	defer store.Close()
	ctx := context.Background()

	start, err := ParseTimestamp("2026-01-21T00:00:00")
	require.NoError(t, err)
	end, err := ParseTimestamp("2026-01-22T00:00:00")
	require.NoError(t, err)

	events, err := store.Query(ctx, Window{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Client Sync", events[0].Title)

	// Open-ended window from a start bound.
	events, err = store.Query(ctx, Window{Start: &start})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Client Sync", events[0].Title)
}

func TestFileStoreAdd(t *testing.T) {
	store, workingPath := newTestFileStore(t)
	defer store.Close()
	ctx := context.Background()

	res, err := store.Add(ctx, mustEvent(t, "1:1", "2026-01-22T09:00:00", "2026-01-22T09:30:00"))
	require.NoError(t, err)
	assert.True(t, res.Added)

	// Baseline stays untouched; the working copy now holds three events.
	events, err := store.Query(ctx, Window{})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	data, err := os.ReadFile(workingPath)
	require.NoError(t, err)
	var persisted []Event
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Len(t, persisted, 3)
}

func TestFileStoreAddConflict(t *testing.T) {
	store, _ := newTestFileStore(t)
	defer store.Close()
	ctx := context.Background()

	res, err := store.Add(ctx, mustEvent(t, "overlap", "2026-01-20T10:30:00", "2026-01-20T11:30:00"))
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, FailureConflict, res.Failure)
	assert.Equal(t, "團隊週會", res.ConflictWith)

	// Refusal leaves the store unchanged.
	events, err := store.Query(ctx, Window{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFileStoreAddBackToBackIsNotConflict(t *testing.T) {
	store, _ := newTestFileStore(t)
	defer store.Close()

	res, err := store.Add(context.Background(),
		mustEvent(t, "followup", "2026-01-20T11:00:00", "2026-01-20T12:00:00"))
	require.NoError(t, err)
	assert.True(t, res.Added)
}

func TestFileStoreAddNonWorkingDay(t *testing.T) {
	store, _ := newTestFileStore(t)
	defer store.Close()
	ctx := context.Background()

	res, err := store.Add(ctx, mustEvent(t, "春節會議", "2026-02-17T10:00:00", "2026-02-17T11:00:00"))
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, FailureNonWorkingDay, res.Failure)
	assert.Equal(t, "春節", res.NonWorkingReason)
	assert.Equal(t, []string{"2026-02-23", "2026-02-24", "2026-02-25"}, res.Alternatives)

	events, err := store.Query(ctx, Window{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFileStoreAddRejectsBadInterval(t *testing.T) {
	store, _ := newTestFileStore(t)
	defer store.Close()

	start, err := ParseTimestamp("2026-01-22T10:00:00")
	require.NoError(t, err)
	_, err = store.Add(context.Background(), Event{Title: "bad", Start: start, End: start})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestFileStorePersistsSorted(t *testing.T) {
	store, workingPath := newTestFileStore(t)
	defer store.Close()
	ctx := context.Background()

	// Added event starts before everything in the baseline.
	_, err := store.Add(ctx, mustEvent(t, "early", "2026-01-19T08:00:00", "2026-01-19T09:00:00"))
	require.NoError(t, err)

	data, err := os.ReadFile(workingPath)
	require.NoError(t, err)
	var persisted []Event
	require.NoError(t, json.Unmarshal(data, &persisted))
	require.Len(t, persisted, 3)
	assert.Equal(t, "early", persisted[0].Title)
	assert.Equal(t, "團隊週會", persisted[1].Title)
	assert.Equal(t, "Client Sync", persisted[2].Title)
}

func TestFileStoreDelete(t *testing.T) {
	t.Run("by title substring case insensitive", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		defer store.Close()

		res, err := store.Delete(context.Background(), Selector{Title: "client"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Deleted)
	})

	t.Run("by start time", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		defer store.Close()

		start, err := ParseTimestamp("2026-01-20T10:00:00")
		require.NoError(t, err)
		res, err := store.Delete(context.Background(), Selector{Start: &start})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Deleted)
	})

	t.Run("missing selector", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		defer store.Close()

		_, err := store.Delete(context.Background(), Selector{})
		assert.ErrorIs(t, err, ErrMissingSelector)
	})

	t.Run("no match", func(t *testing.T) {
		store, _ := newTestFileStore(t)
		defer store.Close()

		_, err := store.Delete(context.Background(), Selector{Title: "retrospective"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFileStoreReset(t *testing.T) {
	store, _ := newTestFileStore(t)
	defer store.Close()
	ctx := context.Background()

	_, err := store.Add(ctx, mustEvent(t, "extra", "2026-01-22T09:00:00", "2026-01-22T10:00:00"))
	require.NoError(t, err)

	require.NoError(t, store.Reset())

	events, err := store.Query(ctx, Window{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFileStoreMissingBaselineIsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "nope.json"), filepath.Join(dir, "working.json"), nil)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.Query(context.Background(), Window{})
	require.NoError(t, err)
	assert.Empty(t, events)
}
