package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRoundTrip(t *testing.T) {
	store, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	jobs := []Job{
		{ID: "a", Score: "waltz", Preset: "draft", Mode: "high_quality", Duration: 10, Peak: 0.9, CreatedAt: base},
		{ID: "b", Score: "etude", Preset: "standard", Mode: "high_quality", Duration: 12, Peak: 0.85, Warnings: []string{"voice stolen"}, CreatedAt: base.Add(time.Minute)},
		{ID: "c", Score: "nocturne", Preset: "high", Mode: "real_time", Duration: 8, Peak: 0.8, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, j := range jobs {
		require.NoError(t, store.Record(context.Background(), j))
	}

	entries, err := store.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, 1, entries[1].Warnings)

	all, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "nocturne", all[0].Score)
	assert.InDelta(t, 0.8, all[0].Peak, 1e-9)
	assert.True(t, all[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestHistoryDuplicateID(t *testing.T) {
	store, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	job := Job{ID: "dup", Score: "x", Preset: "draft", Mode: "high_quality", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Record(context.Background(), job))
	assert.Error(t, store.Record(context.Background(), job))
}

func TestHistorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := OpenHistory(path)
	require.NoError(t, err)
	job := Job{ID: "keeper", Score: "aria", Preset: "studio", Mode: "high_quality", Duration: 30, Peak: 0.92, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Record(context.Background(), job))
	require.NoError(t, store.Close())

	store, err = OpenHistory(path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keeper", entries[0].ID)
	assert.Equal(t, "aria", entries[0].Score)
}
