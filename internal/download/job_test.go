package download

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/bookarr/internal/catalog"
)

func TestNewJob_StartsQueued(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "magnet:?xt=urn:btih:ABCD", now)

	assert.Equal(t, StatusQueued, j.Status())
	assert.Equal(t, "u1", j.UserID())
	assert.Equal(t, int64(7), j.BookID())
	assert.Equal(t, now, j.CreatedAt())
	assert.Equal(t, now, j.UpdatedAt())
	assert.Nil(t, j.CompletedAt())
	assert.Nil(t, j.FirstNotFoundAt())
}

func TestTransitionTo_SameStateRefresh(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)

	later := start.Add(5 * time.Minute)
	require.NoError(t, j.TransitionTo(StatusQueued, later))

	assert.Equal(t, StatusQueued, j.Status())
	assert.Equal(t, later, j.UpdatedAt())
	assert.Equal(t, start, j.CreatedAt())
}

func TestTransitionTo_IllegalLeavesJobUntouched(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)

	err := j.TransitionTo(StatusCompleted, start.Add(time.Minute))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "queued -> completed")

	assert.Equal(t, StatusQueued, j.Status())
	assert.Equal(t, start, j.UpdatedAt())
}

func TestComplete_StampsAndClears(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaAudio, "indexer", "abcd", "", start)
	require.NoError(t, j.TransitionTo(StatusDownloading, start))
	j.ObserveNotFound(start)

	done := start.Add(time.Hour)
	require.NoError(t, j.Complete(done))

	assert.Equal(t, StatusCompleted, j.Status())
	require.NotNil(t, j.CompletedAt())
	assert.Equal(t, done, *j.CompletedAt())
	assert.Empty(t, j.FailureReason())
	assert.Nil(t, j.FirstNotFoundAt())
}

func TestFail_ClearsCompletedAt(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)
	require.NoError(t, j.TransitionTo(StatusDownloading, start))

	require.NoError(t, j.Fail("engine error", start.Add(time.Minute)))
	assert.Equal(t, StatusFailed, j.Status())
	assert.Equal(t, "engine error", j.FailureReason())
	assert.Nil(t, j.CompletedAt())
}

func TestFail_ReappliedReplacesReason(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)
	require.NoError(t, j.TransitionTo(StatusDownloading, start))
	require.NoError(t, j.Fail("first reason", start))

	require.NoError(t, j.Fail("second reason", start.Add(time.Minute)))
	assert.Equal(t, StatusFailed, j.Status())
	assert.Equal(t, "second reason", j.FailureReason())
}

func TestCancel_ClearsBoth(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)

	require.NoError(t, j.Cancel(start.Add(time.Minute)))
	assert.Equal(t, StatusCanceled, j.Status())
	assert.Nil(t, j.CompletedAt())
	assert.Empty(t, j.FailureReason())
}

func TestObserveNotFound_FirstObservationSticks(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)

	first := j.ObserveNotFound(start)
	second := j.ObserveNotFound(start.Add(10 * time.Minute))

	assert.Equal(t, start, first)
	assert.Equal(t, first, second)
	require.NotNil(t, j.FirstNotFoundAt())
	assert.Equal(t, first, *j.FirstNotFoundAt())
}

func TestObserveFound_ClearsMarker(t *testing.T) {
	start := time.Now().UTC()
	j := NewJob("u1", 7, catalog.MediaText, "indexer", "abcd", "", start)

	j.ObserveNotFound(start)
	j.ObserveFound(start.Add(time.Minute))

	assert.Nil(t, j.FirstNotFoundAt())
}
