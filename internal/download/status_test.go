package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo_ValidTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
	}{
		{StatusQueued, StatusDownloading},
		{StatusQueued, StatusFailed},
		{StatusQueued, StatusCanceled},
		{StatusDownloading, StatusCompleted},
		{StatusDownloading, StatusFailed},
		{StatusDownloading, StatusCanceled},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.True(t, tt.from.CanTransitionTo(tt.to),
				"%s should be able to transition to %s", tt.from, tt.to)
		})
	}
}

func TestCanTransitionTo_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
	}{
		{StatusQueued, StatusCompleted},      // skip downloading
		{StatusDownloading, StatusQueued},    // backwards
		{StatusCompleted, StatusQueued},      // terminal
		{StatusCompleted, StatusDownloading}, // terminal
		{StatusCompleted, StatusFailed},      // terminal
		{StatusCompleted, StatusCanceled},    // terminal
		{StatusFailed, StatusQueued},         // terminal
		{StatusFailed, StatusDownloading},    // terminal
		{StatusFailed, StatusCompleted},      // terminal
		{StatusFailed, StatusCanceled},       // terminal
		{StatusCanceled, StatusQueued},       // terminal
		{StatusCanceled, StatusDownloading},  // terminal
		{StatusCanceled, StatusCompleted},    // terminal
		{StatusCanceled, StatusFailed},       // terminal
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.False(t, tt.from.CanTransitionTo(tt.to),
				"%s should NOT be able to transition to %s", tt.from, tt.to)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusDownloading.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
}

func TestIsActive(t *testing.T) {
	assert.True(t, StatusQueued.IsActive())
	assert.True(t, StatusDownloading.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusFailed.IsActive())
	assert.False(t, StatusCanceled.IsActive())
}
