package lifecycle

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusRejectsUnknown(t *testing.T) {
	status, err := ParseStatus("scheduled")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, status)

	_, err = ParseStatus("archived")
	require.Error(t, err)
}

func TestParsePriorityRejectsUnknown(t *testing.T) {
	priority, err := ParsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, priority)

	_, err = ParsePriority("critical")
	require.Error(t, err)
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		target  Status
		valid   bool
	}{
		{"draft to scheduled", StatusDraft, StatusScheduled, true},
		{"scheduled to in progress", StatusScheduled, StatusInProgress, true},
		{"in progress to completed", StatusInProgress, StatusCompleted, true},
		{"same status", StatusDraft, StatusDraft, true},
		{"completed back to scheduled", StatusCompleted, StatusScheduled, true},
		{"cancel from anywhere", StatusInProgress, StatusCancelled, true},
		{"completed cannot revert to draft", StatusCompleted, StatusDraft, false},
		{"cancelled cannot start", StatusCancelled, StatusInProgress, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateTransition(tc.current, tc.target)
			assert.Equal(t, tc.valid, res.Valid)
			if !tc.valid {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestValidateTimeRangeBounds(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		end   time.Time
		valid bool
	}{
		{"end equals start", start, false},
		{"end before start", start.Add(-time.Hour), false},
		{"one second under five minutes", start.Add(5*time.Minute - time.Second), false},
		{"exactly five minutes", start.Add(5 * time.Minute), true},
		{"ordinary afternoon", start.Add(3 * time.Hour), true},
		{"exactly thirty days", start.Add(30 * 24 * time.Hour), true},
		{"one minute over thirty days", start.Add(30*24*time.Hour + time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateTimeRange(start, tc.end)
			assert.Equal(t, tc.valid, res.Valid)
		})
	}
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(StatusDraft).Valid)
	assert.True(t, CanEdit(StatusScheduled).Valid)
	assert.True(t, CanEdit(StatusInProgress).Valid)
	assert.False(t, CanEdit(StatusCompleted).Valid)
	assert.False(t, CanEdit(StatusCancelled).Valid)
}

func TestCanDelete(t *testing.T) {
	assert.True(t, CanDelete(StatusDraft).Valid)
	assert.True(t, CanDelete(StatusCompleted).Valid)
	assert.True(t, CanDelete(StatusCancelled).Valid)
	assert.False(t, CanDelete(StatusInProgress).Valid)
}

func TestValidateTitle(t *testing.T) {
	assert.False(t, ValidateTitle("ab").Valid)
	assert.True(t, ValidateTitle("Q3 planning").Valid)
	assert.True(t, ValidateTitle("3rd quarterly review").Valid)
	assert.False(t, ValidateTitle("  padded title").Valid)
	assert.False(t, ValidateTitle("-dash first").Valid)
	assert.True(t, ValidateTitle(strings.Repeat("a", 100)).Valid)
	assert.False(t, ValidateTitle(strings.Repeat("a", 101)).Valid)
}

func TestValidateDescription(t *testing.T) {
	assert.True(t, ValidateDescription("").Valid)
	assert.True(t, ValidateDescription(strings.Repeat("d", 500)).Valid)
	assert.False(t, ValidateDescription(strings.Repeat("d", 501)).Valid)
}

func TestValidateLocationName(t *testing.T) {
	assert.False(t, ValidateLocationName("A").Valid)
	assert.True(t, ValidateLocationName("HQ").Valid)
	assert.True(t, ValidateLocationName(strings.Repeat("l", 200)).Valid)
	assert.False(t, ValidateLocationName(strings.Repeat("l", 201)).Valid)
}

func TestValidateVirtualLink(t *testing.T) {
	assert.True(t, ValidateVirtualLink("").Valid)
	assert.True(t, ValidateVirtualLink("https://meet.example.com/abc").Valid)
	assert.True(t, ValidateVirtualLink("http://meet.example.com/abc").Valid)
	assert.False(t, ValidateVirtualLink("ftp://meet.example.com/abc").Valid)
	assert.False(t, ValidateVirtualLink("not a url").Valid)
	assert.False(t, ValidateVirtualLink("meet.example.com/abc").Valid)
}
