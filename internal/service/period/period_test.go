package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveWeeklyWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "monday morning utc",
			now:       time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC),
			wantStart: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday evening utc",
			now:       time.Date(2025, 3, 16, 23, 59, 0, 0, time.UTC),
			wantStart: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			// Sunday 23:00 UTC is already Monday 01:00 at UTC+2
			name:      "positive offset crosses into monday",
			now:       time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC),
			offset:    120,
			wantStart: time.Date(2025, 3, 2, 22, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC),
		},
		{
			// Monday 02:00 UTC is still Sunday at UTC-5
			name:      "negative offset still sunday",
			now:       time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC),
			offset:    -300,
			wantStart: time.Date(2025, 2, 24, 5, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 3, 5, 0, 0, 0, time.UTC),
		},
		{
			name:      "year boundary",
			now:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ResolveWeeklyWindow(tt.now, tt.offset)
			assert.True(t, tt.wantStart.Equal(w.UTCStart), "start: got %s", w.UTCStart)
			assert.True(t, tt.wantEnd.Equal(w.UTCEnd), "end: got %s", w.UTCEnd)
			assert.Equal(t, time.Monday, w.LocalStart.Weekday())
			assert.Equal(t, 0, w.LocalStart.Hour())
			assert.Equal(t, tt.offset, w.OffsetMinutes)
			assert.Equal(t, time.UTC, w.UTCStart.Location())
		})
	}
}

func TestResolveMonthlyWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "first of month",
			now:       time.Date(2025, 3, 1, 0, 10, 0, 0, time.UTC),
			wantStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "mid month",
			now:       time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "january rolls back a year",
			now:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// 22:30 UTC on Feb 28 is already March 1 at UTC+2
			name:      "offset moves to first of month",
			now:       time.Date(2025, 2, 28, 22, 30, 0, 0, time.UTC),
			offset:    120,
			wantStart: time.Date(2025, 1, 31, 22, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 2, 28, 22, 0, 0, 0, time.UTC),
		},
		{
			name:      "leap february",
			now:       time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ResolveMonthlyWindow(tt.now, tt.offset)
			assert.True(t, tt.wantStart.Equal(w.UTCStart), "start: got %s", w.UTCStart)
			assert.True(t, tt.wantEnd.Equal(w.UTCEnd), "end: got %s", w.UTCEnd)
			assert.Equal(t, 1, w.LocalStart.Day())
		})
	}
}

func TestResolveWindow_Reproducible(t *testing.T) {
	now := time.Date(2025, 6, 18, 13, 37, 0, 0, time.UTC)
	for _, resolve := range []func(time.Time, int) Window{ResolveWeeklyWindow, ResolveMonthlyWindow} {
		a, b := resolve(now, 60), resolve(now, 60)
		assert.True(t, a.UTCStart.Equal(b.UTCStart))
		assert.True(t, a.UTCEnd.Equal(b.UTCEnd))
		assert.Equal(t, a.String(), b.String())
	}
}

func TestWindow_Contains(t *testing.T) {
	w := ResolveWeeklyWindow(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 0)
	assert.True(t, w.Contains(w.UTCStart))
	assert.False(t, w.Contains(w.UTCEnd))
	assert.False(t, w.Contains(w.UTCStart.Add(-time.Nanosecond)))
}

func TestZone(t *testing.T) {
	assert.Equal(t, "UTC+05:30", Zone(330).String())
	assert.Equal(t, "UTC-03:00", Zone(-180).String())
}
