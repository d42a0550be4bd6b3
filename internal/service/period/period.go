// Package period resolves the weekly and monthly evaluation windows.
package period

import (
	"fmt"
	"time"
)

// Window is a half-open evaluation range [UTCStart, UTCEnd). Local bounds carry a
// fixed zone at the configured offset.
type Window struct {
	UTCStart      time.Time
	UTCEnd        time.Time
	LocalStart    time.Time
	LocalEnd      time.Time
	OffsetMinutes int
}

// Key returns the ledger key for the window.
func (w Window) Key() time.Time {
	return w.UTCStart
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.UTCStart) && t.Before(w.UTCEnd)
}

// String implements fmt.Stringer.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.UTCStart.Format(time.RFC3339), w.UTCEnd.Format(time.RFC3339))
}

// Zone returns a fixed zone for a UTC offset in minutes.
func Zone(offsetMinutes int) *time.Location {
	sign := "+"
	abs := offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60), offsetMinutes*60)
}

// ResolveWeeklyWindow returns the previous local calendar week (Monday 00:00 to the
// next Monday 00:00) relative to now.
func ResolveWeeklyWindow(now time.Time, offsetMinutes int) Window {
	zone := Zone(offsetMinutes)
	local := now.In(zone)

	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	// time.Sunday == 0; shift so Monday is day zero
	sinceMonday := (int(today.Weekday()) + 6) % 7
	thisMonday := today.AddDate(0, 0, -sinceMonday)
	lastMonday := thisMonday.AddDate(0, 0, -7)

	return newWindow(lastMonday, thisMonday, offsetMinutes)
}

// ResolveMonthlyWindow returns the previous local calendar month relative to now.
// On the first day of a month the month containing yesterday is used, which is the
// month that just ended.
func ResolveMonthlyWindow(now time.Time, offsetMinutes int) Window {
	zone := Zone(offsetMinutes)
	local := now.In(zone)
	if local.Day() == 1 {
		local = local.AddDate(0, 0, -1)
	} else {
		local = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, zone).AddDate(0, 0, -1)
	}

	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, zone)
	end := start.AddDate(0, 1, 0)
	return newWindow(start, end, offsetMinutes)
}

func newWindow(localStart, localEnd time.Time, offsetMinutes int) Window {
	return Window{
		UTCStart:      localStart.UTC(),
		UTCEnd:        localEnd.UTC(),
		LocalStart:    localStart,
		LocalEnd:      localEnd,
		OffsetMinutes: offsetMinutes,
	}
}
