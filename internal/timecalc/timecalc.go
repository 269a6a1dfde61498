// Package timecalc computes elapsed and net work time and formats durations.
package timecalc

import (
	"fmt"
	"time"
)

// Elapsed returns end - start, using now when end is nil (the entry or break
// is still open).
func Elapsed(start time.Time, end *time.Time, now time.Time) time.Duration {
	if end == nil {
		return now.Sub(start)
	}
	return end.Sub(start)
}

// Duration returns end - start for completed intervals and 0 while end is nil.
func Duration(start time.Time, end *time.Time) time.Duration {
	if end == nil {
		return 0
	}
	return end.Sub(start)
}

// NetWork subtracts break time from entry time. The result never goes below
// zero, even when the stored breaks are inconsistent with the entry.
func NetWork(entry, breaks time.Duration) time.Duration {
	if net := entry - breaks; net > 0 {
		return net
	}
	return 0
}

// Millis converts d to whole milliseconds.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// FormatDuration renders d as "Xh YYm". Hours and minutes are floored; the
// sub-minute remainder is dropped, never rounded.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / (1000 * 60 * 60)
	m := (ms % (1000 * 60 * 60)) / (1000 * 60)
	return fmt.Sprintf("%dh %02dm", h, m)
}

// FormatDurationHHMMSS formats d as HH:MM:SS.
func FormatDurationHHMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// StartOfDay returns 00:00:00 of the same day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextDay returns 00:00:00 of the following day in t's location.
func NextDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

// DateKey returns t's calendar date as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekRange returns the Monday 00:00 and Sunday 00:00 of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	sunday := monday.AddDate(0, 0, 6)
	return monday, sunday
}

// MonthRange returns the first and last day of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first, last
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// DateIn returns midnight in loc of the calendar date shown by t. The date is
// taken from t's own location, not converted.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
