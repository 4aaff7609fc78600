package domain

import "time"

// Calendar key layouts. Keys are computed in the server's configured
// location so "today" and "this month" follow local calendar boundaries.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// DayKey returns the calendar-day key of t in t's location.
func DayKey(t time.Time) string { return t.Format(DayLayout) }

// MonthKey returns the calendar-month key of t in t's location.
func MonthKey(t time.Time) string { return t.Format(MonthLayout) }

// DayBounds returns [start of t's day, start of the next day) in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds returns [first of t's month, first of the next month) in t's
// location.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// TrailingWindow returns [now-d, now).
func TrailingWindow(now time.Time, d time.Duration) Window {
	return Window{From: now.Add(-d), To: now}
}
