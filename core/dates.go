package core

import "time"

// ShortDateLayout is the day-granularity form stored next to each semantic
// date. It sorts lexically in chronological order.
const ShortDateLayout = "2006-01-02"

// ShortDate formats t in local time using ShortDateLayout.
func ShortDate(t time.Time) string {
	return t.In(time.Local).Format(ShortDateLayout)
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
