// Package dateutil provides pure Gregorian calendar-day arithmetic. There is
// no working-calendar or holiday awareness; a day is a day.
package dateutil

import "time"

// Truncate drops the time-of-day component, normalizing to midnight UTC.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
// DaysBetween(jan1, jan3) == 2, DaysBetween(jan3, jan1) == -2.
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}

// AddDays returns the date n calendar days after t (or before, for negative n).
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

// Today returns the current date at midnight UTC.
func Today() time.Time {
	return Truncate(time.Now().UTC())
}
