// Package timewindow maps calendar dates to the business week (Monday
// through Sunday) and the prior calendar month. Every component that
// reasons about a "week" goes through these functions; tier counts and
// invoice boundaries diverge silently otherwise.
package timewindow

import "time"

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStartMonday returns the Monday on or before d.
func WeekStartMonday(d time.Time) time.Time {
	d = Day(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEndSunday returns the Sunday of the business week containing d.
func WeekEndSunday(d time.Time) time.Time {
	return WeekStartMonday(d).AddDate(0, 0, 6)
}

// PriorMonthRange returns the first and last calendar day of the month
// immediately preceding d's month.
func PriorMonthRange(d time.Time) (time.Time, time.Time) {
	firstOfThisMonth := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := firstOfThisMonth.AddDate(0, 0, -1)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, end
}
