package services

import (
	"math"
	"time"
)

// startOfDay truncates a timestamp to midnight UTC
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sundayOf returns the Sunday that starts the week containing the given date
func sundayOf(t time.Time) time.Time {
	normalized := startOfDay(t)
	return normalized.AddDate(0, 0, -int(normalized.Weekday()))
}

// combineDateTime places the time-of-day component of tod onto the given date
func combineDateTime(date, tod time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
}

// hoursBetween returns the elapsed hours between check-in and check-out,
// rounded to two decimal places
func hoursBetween(checkIn, checkOut time.Time) float64 {
	hours := checkOut.Sub(checkIn).Hours()
	return math.Round(hours*100) / 100
}

// appendNote appends a line to an existing note block, preserving prior text
func appendNote(existing, line string) string {
	if line == "" {
		return existing
	}
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

// dateKey formats a timestamp as its calendar-day key
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
