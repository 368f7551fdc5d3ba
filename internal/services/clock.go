package services

import "time"

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayRange returns the half-open interval covering t's calendar day.
func dayRange(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// monthRange returns the half-open interval covering the given month.
func monthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

const dateLayout = "2006-01-02"
