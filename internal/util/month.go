package util

import "time"

// DateLayout is the calendar date format used in requests and responses
const DateLayout = "2006-01-02"

// TruncateToDate returns midnight UTC of t's UTC calendar date
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped adds n calendar months to start's date. When the start day
// does not exist in the target month the result is that month's last day,
// unlike time.AddDate which overflows into the following month.
func AddMonthsClamped(start time.Time, n int) time.Time {
	y, m, d := start.UTC().Date()
	// Normalize through day 1 so the month rolls over without overflow
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return CalculateActualDate(first.Year(), first.Month(), d)
}
