// Package schedule implements the calendar arithmetic and recurrence rules
// that drive subscription and credit payment scheduling. All computations are
// done in the time.Time location of the input; callers pass UTC.
package schedule

import "time"

// LastDayOfMonth returns the number of days in the month of t.
func LastDayOfMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// ClampDay returns day limited to the valid day range of the month of t.
// Day 31 in April clamps to 30, day 30 in February 2023 clamps to 28.
func ClampDay(t time.Time, day int) int {
	if day < 1 {
		return 1
	}
	if last := LastDayOfMonth(t); day > last {
		return last
	}
	return day
}

// AddDays advances t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths advances t by n months, clamping the day-of-month so the result
// never spills into the following month. Unlike time.AddDate, Jan 31 plus one
// month yields Feb 28 (or 29), not Mar 2/3.
func AddMonths(t time.Time, n int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	anchor = anchor.AddDate(0, n, 0)
	day := ClampDay(anchor, t.Day())
	return time.Date(anchor.Year(), anchor.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears advances t by n years with the same day clamping as AddMonths,
// so Feb 29 plus one year yields Feb 28.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, n*12)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole number of calendar days from now to t,
// negative when t is in the past.
func DaysUntil(now, t time.Time) int {
	return int(StartOfDay(t).Sub(StartOfDay(now)).Hours() / 24)
}
