package schedule

import (
	"time"

	"github.com/moneystack/moneystack-go/internal/domain"
)

// Next computes the occurrence that follows current for the given frequency.
// For month-granular frequencies (monthly, quarterly, yearly) the result
// lands on paymentDay when the target month allows it, clamped to the last
// day of the month otherwise; a day-31 schedule therefore yields
// Jan 31, Feb 28, Mar 31 rather than drifting to the shortest month seen.
// An unknown frequency is treated as monthly.
func Next(current time.Time, freq domain.Frequency, paymentDay int) time.Time {
	switch freq {
	case domain.FrequencyDaily:
		return AddDays(current, 1)
	case domain.FrequencyWeekly:
		return AddDays(current, 7)
	case domain.FrequencyBiweekly:
		return AddDays(current, 14)
	case domain.FrequencyQuarterly:
		return onPaymentDay(AddMonths(current, 3), paymentDay)
	case domain.FrequencyYearly:
		return onPaymentDay(AddYears(current, 1), paymentDay)
	default: // monthly
		return onPaymentDay(AddMonths(current, 1), paymentDay)
	}
}

// FirstFromDay resolves the first occurrence of a day-of-month schedule
// relative to now: this month's paymentDay if it is still ahead, otherwise
// the same day next month. The result is normalized to 12:00 so that
// same-day comparisons against wall-clock "now" are stable regardless of
// when during the day the schedule was created.
func FirstFromDay(paymentDay int, now time.Time) time.Time {
	candidate := atNoon(now, ClampDay(now, paymentDay))
	if !candidate.After(now) {
		next := AddMonths(candidate, 1)
		candidate = atNoon(next, ClampDay(next, paymentDay))
	}
	return candidate
}

func onPaymentDay(t time.Time, paymentDay int) time.Time {
	if paymentDay < 1 {
		return t
	}
	day := ClampDay(t, paymentDay)
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func atNoon(t time.Time, day int) time.Time {
	return time.Date(t.Year(), t.Month(), day, 12, 0, 0, 0, t.Location())
}
