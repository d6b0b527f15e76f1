package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClampsDayOverflow(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"jan31 to feb leap year", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"jan31 to feb non-leap", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"mar31 to apr", date(2024, time.March, 31), 1, date(2024, time.April, 30)},
		{"jan15 plain", date(2024, time.January, 15), 1, date(2024, time.February, 15)},
		{"dec to jan rollover", date(2024, time.December, 10), 1, date(2025, time.January, 10)},
		{"quarter from oct31", date(2024, time.October, 31), 3, date(2025, time.January, 31)},
		{"negative month", date(2024, time.March, 31), -1, date(2024, time.February, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.start, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.start, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddMonthsPreservesClock(t *testing.T) {
	start := time.Date(2024, time.January, 31, 12, 30, 45, 0, time.UTC)
	got := AddMonths(start, 1)
	if got.Hour() != 12 || got.Minute() != 30 || got.Second() != 45 {
		t.Errorf("AddMonths dropped time of day: got %v", got)
	}
}

func TestAddYearsLeapDay(t *testing.T) {
	got := AddYears(date(2024, time.February, 29), 1)
	want := date(2025, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("AddYears(feb29, 1) = %v, want %v", got, want)
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		month time.Time
		day   int
		want  int
	}{
		{date(2024, time.February, 1), 31, 29},
		{date(2023, time.February, 1), 31, 28},
		{date(2024, time.April, 1), 31, 30},
		{date(2024, time.January, 1), 31, 31},
		{date(2024, time.June, 1), 0, 1},
		{date(2024, time.June, 1), 15, 15},
	}
	for _, tt := range tests {
		if got := ClampDay(tt.month, tt.day); got != tt.want {
			t.Errorf("ClampDay(%v, %d) = %d, want %d", tt.month.Month(), tt.day, got, tt.want)
		}
	}
}

func TestLastDayOfMonth(t *testing.T) {
	if got := LastDayOfMonth(date(2024, time.February, 10)); got != 29 {
		t.Errorf("LastDayOfMonth(feb 2024) = %d, want 29", got)
	}
	if got := LastDayOfMonth(date(2100, time.February, 10)); got != 28 {
		t.Errorf("LastDayOfMonth(feb 2100) = %d, want 28", got)
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, time.June, 10, 23, 59, 0, 0, time.UTC)
	target := time.Date(2024, time.June, 13, 0, 1, 0, 0, time.UTC)
	if got := DaysUntil(now, target); got != 3 {
		t.Errorf("DaysUntil = %d, want 3", got)
	}
	if got := DaysUntil(target, now); got != -3 {
		t.Errorf("DaysUntil reversed = %d, want -3", got)
	}
}

func TestAddDays(t *testing.T) {
	start := time.Date(2024, time.February, 27, 12, 0, 0, 0, time.UTC)
	if got := AddDays(start, 3); !got.Equal(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("AddDays(+3) across leap February = %v", got)
	}
	if got := AddDays(start, -27); !got.Equal(time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("AddDays(-27) = %v", got)
	}
}
