package core

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestCalendarBoundaries(t *testing.T) {
	cal := Calendar{}
	tests := []struct {
		name      string
		in        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"mid january", date(2026, time.January, 15), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"leap february", date(2024, time.February, 10), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"plain february", date(2025, time.February, 28), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"april", date(2026, time.April, 1), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)},
		{"december", date(2026, time.December, 31), time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.StartOfMonth(tt.in); !got.Equal(tt.wantStart) {
				t.Errorf("StartOfMonth = %v, want %v", got, tt.wantStart)
			}
			if got := cal.EndOfMonth(tt.in); !got.Equal(tt.wantEnd) {
				t.Errorf("EndOfMonth = %v, want %v", got, tt.wantEnd)
			}
		})
	}
}

func TestIsSameMonth(t *testing.T) {
	cal := Calendar{}
	if !cal.IsSameMonth(date(2026, 3, 1), date(2026, 3, 31)) {
		t.Error("first and last day of March should match")
	}
	if cal.IsSameMonth(date(2026, 3, 31), date(2026, 4, 1)) {
		t.Error("March 31 and April 1 must differ")
	}
	if cal.IsSameMonth(date(2025, 3, 15), date(2026, 3, 15)) {
		t.Error("same month in different years must differ")
	}
}

func TestCalendarZoneIsExplicit(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2026-03-31 20:00 UTC is already April 1st in Tokyo.
	instant := time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)

	if got := (Calendar{}).MonthOf(instant); got != (Month{2026, time.March}) {
		t.Fatalf("UTC month = %v", got)
	}
	if got := NewCalendar(tokyo).MonthOf(instant); got != (Month{2026, time.April}) {
		t.Fatalf("Tokyo month = %v", got)
	}
}

func TestAddMonthsDoesNotOverflowDays(t *testing.T) {
	cal := Calendar{}
	got := cal.AddMonths(date(2026, time.January, 31), 1)
	if got.Month() != time.February || got.Day() != 1 {
		t.Fatalf("Jan 31 + 1 month = %v", got)
	}
	got = cal.AddMonths(date(2026, time.January, 15), -1)
	if got.Year() != 2025 || got.Month() != time.December {
		t.Fatalf("Jan - 1 month = %v", got)
	}
}

func TestMonthArithmetic(t *testing.T) {
	m := Month{Year: 2026, Month: time.December}
	if got := m.Next(); got != (Month{2027, time.January}) {
		t.Fatalf("Next = %v", got)
	}
	if got := (Month{2026, time.January}).Prev(); got != (Month{2025, time.December}) {
		t.Fatalf("Prev = %v", got)
	}
	if got := m.Add(-24); got != (Month{2024, time.December}) {
		t.Fatalf("Add(-24) = %v", got)
	}
	if !(Month{2025, time.December}).Before(m) || m.Before(m) {
		t.Fatal("Before wrong")
	}
	if m.String() != "2026-12" || m.Label() != "December 2026" {
		t.Fatalf("String/Label = %q / %q", m.String(), m.Label())
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2026-10")
	if err != nil || m != (Month{2026, time.October}) {
		t.Fatalf("ParseMonth = %v, %v", m, err)
	}
	for _, bad := range []string{"", "2026-13", "2026/10", "oct"} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("%q: expected ErrInvalidMonth, got %v", bad, err)
		}
	}
	if _, err := NewMonth(2026, 0); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("month 0 accepted")
	}
}

func TestMonthContains(t *testing.T) {
	cal := Calendar{}
	m := Month{2026, time.February}
	if !m.Contains(cal, date(2026, 2, 28)) {
		t.Error("Feb 28 should be in February")
	}
	if m.Contains(cal, date(2026, 3, 1)) {
		t.Error("Mar 1 should not be in February")
	}
	if got := m.End(cal); got.Day() != 28 {
		t.Errorf("End day = %d", got.Day())
	}
}
