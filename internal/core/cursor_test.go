package core

import (
	"testing"
	"time"
)

func TestMonthCursorNavigation(t *testing.T) {
	now := FixedClock(time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC))
	c := NewMonthCursor(Calendar{}, now)

	if got := c.Selected(); got != (Month{2026, time.October}) {
		t.Fatalf("initial month = %v", got)
	}
	if !c.IsCurrentMonth() || c.CanGoNext() {
		t.Fatal("cursor should start on the current month")
	}

	c.PreviousMonth()
	c.PreviousMonth()
	if got := c.Selected(); got != (Month{2026, time.August}) {
		t.Fatalf("after two steps back = %v", got)
	}
	if c.IsCurrentMonth() || !c.CanGoNext() {
		t.Fatal("August is not current and can move forward")
	}

	c.NextMonth()
	c.NextMonth()
	if !c.IsCurrentMonth() {
		t.Fatalf("expected current month, got %v", c.Selected())
	}

	// NextMonth is not guarded; the caller decides.
	c.NextMonth()
	if got := c.Selected(); got != (Month{2026, time.November}) {
		t.Fatalf("unguarded next = %v", got)
	}
	if c.IsCurrentMonth() || c.CanGoNext() {
		t.Fatal("future month is neither current nor navigable forward")
	}

	c.Reset()
	if !c.IsCurrentMonth() {
		t.Fatal("Reset should return to the current month")
	}
}

func TestMonthCursorCrossesYears(t *testing.T) {
	c := NewMonthCursor(Calendar{}, FixedClock(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
	c.PreviousMonth()
	if got := c.Selected(); got != (Month{2025, time.December}) {
		t.Fatalf("got %v", got)
	}
	for i := 0; i < 120; i++ {
		c.PreviousMonth()
	}
	if got := c.Selected(); got != (Month{2015, time.December}) {
		t.Fatalf("unbounded past navigation got %v", got)
	}
}

func TestMonthCursorBoundary(t *testing.T) {
	c := NewMonthCursor(Calendar{}, FixedClock(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)))
	start, end := c.Boundary()
	if start.Day() != 1 || end.Day() != 29 || end.Month() != time.February {
		t.Fatalf("boundary = %v .. %v", start, end)
	}
	if c.Label() != "February 2024" {
		t.Fatalf("label = %q", c.Label())
	}
}
