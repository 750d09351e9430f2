package core

import "time"

// Clock supplies the current time. Tests inject a FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (f FixedClock) Now() time.Time { return time.Time(f) }

// MonthCursor holds the month currently selected for browsing.
//
// It is not safe for concurrent use; one owner mutates it through
// PreviousMonth and NextMonth.
type MonthCursor struct {
	cal      Calendar
	clock    Clock
	selected Month
}

// NewMonthCursor starts on the month containing clock.Now().
func NewMonthCursor(cal Calendar, clock Clock) *MonthCursor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MonthCursor{
		cal:      cal,
		clock:    clock,
		selected: cal.MonthOf(clock.Now()),
	}
}

// Selected returns the selected month.
func (c *MonthCursor) Selected() Month {
	return c.selected
}

// PreviousMonth moves back one month. Navigation into the past is unbounded.
func (c *MonthCursor) PreviousMonth() {
	c.selected = c.selected.Prev()
}

// NextMonth moves forward one month. It does not stop at the current month;
// callers consult IsCurrentMonth to disable the transition.
func (c *MonthCursor) NextMonth() {
	c.selected = c.selected.Next()
}

// IsCurrentMonth reports whether the selection is the month containing now.
func (c *MonthCursor) IsCurrentMonth() bool {
	return c.selected == c.cal.MonthOf(c.clock.Now())
}

// CanGoNext reports whether the selection is strictly before the current month.
func (c *MonthCursor) CanGoNext() bool {
	return c.selected.Before(c.cal.MonthOf(c.clock.Now()))
}

// Reset selects the current month again.
func (c *MonthCursor) Reset() {
	c.selected = c.cal.MonthOf(c.clock.Now())
}

// Boundary returns the first instant and the last day of the selection.
func (c *MonthCursor) Boundary() (start, end time.Time) {
	return c.selected.Start(c.cal), c.selected.End(c.cal)
}

// Label returns a human label for the selection, e.g. "October 2026".
func (c *MonthCursor) Label() string {
	return c.selected.Label()
}
