package core

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month")

// Calendar performs Gregorian month arithmetic in an explicit time zone.
// The zero value works in UTC; nothing here reads time.Local.
type Calendar struct {
	Location *time.Location
}

// NewCalendar returns a calendar for the given zone (nil means UTC).
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// StartOfMonth returns the first instant of the month containing t.
func (c Calendar) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.loc()).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, c.loc())
}

// EndOfMonth returns the start of the last calendar day of the month containing t.
// Bucketing only needs day granularity.
func (c Calendar) EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.loc()).Date()
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, c.loc())
}

// IsSameMonth reports whether a and b fall in the same year and month.
func (c Calendar) IsSameMonth(a, b time.Time) bool {
	ay, am, _ := a.In(c.loc()).Date()
	by, bm, _ := b.In(c.loc()).Date()
	return ay == by && am == bm
}

// MonthOf returns the month containing t.
func (c Calendar) MonthOf(t time.Time) Month {
	y, m, _ := t.In(c.loc()).Date()
	return Month{Year: y, Month: m}
}

// AddMonths moves t by n calendar months and returns the first instant of that month.
// Normalizing to day 1 avoids Jan 31 + 1 month landing in March.
func (c Calendar) AddMonths(t time.Time, n int) time.Time {
	y, m, _ := t.In(c.loc()).Date()
	return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, c.loc())
}

// Month identifies a calendar month independent of any zone.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth validates and builds a Month.
func NewMonth(year int, month time.Month) (Month, error) {
	if month < time.January || month > time.December {
		return Month{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return Month{Year: year, Month: month}, nil
}

// ParseMonth parses the "2006-01" form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// String returns the "2006-01" form.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label returns a human label such as "October 2026".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) Next() Month { return m.Add(1) }
func (m Month) Prev() Month { return m.Add(-1) }

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Start returns the first instant of m in the calendar's zone.
func (m Month) Start(c Calendar) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, c.loc())
}

// End returns the last calendar day of m in the calendar's zone.
func (m Month) End(c Calendar) time.Time {
	return c.EndOfMonth(m.Start(c))
}

// Contains reports whether t falls in m.
func (m Month) Contains(c Calendar, t time.Time) bool {
	return c.IsSameMonth(m.Start(c), t)
}

// MarshalText encodes m as "2006-01".
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes the "2006-01" form.
func (m *Month) UnmarshalText(b []byte) error {
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
