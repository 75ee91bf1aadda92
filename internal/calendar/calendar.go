// Package calendar answers business-day questions: weekends are never
// business days, and a configurable list of dates is treated as holidays.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Calendar is safe for concurrent use once built.
type Calendar struct {
	holidays map[string]struct{}
}

// New builds a calendar from holiday dates in YYYY-MM-DD form.
func New(holidays []string) (*Calendar, error) {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, h); err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		c.holidays[h] = struct{}{}
	}
	return c, nil
}

// ParseHolidays splits a comma separated list such as "2026-12-25,2027-01-01".
func ParseHolidays(list string) (*Calendar, error) {
	if strings.TrimSpace(list) == "" {
		return New(nil)
	}
	return New(strings.Split(list, ","))
}

// IsBusinessDay reports whether t, in its own location, falls on a business day.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[t.Format(dateLayout)]
	return !holiday
}

// RollForward returns t unchanged on a business day, otherwise the same
// wall-clock time on the next business day.
func (c *Calendar) RollForward(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// NextBusinessDay returns the same wall-clock time on the first business day
// strictly after t.
func (c *Calendar) NextBusinessDay(t time.Time) time.Time {
	return c.RollForward(t.AddDate(0, 0, 1))
}

// DayBounds returns the first and last instant of t's local day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// LoadLocation resolves an IANA zone, falling back to UTC for empty or
// unknown names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WithinWindow reports whether t's local hour lies in [startHour, endHour).
func WithinWindow(t time.Time, startHour, endHour int) bool {
	h := t.Hour()
	return h >= startHour && h < endHour
}
