package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for calendar months
const MonthLayout = "2006-01"

// DateOf truncates t to midnight UTC of its UTC calendar day
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the UTC calendar date
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

// DaysBetween returns the number of whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// Month identifies a UTC calendar month
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the UTC calendar month containing t
func MonthOf(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: u.Month()}
}

// ParseMonth parses a YYYY-MM string
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
	}
	return MonthOf(t), nil
}

// Start returns midnight UTC on the first day of the month
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Window returns the half-open window covering the month
func (m Month) Window() Window {
	return Window{From: m.Start(), To: m.End()}
}

// Before reports whether m is earlier than other
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) String() string {
	return m.Start().Format(MonthLayout)
}

// MarshalText renders the month as YYYY-MM
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses YYYY-MM
func (m *Month) UnmarshalText(data []byte) error {
	parsed, err := ParseMonth(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Window is a half-open time range [From, To). A zero bound is unbounded.
type Window struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// MarshalJSON renders unbounded ends as null
func (w Window) MarshalJSON() ([]byte, error) {
	var out struct {
		From *time.Time `json:"from"`
		To   *time.Time `json:"to"`
	}
	if !w.From.IsZero() {
		out.From = &w.From
	}
	if !w.To.IsZero() {
		out.To = &w.To
	}
	return json.Marshal(out)
}

// ContainsPtr is Contains for optional dates; nil is never contained
func (w Window) ContainsPtr(t *time.Time) bool {
	return t != nil && w.Contains(*t)
}
