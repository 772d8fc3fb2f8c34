package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// ExpirationDate is a calendar date (no time of day) parsed leniently from
// YAML. A value that is not a well-formed date keeps its raw text and source
// position so it can be reported instead of silently dropped; Valid reports
// whether the date itself is usable.
type ExpirationDate struct {
	Raw    string
	Line   int
	Column int

	valid bool
	date  time.Time // midnight UTC of the declared day
}

// Date constructs a valid ExpirationDate, mainly for tests and derived
// values.
func Date(year int, month time.Month, day int) ExpirationDate {
	return ExpirationDate{
		Raw:   time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout),
		valid: true,
		date:  time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) ExpirationDate {
	y, m, d := t.UTC().Date()
	return Date(y, m, d)
}

// UnmarshalYAML parses the node as a YYYY-MM-DD date, recording the node
// position either way. A parse failure is not an error here: the caller
// decides whether a malformed value skips the entry or fails the run.
func (e *ExpirationDate) UnmarshalYAML(node *yaml.Node) error {
	e.Raw = node.Value
	e.Line = node.Line
	e.Column = node.Column
	t, err := time.Parse(dateLayout, node.Value)
	if err != nil {
		return nil
	}
	e.valid = true
	e.date = t
	return nil
}

// Valid reports whether the value parsed as a calendar date.
func (e ExpirationDate) Valid() bool { return e.valid }

// Time returns midnight UTC of the declared day. Zero when invalid.
func (e ExpirationDate) Time() time.Time { return e.date }

func (e ExpirationDate) String() string {
	if !e.valid {
		return e.Raw
	}
	return e.date.Format(dateLayout)
}

// ExpiredAt reports whether the date lies strictly before the calendar day
// of now. A grant expiring today is still active.
func (e ExpirationDate) ExpiredAt(now time.Time) bool {
	return e.valid && e.date.Before(dayOf(now))
}

// After reports whether the date lies strictly after the calendar day of t.
func (e ExpirationDate) After(t time.Time) bool {
	return e.valid && e.date.After(dayOf(t))
}

// DaysUntil returns the whole days between the calendar day of now and the
// date; negative once expired.
func (e ExpirationDate) DaysUntil(now time.Time) int {
	return int(e.date.Sub(dayOf(now)) / (24 * time.Hour))
}

// EndOfDayUTC renders the last instant of the declared day in the
// RFC 3339 form provider time conditions expect.
func (e ExpirationDate) EndOfDayUTC() string {
	return e.date.Format(dateLayout) + "T23:59:59Z"
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
