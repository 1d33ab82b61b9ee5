package domain

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for entry dates (ISO-8601 calendar day).
const DateFormat = "2006-01-02"

// Date is a calendar day with no time component. Entries are dated by day;
// intra-day ordering uses creation order instead.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns a normalized Date.
func NewDate(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 day. Malformed input fails with ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	y, m, d := t.Date()

	return Date{Year: y, Month: m, Day: d}, nil
}

// DateOf truncates a time.Time to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d falls before x.
func (d Date) Before(x Date) bool {
	return d.Time().Before(x.Time())
}

// After reports whether d falls after x.
func (d Date) After(x Date) bool {
	return d.Time().After(x.Time())
}

// Compare returns -1, 0 or +1 ordering d against x.
func (d Date) Compare(x Date) int {
	return d.Time().Compare(x.Time())
}

// String formats the day as ISO-8601.
func (d Date) String() string {
	return d.Time().Format(DateFormat)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}
