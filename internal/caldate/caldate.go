// Package caldate provides a calendar date with no time-of-day component.
//
// Membership ranges, installment due dates and refill cycles are all
// date-only values. Comparing them through timestamps shifts results by a
// day depending on the server timezone, so every date comparison in this
// codebase goes through this package instead.
package caldate

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the canonical wire and storage format.
const Layout = "2006-01-02"

// Date is a calendar date. The zero value is invalid and reported by IsZero.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func New(year int, month time.Month, day int) Date {
	return normalize(year, month, day)
}

// Today returns the current calendar date in the given location.
// A nil location means time.Local.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// FromTime truncates t to its calendar date in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return FromTime(t), nil
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc, for interop with APIs that need a
// time.Time. Never use the result for date comparisons.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days. n may be negative.
func (d Date) AddDays(n int) Date {
	return normalize(d.Year, d.Month, d.Day+n)
}

// Compare returns -1 if d is before other, 0 if equal, +1 if after.
func (d Date) Compare(other Date) int {
	a := d.ordinal()
	b := other.ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }
func (d Date) Equal(other Date) bool  { return d.Compare(other) == 0 }

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// MondayOfWeek returns the Monday on or before d.
func (d Date) MondayOfWeek() Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// SundayOnOrBefore returns the Sunday on or before d. Refill cycles are
// anchored on Sundays, so this is the start of d's refill cycle.
func (d Date) SundayOnOrBefore() Date {
	return d.AddDays(-int(d.Weekday()))
}

func (d Date) ordinal() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

func normalize(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Scan implements sql.Scanner. Postgres DATE columns arrive as time.Time
// from lib/pq; text scans are accepted too.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(v)
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into caldate.Date", src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid calendar date JSON: %s", s)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
