// Package birthday holds the year-less day-month value stored for every contact.
package birthday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a stored birthday cannot be parsed into a
// valid (day, month) pair.
var ErrInvalidDate = errors.New("invalid birthday date")

// Separator joins the day and the month in the persisted form ("5-Mar").
const Separator = "-"

// DayMonth is an annual date without a year.
type DayMonth struct {
	Day   int
	Month time.Month
}

// Parse reads the persisted "D-Mon" form. Month names are matched
// case-insensitively, either as the three-letter abbreviation or in full.
// Leading zeros on the day are accepted.
func Parse(s string) (DayMonth, error) {
	raw := strings.TrimSpace(s)
	dayPart, monthPart, ok := strings.Cut(raw, Separator)
	if !ok {
		return DayMonth{}, fmt.Errorf("%w: %q: missing %q separator", ErrInvalidDate, s, Separator)
	}
	dayPart = strings.TrimSpace(dayPart)
	monthPart = strings.TrimSpace(monthPart)

	if dayPart == "" || strings.TrimLeft(dayPart, "0123456789") != "" {
		return DayMonth{}, fmt.Errorf("%w: %q: day is not numeric", ErrInvalidDate, s)
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil {
		return DayMonth{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}

	month, ok := parseMonth(monthPart)
	if !ok {
		return DayMonth{}, fmt.Errorf("%w: %q: unknown month %q", ErrInvalidDate, s, monthPart)
	}

	dm := DayMonth{Day: day, Month: month}
	if !dm.Valid() {
		return DayMonth{}, fmt.Errorf("%w: %q: day %d out of range for %s", ErrInvalidDate, s, day, month)
	}
	return dm, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) DayMonth {
	dm, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return dm
}

// Of returns the day-month of t in its own location.
func Of(t time.Time) DayMonth {
	_, m, d := t.Date()
	return DayMonth{Day: d, Month: m}
}

// Valid reports whether the pair exists in at least one calendar year.
// February 29 is valid.
func (d DayMonth) Valid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	return d.Day >= 1 && d.Day <= maxDays(d.Month)
}

// String renders the canonical persisted form: unpadded day, three-letter month.
func (d DayMonth) String() string {
	if d.Month < time.January || d.Month > time.December {
		return strconv.Itoa(d.Day) + Separator + "?"
	}
	return strconv.Itoa(d.Day) + Separator + d.Month.String()[:3]
}

// In returns the occurrence of d in the given year at midnight in loc.
// A February 29 birthday falls on February 28 in non-leap years.
func (d DayMonth) In(year int, loc *time.Location) time.Time {
	day := d.Day
	if d.Month == time.February && day == 29 && !IsLeap(year) {
		day = 28
	}
	return time.Date(year, d.Month, day, 0, 0, 0, 0, loc)
}

// Before orders day-months by calendar position (January 1 first).
func (d DayMonth) Before(o DayMonth) bool {
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func maxDays(m time.Month) int {
	switch m {
	case time.February:
		return 29
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

func parseMonth(s string) (time.Month, bool) {
	if len(s) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		if strings.EqualFold(s, full[:3]) || strings.EqualFold(s, full) {
			return m, true
		}
	}
	return 0, false
}
