// Package engine computes which contacts have a birthday today or within an
// upcoming window, and derives the calendar feed and vCard imports from the
// contact list.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tartampluch/go-wishes/internal/birthday"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
)

// hoursPerDay converts the UTC midnight difference into whole days.
const hoursPerDay = 24

// BirthdayWindow is a contact paired with the number of days until its next
// birthday. It is computed on demand and never persisted.
type BirthdayWindow struct {
	Contact   contacts.Contact
	DayMonth  birthday.DayMonth
	DaysUntil int

	// Next is the date of the next occurrence at midnight in the reference
	// location.
	Next time.Time
}

// Skipped reports a contact left out of a scan because its birthday text does
// not parse.
type Skipped struct {
	Contact contacts.Contact
	Err     error
}

// DayMonthOf parses the stored birthday of c. The error wraps
// birthday.ErrInvalidDate.
func DayMonthOf(c contacts.Contact) (birthday.DayMonth, error) {
	dm, err := birthday.Parse(c.Birthday)
	if err != nil {
		return birthday.DayMonth{}, fmt.Errorf("%s %q: %w", config.ErrContactBirthday, c.Name, err)
	}
	return dm, nil
}

// DaysUntilNext returns the whole number of calendar days from ref's date to
// the next occurrence of c's birthday, 0 meaning today. Days are counted on
// ref's local calendar so DST shifts never produce fractional days.
func DaysUntilNext(c contacts.Contact, ref time.Time) (int, error) {
	dm, err := DayMonthOf(c)
	if err != nil {
		return 0, err
	}
	days, _ := untilNext(dm, ref)
	return days, nil
}

// NextOccurrence returns the date of c's next birthday on or after ref's date.
func NextOccurrence(c contacts.Contact, ref time.Time) (time.Time, error) {
	dm, err := DayMonthOf(c)
	if err != nil {
		return time.Time{}, err
	}
	_, next := untilNext(dm, ref)
	return next, nil
}

// IsToday reports whether c's birthday falls on ref's calendar date.
// Contacts with an unparseable birthday are never today.
func IsToday(c contacts.Contact, ref time.Time) bool {
	days, err := DaysUntilNext(c, ref)
	return err == nil && days == 0
}

// Scan computes the birthday window of every contact due within horizon days
// of ref (0 = today only). The result is sorted by DaysUntil, ties keeping the
// input order. Contacts whose birthday does not parse are returned in the
// skip list instead of aborting the scan. A negative horizon yields nothing.
func Scan(list []contacts.Contact, ref time.Time, horizon int) ([]BirthdayWindow, []Skipped) {
	var (
		out     []BirthdayWindow
		skipped []Skipped
	)
	for _, c := range list {
		dm, err := DayMonthOf(c)
		if err != nil {
			skipped = append(skipped, Skipped{Contact: c, Err: err})
			continue
		}
		if horizon < 0 {
			continue
		}
		days, next := untilNext(dm, ref)
		if days > horizon {
			continue
		}
		out = append(out, BirthdayWindow{Contact: c, DayMonth: dm, DaysUntil: days, Next: next})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out, skipped
}

// WithinWindow is Scan with the skipped contacts logged as warnings.
func WithinWindow(list []contacts.Contact, ref time.Time, horizon int) []BirthdayWindow {
	out, skipped := Scan(list, ref, horizon)
	logSkipped(skipped)
	return out
}

// Today returns the contacts whose birthday is ref's date, in input order.
func Today(list []contacts.Contact, ref time.Time) []contacts.Contact {
	windows := WithinWindow(list, ref, 0)
	out := make([]contacts.Contact, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.Contact)
	}
	return out
}

func logSkipped(skipped []Skipped) {
	for _, s := range skipped {
		slog.Warn(config.MsgSkippedDate,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyName, s.Contact.Name,
			config.LogKeyValue, s.Contact.Birthday,
			config.LogKeyError, s.Err)
	}
}

// untilNext does the arithmetic on UTC midnights built from ref's local date,
// then expresses the occurrence back in ref's location.
func untilNext(dm birthday.DayMonth, ref time.Time) (int, time.Time) {
	y, m, d := ref.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	next := dm.In(y, time.UTC)
	if next.Before(today) {
		next = dm.In(y+1, time.UTC)
	}

	days := int(next.Sub(today).Hours() / hoursPerDay)
	return days, time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, ref.Location())
}
