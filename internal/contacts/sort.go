package contacts

import (
	"sort"
	"strings"

	"github.com/tartampluch/go-wishes/internal/birthday"
)

// Column identifies a sortable field of the contact table.
type Column int

const (
	ColumnName Column = iota
	ColumnPhone
	ColumnBirthday
)

// ParseColumn maps a CLI/column name to a Column.
func ParseColumn(s string) (Column, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return ColumnName, true
	case "phone":
		return ColumnPhone, true
	case "birthday", "date":
		return ColumnBirthday, true
	}
	return ColumnName, false
}

// SortBy orders list in place, keeping the relative order of equal rows.
// Names compare case-insensitively, birthdays in calendar order with
// unparseable values last.
func SortBy(list []Contact, col Column, ascending bool) {
	less := func(a, b Contact) bool {
		switch col {
		case ColumnPhone:
			return a.Phone < b.Phone
		case ColumnBirthday:
			return birthdayLess(a.Birthday, b.Birthday)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		if ascending {
			return less(list[i], list[j])
		}
		return less(list[j], list[i])
	})
}

func birthdayLess(a, b string) bool {
	da, errA := birthday.Parse(a)
	db, errB := birthday.Parse(b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	return da.Before(db)
}
