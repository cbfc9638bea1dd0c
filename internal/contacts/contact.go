package contacts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tartampluch/go-wishes/internal/birthday"
	"golang.org/x/text/cases"
)

// Error taxonomy of the store. Callers match with errors.Is.
var (
	// ErrStoreUnavailable means the persisted table is missing or malformed.
	ErrStoreUnavailable = errors.New("contact store unavailable")
	// ErrValidation means a contact was rejected before being persisted.
	ErrValidation = errors.New("invalid contact")
	// ErrNotFound means an update target matched no record.
	ErrNotFound = errors.New("contact not found")
)

// Contact is one row of the persisted table.
type Contact struct {
	// ID identifies the record for the lifetime of the process only.
	// It is assigned on load/insert and never written to disk.
	ID string

	Name  string
	Phone string

	// Birthday is the "D-Mon" text as stored (e.g. "5-Mar").
	Birthday string
}

// MatchKey is the (name, phone, birthday) triple used to address records,
// since the file carries no stable identifier.
type MatchKey struct {
	Name     string
	Phone    string
	Birthday string
}

// Key returns the match key of c.
func (c Contact) Key() MatchKey {
	return MatchKey{Name: c.Name, Phone: c.Phone, Birthday: c.Birthday}
}

// Matches reports an exact field-by-field match.
func (k MatchKey) Matches(c Contact) bool {
	return c.Name == k.Name && c.Phone == k.Phone && c.Birthday == k.Birthday
}

// String is used in logs and CLI output.
func (k MatchKey) String() string {
	return fmt.Sprintf("%s <%s> %s", k.Name, k.Phone, k.Birthday)
}

// Validate checks the persistence invariants and returns the normalized
// contact: trimmed fields and the birthday in canonical "D-Mon" form.
// The phone is kept verbatim apart from surrounding whitespace.
func Validate(c Contact) (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" {
		return c, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.Phone == "" {
		return c, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	dm, err := birthday.Parse(c.Birthday)
	if err != nil {
		return c, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	c.Birthday = dm.String()
	return c, nil
}

// Predicate selects contacts in Find.
type Predicate func(Contact) bool

// MatchAll selects every contact.
func MatchAll(Contact) bool { return true }

// Contains builds the search predicate of the contact manager: case-folded
// substring containment across name, phone and birthday. An empty query
// matches everything.
func Contains(query string) Predicate {
	needle := cases.Fold().String(strings.TrimSpace(query))
	if needle == "" {
		return MatchAll
	}
	return func(c Contact) bool {
		fold := cases.Fold()
		for _, field := range []string{c.Name, c.Phone, c.Birthday} {
			if strings.Contains(fold.String(field), needle) {
				return true
			}
		}
		return false
	}
}

// ByKey selects the exact matches of k.
func ByKey(k MatchKey) Predicate {
	return k.Matches
}

// SameContact selects the records describing the same person as k: equal
// trimmed name and phone, and the same birthday however it is spelled
// ("05-mar" and "5-Mar" agree). Unparseable birthdays compare verbatim.
func SameContact(k MatchKey) Predicate {
	name, phone := strings.TrimSpace(k.Name), strings.TrimSpace(k.Phone)
	day := canonicalBirthday(k.Birthday)
	return func(c Contact) bool {
		return strings.TrimSpace(c.Name) == name &&
			strings.TrimSpace(c.Phone) == phone &&
			canonicalBirthday(c.Birthday) == day
	}
}

func canonicalBirthday(s string) string {
	dm, err := birthday.Parse(s)
	if err != nil {
		return s
	}
	return dm.String()
}

func newID() string {
	return uuid.NewString()
}
