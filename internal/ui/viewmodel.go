package ui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-wishes/internal/birthday"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/engine"
	"github.com/tartampluch/go-wishes/internal/outbox"
)

// Each window owns its view models and re-derives them from store snapshots;
// widgets only read from them.

// -----------------------------------------------------------------------------
// Today
// -----------------------------------------------------------------------------

// TodayView lists today's birthdays and what happened to each of them in
// this session.
type TodayView struct {
	Contacts []contacts.Contact
	status   map[string]outbox.Status
}

// NewTodayView selects today's contacts from list.
func NewTodayView(list []contacts.Contact, now time.Time) *TodayView {
	v := &TodayView{status: make(map[string]outbox.Status)}
	v.Refresh(list, now)
	return v
}

// Refresh recomputes the list, keeping the status of contacts still present.
func (v *TodayView) Refresh(list []contacts.Contact, now time.Time) {
	v.Contacts = engine.Today(list, now)
	keep := make(map[string]outbox.Status, len(v.status))
	for _, c := range v.Contacts {
		if s, ok := v.status[c.ID]; ok {
			keep[c.ID] = s
		}
	}
	v.status = keep
}

// Mark records the outcome for a contact.
func (v *TodayView) Mark(res outbox.Result) {
	v.status[res.Contact.ID] = res.Status
}

// Status returns the recorded outcome, or "" when nothing happened yet.
func (v *TodayView) Status(id string) outbox.Status {
	return v.status[id]
}

// Pending returns the contacts not yet sent, skipped or already greeted.
func (v *TodayView) Pending() []contacts.Contact {
	var out []contacts.Contact
	for _, c := range v.Contacts {
		switch v.status[c.ID] {
		case outbox.StatusSent, outbox.StatusSkipped, outbox.StatusDuplicate:
			continue
		}
		out = append(out, c)
	}
	return out
}

// -----------------------------------------------------------------------------
// Contacts
// -----------------------------------------------------------------------------

// ContactsView is the searchable, sortable contact table. Until a header is
// tapped rows keep the store order.
type ContactsView struct {
	all       []contacts.Contact
	rows      []contacts.Contact
	query     string
	sorted    bool
	column    contacts.Column
	ascending bool
}

// NewContactsView builds the view over list.
func NewContactsView(list []contacts.Contact) *ContactsView {
	v := &ContactsView{ascending: true}
	v.SetContacts(list)
	return v
}

// SetContacts replaces the underlying snapshot.
func (v *ContactsView) SetContacts(list []contacts.Contact) {
	v.all = append([]contacts.Contact(nil), list...)
	v.apply()
}

// SetQuery filters rows with case-insensitive containment.
func (v *ContactsView) SetQuery(q string) {
	v.query = q
	v.apply()
}

// ToggleSort sorts by col, reversing the direction when col is already the
// active column.
func (v *ContactsView) ToggleSort(col contacts.Column) {
	if v.sorted && v.column == col {
		v.ascending = !v.ascending
	} else {
		v.sorted, v.column, v.ascending = true, col, true
	}
	v.apply()
}

// SortState reports the active column and direction.
func (v *ContactsView) SortState() (col contacts.Column, ascending, sorted bool) {
	return v.column, v.ascending, v.sorted
}

// Rows returns the visible rows.
func (v *ContactsView) Rows() []contacts.Contact {
	return v.rows
}

// Row returns the visible row i.
func (v *ContactsView) Row(i int) (contacts.Contact, bool) {
	if i < 0 || i >= len(v.rows) {
		return contacts.Contact{}, false
	}
	return v.rows[i], true
}

func (v *ContactsView) apply() {
	match := contacts.Contains(v.query)
	rows := make([]contacts.Contact, 0, len(v.all))
	for _, c := range v.all {
		if match(c) {
			rows = append(rows, c)
		}
	}
	if v.sorted {
		contacts.SortBy(rows, v.column, v.ascending)
	}
	v.rows = rows
}

// -----------------------------------------------------------------------------
// Upcoming
// -----------------------------------------------------------------------------

// ErrHorizon is returned for a horizon that is not a non-negative number.
var ErrHorizon = errors.New("horizon must be a non-negative number of days")

// UpcomingView lists the birthdays within Horizon days.
type UpcomingView struct {
	Horizon int
	Rows    []engine.BirthdayWindow
}

// NewUpcomingView builds the view with the default horizon when horizon is
// negative.
func NewUpcomingView(horizon int) *UpcomingView {
	if horizon < 0 {
		horizon = config.DefaultHorizonDays
	}
	return &UpcomingView{Horizon: horizon}
}

// SetHorizon parses the horizon typed by the user.
func (v *UpcomingView) SetHorizon(text string) error {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return ErrHorizon
	}
	v.Horizon = n
	return nil
}

// Refresh recomputes the rows.
func (v *UpcomingView) Refresh(list []contacts.Contact, now time.Time) {
	v.Rows = engine.WithinWindow(list, now, v.Horizon)
}

// -----------------------------------------------------------------------------
// Contact form
// -----------------------------------------------------------------------------

// ContactForm backs the add/edit dialog. Original is the edited record, zero
// for a new contact.
type ContactForm struct {
	Original contacts.Contact
	Name     string
	Phone    string
	Birthday string
}

// NewContactForm pre-fills the form from c.
func NewContactForm(c contacts.Contact) *ContactForm {
	return &ContactForm{Original: c, Name: c.Name, Phone: c.Phone, Birthday: c.Birthday}
}

// Editing reports whether the form edits an existing record.
func (f *ContactForm) Editing() bool {
	return f.Original.ID != ""
}

// FieldErrors returns the translation key of the first problem of each
// field, keyed by field label key. An empty map means the form is valid.
func (f *ContactForm) FieldErrors() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(f.Name) == "" {
		errs[config.TKeyLblName] = config.TKeyErrNameReq
	}
	if strings.TrimSpace(f.Phone) == "" {
		errs[config.TKeyLblPhone] = config.TKeyErrPhoneReq
	}
	if _, err := birthday.Parse(f.Birthday); err != nil {
		errs[config.TKeyLblBirthday] = config.TKeyErrBirthday
	}
	return errs
}

// Save inserts or updates the contact in store and returns the stored record.
func (f *ContactForm) Save(store *contacts.Store) (contacts.Contact, error) {
	c := contacts.Contact{Name: f.Name, Phone: f.Phone, Birthday: f.Birthday}
	if f.Editing() {
		return store.UpdateByID(f.Original.ID, c)
	}
	return store.Insert(c)
}
