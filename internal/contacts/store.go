// Package contacts persists the contact list as a three-column CSV table
// (name, phone, birthday) and offers query and CRUD operations over it.
package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tartampluch/go-wishes/internal/config"
)

// Header is the column order written by Save.
var Header = []string{config.ColumnName, config.ColumnPhone, config.ColumnBirthday}

// Store owns the authoritative record set. Readers receive copies.
// The mutex only exists because the GUI, the file watcher and the daemon
// may share one instance.
type Store struct {
	path string

	mu       sync.RWMutex
	contacts []Contact
	loaded   bool
}

// NewStore returns a store bound to the CSV file at path. Nothing is read
// until Load or the first query/mutation.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted table and replaces the in-memory snapshot.
// Rows unchanged since the previous snapshot keep their session IDs.
// A missing file, a missing required column or an unparseable row yields
// ErrStoreUnavailable. Rows with unparseable birthdays are kept; the matcher
// excludes them.
func (s *Store) Load() ([]Contact, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	list, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, s.path, err)
	}

	s.mu.Lock()
	reuseIDs(s.contacts, list)
	s.contacts = list
	s.loaded = true
	s.mu.Unlock()

	slog.Debug(config.MsgStoreLoaded,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, s.path,
		config.LogKeyCount, len(list))

	return clone(list), nil
}

// Save atomically overwrites the persisted table with contacts and adopts
// them as the new snapshot. On failure the previous file is left intact.
func (s *Store) Save(list []Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(assignIDs(clone(list)))
}

// Contacts returns a copy of the current snapshot, loading it on first use.
// A missing file is treated as an empty store.
func (s *Store) Contacts() ([]Contact, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.contacts), nil
}

// Find returns the contacts selected by p, in store order.
func (s *Store) Find(p Predicate) ([]Contact, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	if p == nil {
		p = MatchAll
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if p(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Insert validates c and appends it. The stored (normalized) contact is
// returned with its session ID.
func (s *Store) Insert(c Contact) (Contact, error) {
	valid, err := Validate(c)
	if err != nil {
		return Contact{}, err
	}
	if err := s.ensureLoaded(); err != nil {
		return Contact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	valid.ID = newID()
	next := append(clone(s.contacts), valid)
	if err := s.saveLocked(next); err != nil {
		return Contact{}, err
	}

	slog.Info(config.MsgContactAdded,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyName, valid.Name)
	return valid, nil
}

// Update replaces every record exactly matching key with c and returns the
// number of replaced rows. Duplicate rows are all replaced; the file has no
// way to tell them apart. ErrNotFound is returned when nothing matches.
func (s *Store) Update(key MatchKey, c Contact) (int, error) {
	valid, err := Validate(c)
	if err != nil {
		return 0, err
	}
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := clone(s.contacts)
	n := 0
	for i := range next {
		if key.Matches(next[i]) {
			id := next[i].ID
			next[i] = valid
			next[i].ID = id
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if n > 1 {
		slog.Warn(config.MsgUpdateDuplicates,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyKey, key.String(),
			config.LogKeyCount, n)
	}

	if err := s.saveLocked(next); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes every exact match of key. No match is not an error.
func (s *Store) Delete(key MatchKey) (int, error) {
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}
	return s.removeWhere(key.Matches)
}

// UpdateByID replaces the single record carrying the session id.
func (s *Store) UpdateByID(id string, c Contact) (Contact, error) {
	valid, err := Validate(c)
	if err != nil {
		return Contact{}, err
	}
	if err := s.ensureLoaded(); err != nil {
		return Contact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := clone(s.contacts)
	for i := range next {
		if next[i].ID == id {
			valid.ID = id
			next[i] = valid
			if err := s.saveLocked(next); err != nil {
				return Contact{}, err
			}
			return valid, nil
		}
	}
	return Contact{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

// DeleteByID removes the record carrying the session id, if present.
func (s *Store) DeleteByID(id string) (int, error) {
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}
	return s.removeWhere(func(c Contact) bool { return c.ID == id })
}

func (s *Store) removeWhere(match func(Contact) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if !match(c) {
			next = append(next, c)
		}
	}
	removed := len(s.contacts) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := s.saveLocked(next); err != nil {
		return 0, err
	}

	slog.Info(config.MsgContactDeleted,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyCount, removed)
	return removed, nil
}

// ensureLoaded loads the file once. A missing file starts an empty store so
// that the first Insert creates it; a malformed file is reported and never
// overwritten.
func (s *Store) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err := s.Load()
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info(config.MsgStoreMissing,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyFile, s.path)
		s.mu.Lock()
		s.contacts = nil
		s.loaded = true
		s.mu.Unlock()
		return nil
	}
	return err
}

// saveLocked writes next to disk then adopts it. Caller holds s.mu.
func (s *Store) saveLocked(next []Contact) error {
	if err := writeAtomic(s.path, next); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}
	s.contacts = next
	s.loaded = true
	return nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// over path.
func writeAtomic(path string, list []Contact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, config.StoreTempPattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := encode(tmp, list); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, config.FilePermUserRW); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func decode(r io.Reader) ([]Contact, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New(config.ErrStoreNoHeader)
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		columns[name] = i
	}
	idx := make([]int, len(Header))
	for i, required := range Header {
		pos, ok := columns[required]
		if !ok {
			return nil, fmt.Errorf("%s: %q", config.ErrStoreColumn, required)
		}
		idx[i] = pos
	}

	var list []Contact
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		list = append(list, Contact{
			ID:       newID(),
			Name:     strings.TrimSpace(record[idx[0]]),
			Phone:    strings.TrimSpace(record[idx[1]]),
			Birthday: strings.TrimSpace(record[idx[2]]),
		})
	}
	return list, nil
}

func encode(w io.Writer, list []Contact) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, c := range list {
		if err := writer.Write([]string{c.Name, c.Phone, c.Birthday}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func clone(list []Contact) []Contact {
	if list == nil {
		return nil
	}
	out := make([]Contact, len(list))
	copy(out, list)
	return out
}

func assignIDs(list []Contact) []Contact {
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = newID()
		}
	}
	return list
}

// reuseIDs carries IDs from old rows over to identical rows in next, pairing
// duplicates in file order.
func reuseIDs(old, next []Contact) {
	pool := make(map[MatchKey][]string, len(old))
	for _, c := range old {
		pool[c.Key()] = append(pool[c.Key()], c.ID)
	}
	for i := range next {
		ids := pool[next[i].Key()]
		if len(ids) == 0 {
			continue
		}
		next[i].ID = ids[0]
		pool[next[i].Key()] = ids[1:]
	}
}
