// Package history records every greeting attempt in a SQLite ledger so that
// scheduled runs never wish the same person twice in one year.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
)

// Status of a ledger entry.
type Status string

const (
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusCanceled Status = "canceled"
)

// Entry is one recorded attempt.
type Entry struct {
	ID        int64
	Name      string
	Phone     string
	Birthday  string
	Year      int
	Status    Status
	Transport string
	Error     string
	At        time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS greetings (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT    NOT NULL,
	phone     TEXT    NOT NULL,
	birthday  TEXT    NOT NULL,
	year      INTEGER NOT NULL,
	status    TEXT    NOT NULL,
	transport TEXT    NOT NULL DEFAULT '',
	error     TEXT    NOT NULL DEFAULT '',
	at_ms     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS greetings_key ON greetings (name, phone, birthday, year, status);
`

// Ledger persists entries in SQLite.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path. ":memory:"
// gives a private in-memory ledger.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(config.ErrHistoryPathEmpty)
	}

	dsn := path
	if path != config.MemoryDSN {
		cleanPath := filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(cleanPath), config.DirPermUserRWX); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrCreateDir, err)
		}
		dsn = cleanPath + config.SQLitePragmas
	}

	db, err := sql.Open(config.SQLiteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHistoryOpen, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrHistoryOpen, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrHistoryMigrate, err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database handle.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends e. A zero At is stamped with the current time and a zero
// Year derived from At.
func (l *Ledger) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if e.Year == 0 {
		e.Year = e.At.Year()
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO greetings (name, phone, birthday, year, status, transport, error, at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Phone, e.Birthday, e.Year, string(e.Status), e.Transport, e.Error, e.At.UTC().UnixMilli())
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", config.ErrHistoryWrite, err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("%s: %w", config.ErrHistoryWrite, err)
	}
	return e, nil
}

// AlreadySent reports whether a successful greeting to the contact identified
// by key was recorded for year.
func (l *Ledger) AlreadySent(ctx context.Context, key contacts.MatchKey, year int) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM greetings
		 WHERE name = ? AND phone = ? AND birthday = ? AND year = ? AND status = ?`,
		key.Name, key.Phone, key.Birthday, year, string(StatusSent)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%s: %w", config.ErrHistoryRead, err)
	}
	return n > 0, nil
}

// List returns the most recent entries first. limit <= 0 returns everything.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, name, phone, birthday, year, status, transport, error, at_ms
		FROM greetings ORDER BY at_ms DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHistoryRead, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			status string
			atMS   int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.Birthday, &e.Year, &status, &e.Transport, &e.Error, &atMS); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrHistoryRead, err)
		}
		e.Status = Status(status)
		e.At = time.UnixMilli(atMS)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrHistoryRead, err)
	}
	return out, nil
}
