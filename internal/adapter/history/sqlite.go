// Package history keeps completed advisories in a SQLite database.
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

	_ "modernc.org/sqlite"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Entry is one completed advisory.
type Entry struct {
	RequestID   string             `json:"request_id"`
	Query       string             `json:"query"`
	Specialties []domain.Specialty `json:"specialties"`
	Unavailable []domain.Specialty `json:"unavailable,omitempty"`
	Answer      string             `json:"answer"`
	Duration    time.Duration      `json:"duration_ns"`
	CreatedAt   time.Time          `json:"created_at"`
}

// EntryFromPayload builds an Entry from an advisory.completed payload.
func EntryFromPayload(p domain.AdvisoryCompletedPayload, at time.Time) Entry {
	return Entry{
		RequestID:   p.RequestID,
		Query:       p.Query,
		Specialties: p.Specialties,
		Unavailable: p.Unavailable,
		Answer:      p.Answer,
		Duration:    time.Duration(p.DurationMS) * time.Millisecond,
		CreatedAt:   at,
	}
}

// SQLiteStore persists entries in one SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, creating its directory and
// running the schema migration. ":memory:" opens a private in-memory store.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, storeError("Open", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError("Open", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, storeError("Open", fmt.Errorf("set WAL mode: %w", err))
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, storeError("Open", fmt.Errorf("migrate: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS advisories (
			request_id  TEXT PRIMARY KEY,
			query       TEXT NOT NULL,
			specialties TEXT NOT NULL DEFAULT '',
			unavailable TEXT NOT NULL DEFAULT '',
			answer      TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS advisories_created_at ON advisories (created_at);
	`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores e, replacing any entry with the same request id. A zero
// CreatedAt is set to now.
func (s *SQLiteStore) Save(ctx context.Context, e Entry) error {
	if e.RequestID == "" {
		return domain.NewSubSystemError("history", "SQLiteStore.Save", domain.ErrInvalidInput, "request id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO advisories
			(request_id, query, specialties, unavailable, answer, duration_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Query, joinSpecialties(e.Specialties), joinSpecialties(e.Unavailable),
		e.Answer, e.Duration.Milliseconds(), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return storeError("Save", err)
	}
	return nil
}

// Get returns the entry for requestID.
func (s *SQLiteStore) Get(ctx context.Context, requestID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntries+" WHERE request_id = ?", requestID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewSubSystemError("history", "SQLiteStore.Get", domain.ErrNotFound,
			fmt.Sprintf("advisory %q not found", requestID))
	}
	if err != nil {
		return nil, storeError("Get", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := selectEntries + " ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("Recent", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storeError("Recent", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("Recent", err)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM advisories").Scan(&n); err != nil {
		return 0, storeError("Count", err)
	}
	return n, nil
}

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectEntries = `SELECT request_id, query, specialties, unavailable, answer, duration_ms, created_at FROM advisories`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                  Entry
		specs, unavailable string
		durationMS         int64
		created            string
	)
	if err := row.Scan(&e.RequestID, &e.Query, &specs, &unavailable, &e.Answer, &durationMS, &created); err != nil {
		return nil, err
	}
	e.Specialties = splitSpecialties(specs)
	e.Unavailable = splitSpecialties(unavailable)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	at, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.CreatedAt = at
	return &e, nil
}

func joinSpecialties(sps []domain.Specialty) string {
	parts := make([]string, len(sps))
	for i, sp := range sps {
		parts[i] = string(sp)
	}
	return strings.Join(parts, ",")
}

func splitSpecialties(s string) []domain.Specialty {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]domain.Specialty, len(parts))
	for i, p := range parts {
		out[i] = domain.Specialty(p)
	}
	return out
}

func storeError(op string, err error) error {
	return fmt.Errorf("history %s: %w: %w", op, domain.ErrHistoryStore, err)
}

