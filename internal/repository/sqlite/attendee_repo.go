// Package sqlite provides a SQLite-backed attendee repository using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"admissionfair/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS attendees (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    check_in_time INTEGER NOT NULL,
    letter        TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS attendees_email_key ON attendees (email);
CREATE INDEX IF NOT EXISTS attendees_check_in_time_idx ON attendees (check_in_time DESC, id DESC);
`

// Open opens (creating if needed) the database at path. Use ":memory:" for a throwaway database.
// The pool is limited to one connection so writers are serialized and pragmas apply everywhere.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Migrate creates the attendees table and its indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Check-in times are stored as Unix microseconds.
func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

type attendeeRepository struct {
	db    *sql.DB
	clock domain.Clock
	// writeMu holds the clock read and the INSERT together so ids and check-in times agree in order.
	writeMu sync.Mutex
}

// NewAttendeeRepository returns a domain.AttendeeRepository implemented with SQLite.
func NewAttendeeRepository(db *sql.DB, clock domain.Clock) domain.AttendeeRepository {
	if clock == nil {
		clock = domain.NewMonotonicClock(nil)
	}
	return &attendeeRepository{db: db, clock: clock}
}

func (r *attendeeRepository) FindByEmail(ctx context.Context, email string) (*domain.Attendee, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, check_in_time, letter FROM attendees WHERE email = ?",
		email,
	)
	a, err := scanAttendee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attendee: %w", err)
	}
	return a, nil
}

func (r *attendeeRepository) Create(ctx context.Context, a *domain.Attendee) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	checkInTime := r.clock.Now()
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO attendees (name, email, check_in_time, letter) VALUES (?, ?, ?, ?) RETURNING id",
		a.Name, a.Email, toMicros(checkInTime), a.Letter,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert attendee: %w", err)
	}
	a.ID = id
	a.CheckInTime = fromMicros(toMicros(checkInTime))
	return nil
}

func (r *attendeeRepository) ListAll(ctx context.Context) ([]*domain.Attendee, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email, check_in_time, letter FROM attendees ORDER BY check_in_time DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attendees, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttendee(s scanner) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var micros int64
	var letter sql.NullString
	if err := s.Scan(&a.ID, &a.Name, &a.Email, &micros, &letter); err != nil {
		return nil, err
	}
	a.CheckInTime = fromMicros(micros)
	a.Letter = letter.String
	return a, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed: attendees.email")
}
