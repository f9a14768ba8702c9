// Package repository opens the attendee store selected by DATABASE_URL.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"admissionfair/internal/domain"
	"admissionfair/internal/repository/postgres"
	"admissionfair/internal/repository/sqlite"
)

// Driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store bundles the database handle with the attendee repository built on it.
type Store struct {
	DB        *sql.DB
	Driver    string
	Attendees domain.AttendeeRepository
}

// Open connects to the database described by databaseURL.
// postgres:// and postgresql:// URLs use Postgres; sqlite:// URLs, file: URIs and bare paths use SQLite.
func Open(ctx context.Context, databaseURL string, clock domain.Clock) (*Store, error) {
	driver, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		db, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to reach postgres: %w", err)
		}
		return &Store{DB: db, Driver: driver, Attendees: postgres.NewAttendeeRepository(db, clock)}, nil
	default:
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		return &Store{DB: db, Driver: driver, Attendees: sqlite.NewAttendeeRepository(db, clock)}, nil
	}
}

// ParseURL maps a DATABASE_URL to a driver name and its data source name.
// SQLAlchemy style sqlite:///relative.db and sqlite:////absolute.db are accepted.
func ParseURL(databaseURL string) (driver, dsn string, err error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return "", "", fmt.Errorf("database url is required")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u, nil
	case strings.HasPrefix(u, "sqlite:///"):
		return DriverSQLite, strings.TrimPrefix(u, "sqlite:///"), nil
	case strings.HasPrefix(u, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(u, "sqlite://"), nil
	case strings.Contains(u, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme in %q", u)
	default:
		return DriverSQLite, u, nil
	}
}

// Migrate creates the schema for the store's driver.
func (s *Store) Migrate(ctx context.Context) error {
	var err error
	if s.Driver == DriverPostgres {
		err = postgres.Migrate(ctx, s.DB)
	} else {
		err = sqlite.Migrate(ctx, s.DB)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", s.Driver, err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
