package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/lib/pq"

	"admissionfair/internal/domain"
)

const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS attendees (
		id            BIGSERIAL PRIMARY KEY,
		name          VARCHAR(100) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		check_in_time TIMESTAMPTZ NOT NULL,
		letter        VARCHAR(2000)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS attendees_email_key ON attendees (email);
	CREATE INDEX IF NOT EXISTS attendees_check_in_time_idx ON attendees (check_in_time DESC, id DESC);
`

type attendeeRepository struct {
	DB    *sql.DB
	clock domain.Clock
	// writeMu holds the clock read and the INSERT together so ids and check-in times agree in order
	// for writes from this process.
	writeMu sync.Mutex
}

// NewAttendeeRepository returns a domain.AttendeeRepository implemented with Postgres.
func NewAttendeeRepository(db *sql.DB, clock domain.Clock) domain.AttendeeRepository {
	if clock == nil {
		clock = domain.NewMonotonicClock(nil)
	}
	return &attendeeRepository{DB: db, clock: clock}
}

// Migrate creates the attendees table and its indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (r *attendeeRepository) FindByEmail(ctx context.Context, email string) (*domain.Attendee, error) {
	query := `
		SELECT id, name, email, check_in_time, letter
		FROM attendees
		WHERE email = $1
	`
	a := &domain.Attendee{}
	var letter sql.NullString
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&a.ID, &a.Name, &a.Email, &a.CheckInTime, &letter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Letter = letter.String
	a.CheckInTime = a.CheckInTime.UTC()
	return a, nil
}

func (r *attendeeRepository) Create(ctx context.Context, a *domain.Attendee) error {
	query := `
		INSERT INTO attendees (name, email, check_in_time, letter)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	checkInTime := r.clock.Now()
	var id int64
	err := r.DB.QueryRowContext(ctx, query, a.Name, a.Email, checkInTime, a.Letter).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	a.ID = id
	a.CheckInTime = checkInTime
	return nil
}

func (r *attendeeRepository) ListAll(ctx context.Context) ([]*domain.Attendee, error) {
	query := `
		SELECT id, name, email, check_in_time, letter
		FROM attendees
		ORDER BY check_in_time DESC, id DESC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a := &domain.Attendee{}
		var letter sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CheckInTime, &letter); err != nil {
			return nil, err
		}
		a.Letter = letter.String
		a.CheckInTime = a.CheckInTime.UTC()
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attendees, nil
}
