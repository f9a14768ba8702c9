package domain

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Sentinel errors for attendee operations.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already checked in")
	ErrInvalidInput   = errors.New("invalid input")
)

// Attendee is a checked-in visitor of the recruitment fair.
// swagger:model Attendee
type Attendee struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CheckInTime time.Time `json:"check_in_time"`
	Letter      string    `json:"letter"`
}

// NewAttendee returns an Attendee ready to be created. ID and CheckInTime are assigned by the repository.
func NewAttendee(name, email, letter string) *Attendee {
	return &Attendee{
		Name:   strings.TrimSpace(name),
		Email:  NormalizeEmail(email),
		Letter: letter,
	}
}

// NormalizeEmail returns the canonical form of an email address used as the uniqueness key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DailyCount is the number of check-ins recorded on a calendar date (YYYY-MM-DD).
// swagger:model DailyCount
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AttendeeRepository defines storage operations for attendees.
// Create assigns ID and CheckInTime and returns ErrDuplicateEmail when the email is taken.
type AttendeeRepository interface {
	FindByEmail(ctx context.Context, email string) (*Attendee, error)
	Create(ctx context.Context, attendee *Attendee) error
	ListAll(ctx context.Context) ([]*Attendee, error)
}

// AttendeeService defines the check-in flow and its read paths.
type AttendeeService interface {
	// CheckIn admits a new attendee. Returns ErrDuplicateEmail when the email has already checked in.
	CheckIn(ctx context.Context, name, email string) (*Attendee, error)
	// List returns every attendee, most recent check-in first.
	List(ctx context.Context) ([]*Attendee, error)
	// DailyCounts returns check-ins per calendar date, oldest date first.
	DailyCounts(ctx context.Context) ([]DailyCount, error)
	// ExportCSV writes every attendee as CSV to w.
	ExportCSV(ctx context.Context, w io.Writer) error
}
