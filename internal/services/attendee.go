package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"admissionfair/internal/domain"
	"admissionfair/internal/metrics"
)

// ProgramInfo is the department information placed in welcome emails.
type ProgramInfo struct {
	Name         string
	ApplyURL     string
	WebsiteURL   string
	ContactEmail string
}

type attendeeService struct {
	repo       domain.AttendeeRepository
	letters    domain.LetterGenerator
	emails     domain.EmailService
	dispatcher domain.TaskDispatcher
	program    ProgramInfo
	location   *time.Location
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// AttendeeServiceDeps bundles the collaborators of the attendee service.
type AttendeeServiceDeps struct {
	Repo       domain.AttendeeRepository
	Letters    domain.LetterGenerator
	Emails     domain.EmailService
	Dispatcher domain.TaskDispatcher
	Program    ProgramInfo
	// Location is the time zone used to bucket check-ins by date. Defaults to UTC.
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// NewAttendeeService creates an AttendeeService with the given dependencies.
func NewAttendeeService(deps AttendeeServiceDeps) domain.AttendeeService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &attendeeService{
		repo:       deps.Repo,
		letters:    deps.Letters,
		emails:     deps.Emails,
		dispatcher: deps.Dispatcher,
		program:    deps.Program,
		location:   loc,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

func (s *attendeeService) CheckIn(ctx context.Context, name, email string) (*domain.Attendee, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case email == "":
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	// The lookup only spares a letter generation for obvious repeats;
	// the unique index on email is what actually guarantees one record per email.
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		s.metrics.CheckIn(metrics.CheckInDuplicate)
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.metrics.CheckIn(metrics.CheckInError)
		return nil, fmt.Errorf("find attendee by email: %w", err)
	}

	letter := s.letters.Generate(ctx, name)

	attendee := domain.NewAttendee(name, email, letter)
	if err := s.repo.Create(ctx, attendee); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.metrics.CheckIn(metrics.CheckInDuplicate)
			return nil, domain.ErrDuplicateEmail
		}
		s.metrics.CheckIn(metrics.CheckInError)
		return nil, fmt.Errorf("create attendee: %w", err)
	}
	s.metrics.CheckIn(metrics.CheckInAdmitted)
	s.logger.InfoContext(ctx, "attendee checked in", "attendee_id", attendee.ID)

	s.notify(ctx, attendee)
	return attendee, nil
}

// notify queues the welcome email. It never blocks the check-in and its failures are only logged.
func (s *attendeeService) notify(ctx context.Context, a *domain.Attendee) {
	if s.dispatcher == nil || s.emails == nil {
		return
	}
	data := &domain.WelcomeLetterEmailData{
		Email:        a.Email,
		Name:         a.Name,
		Letter:       a.Letter,
		ProgramName:  s.program.Name,
		ApplyURL:     s.program.ApplyURL,
		WebsiteURL:   s.program.WebsiteURL,
		ContactEmail: s.program.ContactEmail,
		Year:         a.CheckInTime.In(s.location).Year(),
	}
	attendeeID := a.ID
	err := s.dispatcher.Submit("welcome_email", func(taskCtx context.Context) error {
		if !s.emails.SendWelcomeLetter(taskCtx, data) {
			return fmt.Errorf("welcome email for attendee %d not delivered", attendeeID)
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "welcome email not queued", "attendee_id", attendeeID, "err", err)
	}
}

func (s *attendeeService) List(ctx context.Context) ([]*domain.Attendee, error) {
	attendees, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, nil
}
