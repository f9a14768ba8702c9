package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"admissionfair/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeAttendeeRepo implements domain.AttendeeRepository in memory and enforces email uniqueness like a unique index.
type fakeAttendeeRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Attendee
	all     []*domain.Attendee
	nextID  int64
	clock   domain.Clock

	findErr   error
	createErr error
	listErr   error
	// afterFind runs after every lookup; tests use it to widen the check-then-create window.
	afterFind func()
}

func newFakeAttendeeRepo() *fakeAttendeeRepo {
	return &fakeAttendeeRepo{
		byEmail: make(map[string]*domain.Attendee),
		clock:   domain.NewMonotonicClock(nil),
	}
}

func (f *fakeAttendeeRepo) FindByEmail(ctx context.Context, email string) (*domain.Attendee, error) {
	if f.afterFind != nil {
		defer f.afterFind()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if a, ok := f.byEmail[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) Create(ctx context.Context, a *domain.Attendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[a.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.nextID++
	a.ID = f.nextID
	a.CheckInTime = f.clock.Now()
	cp := *a
	f.byEmail[a.Email] = &cp
	f.all = append(f.all, &cp)
	return nil
}

func (f *fakeAttendeeRepo) ListAll(ctx context.Context) ([]*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Attendee, 0, len(f.all))
	for i := len(f.all) - 1; i >= 0; i-- {
		cp := *f.all[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAttendeeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.all)
}

// fakeLetters implements domain.LetterGenerator.
type fakeLetters struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeLetters) Generate(ctx context.Context, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return "Welcome aboard, " + name
}

func (f *fakeLetters) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeEmailService implements domain.EmailService.
type fakeEmailService struct {
	mu     sync.Mutex
	result bool
	delay  time.Duration
	sent   []*domain.WelcomeLetterEmailData
}

func (f *fakeEmailService) SendWelcomeLetter(ctx context.Context, data *domain.WelcomeLetterEmailData) bool {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return f.result
}

func (f *fakeEmailService) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// recordingDispatcher implements domain.TaskDispatcher by holding tasks until runAll is called.
type recordingDispatcher struct {
	mu    sync.Mutex
	names []string
	tasks []func(ctx context.Context) error
	err   error
}

func (d *recordingDispatcher) Submit(name string, task func(ctx context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.names = append(d.names, name)
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *recordingDispatcher) runAll(ctx context.Context) []error {
	d.mu.Lock()
	tasks := append([]func(ctx context.Context) error(nil), d.tasks...)
	d.mu.Unlock()
	errs := make([]error, 0, len(tasks))
	for _, t := range tasks {
		errs = append(errs, t(ctx))
	}
	return errs
}

func (d *recordingDispatcher) submitted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}
