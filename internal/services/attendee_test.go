package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissionfair/internal/domain"
	"admissionfair/internal/metrics"
	"admissionfair/internal/metrics/metricstest"
	"admissionfair/internal/worker"
)

type attendeeFixture struct {
	repo       *fakeAttendeeRepo
	letters    *fakeLetters
	emails     *fakeEmailService
	dispatcher *recordingDispatcher
	metrics    *metrics.Metrics
	svc        domain.AttendeeService
}

func newAttendeeFixture() *attendeeFixture {
	f := &attendeeFixture{
		repo:       newFakeAttendeeRepo(),
		letters:    &fakeLetters{},
		emails:     &fakeEmailService{result: true},
		dispatcher: &recordingDispatcher{},
		metrics:    metrics.New(),
	}
	f.svc = NewAttendeeService(AttendeeServiceDeps{
		Repo:       f.repo,
		Letters:    f.letters,
		Emails:     f.emails,
		Dispatcher: f.dispatcher,
		Program: ProgramInfo{
			Name:         "ABC Department",
			ApplyURL:     "https://example.edu/apply",
			WebsiteURL:   "https://example.edu",
			ContactEmail: "admissions@example.edu",
		},
		Logger:  discardLogger(),
		Metrics: f.metrics,
	})
	return f
}

func TestAttendeeService_CheckIn_Success(t *testing.T) {
	f := newAttendeeFixture()
	ctx := context.Background()

	a, err := f.svc.CheckIn(ctx, "  Alice ", " Alice@Example.EDU ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "Alice", a.Name)
	assert.Equal(t, "alice@example.edu", a.Email)
	assert.Equal(t, "Welcome aboard, Alice", a.Letter)
	assert.False(t, a.CheckInTime.IsZero())
	assert.Equal(t, 1.0, metricstest.CheckIns(t, f.metrics, metrics.CheckInAdmitted))

	require.Equal(t, 1, f.dispatcher.submitted())
	assert.Equal(t, []string{"welcome_email"}, f.dispatcher.names)
	assert.Equal(t, 0, f.emails.sentCount(), "email must not be sent inline")

	errs := f.dispatcher.runAll(ctx)
	require.Len(t, errs, 1)
	require.NoError(t, errs[0])
	require.Equal(t, 1, f.emails.sentCount())
	sent := f.emails.sent[0]
	assert.Equal(t, "alice@example.edu", sent.Email)
	assert.Equal(t, "Alice", sent.Name)
	assert.Equal(t, a.Letter, sent.Letter)
	assert.Equal(t, "ABC Department", sent.ProgramName)
	assert.Equal(t, "https://example.edu/apply", sent.ApplyURL)
	assert.Equal(t, a.CheckInTime.Year(), sent.Year)
}

func TestAttendeeService_CheckIn_DuplicateRejectedWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"same email", "alice@example.edu", "alice@example.edu"},
		{"different case and spacing", "alice@example.edu", "  ALICE@example.edu"},
		{"reverse order", "ALICE@EXAMPLE.EDU", "alice@example.edu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendeeFixture()
			ctx := context.Background()

			_, err := f.svc.CheckIn(ctx, "Alice", tt.first)
			require.NoError(t, err)

			a, err := f.svc.CheckIn(ctx, "Alice2", tt.second)
			require.ErrorIs(t, err, domain.ErrDuplicateEmail)
			assert.Nil(t, a)

			assert.Equal(t, 1, f.repo.count())
			assert.Equal(t, 1, f.letters.callCount(), "no letter for a rejected check-in")
			assert.Equal(t, 1, f.dispatcher.submitted(), "no email for a rejected check-in")
			assert.Equal(t, 1.0, metricstest.CheckIns(t, f.metrics, metrics.CheckInDuplicate))
		})
	}
}

func TestAttendeeService_CheckIn_RejectsBlankInput(t *testing.T) {
	tests := []struct {
		name  string
		input [2]string
	}{
		{"blank name", [2]string{"   ", "alice@example.edu"}},
		{"blank email", [2]string{"Alice", " \t "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendeeFixture()

			a, err := f.svc.CheckIn(context.Background(), tt.input[0], tt.input[1])
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, a)
			assert.Equal(t, 0, f.repo.count())
			assert.Equal(t, 0, f.letters.callCount())
			assert.Equal(t, 0, f.dispatcher.submitted())
		})
	}
}

func TestAttendeeService_CheckIn_DuplicateAtCreatePropagates(t *testing.T) {
	f := newAttendeeFixture()
	f.repo.createErr = domain.ErrDuplicateEmail

	a, err := f.svc.CheckIn(context.Background(), "Bob", "bob@example.edu")
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Nil(t, a)
	assert.Equal(t, 0, f.dispatcher.submitted())
}

func TestAttendeeService_CheckIn_ConcurrentSameEmailAdmitsOnce(t *testing.T) {
	f := newAttendeeFixture()
	// Every request passes the lookup before any of them writes.
	const n = 16
	var ready sync.WaitGroup
	ready.Add(n)
	release := make(chan struct{})
	var once sync.Once
	f.repo.afterFind = func() {
		ready.Done()
		once.Do(func() {
			go func() {
				ready.Wait()
				close(release)
			}()
		})
		<-release
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.CheckIn(context.Background(), "Carol", "carol@example.edu")
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
	assert.Equal(t, 1, f.repo.count())
	assert.Equal(t, 1, f.dispatcher.submitted())
}

func TestAttendeeService_CheckIn_LookupErrorIsNotDuplicate(t *testing.T) {
	f := newAttendeeFixture()
	f.repo.findErr = errors.New("connection reset")

	_, err := f.svc.CheckIn(context.Background(), "Dan", "dan@example.edu")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "find attendee by email")
	assert.Equal(t, 0, f.letters.callCount())
	assert.Equal(t, 1.0, metricstest.CheckIns(t, f.metrics, metrics.CheckInError))
}

func TestAttendeeService_CheckIn_CreateErrorIsWrapped(t *testing.T) {
	f := newAttendeeFixture()
	f.repo.createErr = errors.New("disk full")

	_, err := f.svc.CheckIn(context.Background(), "Dan", "dan@example.edu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create attendee")
	assert.Equal(t, 0, f.dispatcher.submitted())
}

func TestAttendeeService_CheckIn_DispatchFailureDoesNotFailCheckIn(t *testing.T) {
	f := newAttendeeFixture()
	f.dispatcher.err = worker.ErrQueueFull

	a, err := f.svc.CheckIn(context.Background(), "Erin", "erin@example.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, 1, f.repo.count())
}

func TestAttendeeService_CheckIn_DeliveryFailureDoesNotFailCheckIn(t *testing.T) {
	f := newAttendeeFixture()
	f.emails.result = false

	a, err := f.svc.CheckIn(context.Background(), "Finn", "finn@example.edu")
	require.NoError(t, err)
	require.NotNil(t, a)

	errs := f.dispatcher.runAll(context.Background())
	require.Len(t, errs, 1)
	assert.Error(t, errs[0], "the task reports the failure to the pool")
	assert.Equal(t, 1, f.repo.count())
}

func TestAttendeeService_CheckIn_DoesNotWaitForSlowDelivery(t *testing.T) {
	repo := newFakeAttendeeRepo()
	emails := &fakeEmailService{result: false, delay: 2 * time.Second}
	pool := worker.NewPool(discardLogger(), nil, 1, 4, 5*time.Second)
	go func() { _ = pool.Run(context.Background()) }()
	defer pool.Close()

	svc := NewAttendeeService(AttendeeServiceDeps{
		Repo:       repo,
		Letters:    &fakeLetters{},
		Emails:     emails,
		Dispatcher: pool,
		Logger:     discardLogger(),
	})

	start := time.Now()
	a, err := svc.CheckIn(context.Background(), "Gus", "gus@example.edu")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAttendeeService_List(t *testing.T) {
	f := newAttendeeFixture()
	ctx := context.Background()

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, email := range []string{"a@example.edu", "b@example.edu", "c@example.edu"} {
		_, err := f.svc.CheckIn(ctx, "N", email)
		require.NoError(t, err)
	}
	list, err = f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c@example.edu", list[0].Email)
	assert.Equal(t, "a@example.edu", list[2].Email)

	f.repo.listErr = errors.New("db down")
	_, err = f.svc.List(ctx)
	require.Error(t, err)
}
