package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissionfair/internal/delivery/http/helpers"
	"admissionfair/internal/domain"
)

type mockAttendeeService struct {
	attendee  *domain.Attendee
	attendees []*domain.Attendee
	counts    []domain.DailyCount
	csv       string
	err       error

	gotName  string
	gotEmail string
}

func (m *mockAttendeeService) CheckIn(ctx context.Context, name, email string) (*domain.Attendee, error) {
	m.gotName, m.gotEmail = name, email
	if m.err != nil {
		return nil, m.err
	}
	return m.attendee, nil
}

func (m *mockAttendeeService) List(ctx context.Context) ([]*domain.Attendee, error) {
	return m.attendees, m.err
}

func (m *mockAttendeeService) DailyCounts(ctx context.Context) ([]domain.DailyCount, error) {
	return m.counts, m.err
}

func (m *mockAttendeeService) ExportCSV(ctx context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.csv)
	return err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeResponse(t *testing.T, body []byte) helpers.APIResponse {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestCheckInRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CheckInRequest
		wantErr string
	}{
		{"valid", CheckInRequest{Name: "Alice", Email: "alice@example.edu"}, ""},
		{"missing name", CheckInRequest{Name: "  ", Email: "alice@example.edu"}, "name is required"},
		{"long name", CheckInRequest{Name: strings.Repeat("a", 101), Email: "alice@example.edu"}, "name must be at most 100 characters"},
		{"100 multibyte runes", CheckInRequest{Name: strings.Repeat("王", 100), Email: "wang@example.edu"}, ""},
		{"missing email", CheckInRequest{Name: "Alice"}, "email is required"},
		{"bad email", CheckInRequest{Name: "Alice", Email: "alice.example.edu"}, "email is not a valid address"},
		{"plus and subdomain", CheckInRequest{Name: "Alice", Email: "alice.w+fair@mail.example.edu"}, ""},
		{"comma in local part", CheckInRequest{Name: "Alice", Email: "a,b@x.edu"}, "email is not a valid address"},
		{"angle brackets", CheckInRequest{Name: "Alice", Email: "<a>@x.edu"}, "email is not a valid address"},
		{"quote in local part", CheckInRequest{Name: "Alice", Email: `a"b@x.edu`}, "email is not a valid address"},
		{"double dot in domain", CheckInRequest{Name: "Alice", Email: "x@y..z"}, "email is not a valid address"},
		{"double dot before tld", CheckInRequest{Name: "Alice", Email: "x@y..edu"}, "email is not a valid address"},
		{"leading dot in local part", CheckInRequest{Name: "Alice", Email: ".alice@x.edu"}, "email is not a valid address"},
		{"hyphen label edge", CheckInRequest{Name: "Alice", Email: "alice@-x.edu"}, "email is not a valid address"},
		{"single letter tld", CheckInRequest{Name: "Alice", Email: "alice@x.y"}, "email is not a valid address"},
		{"long email", CheckInRequest{Name: "Alice", Email: strings.Repeat("a", 250) + "@x.edu"}, "email must be at most 255 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.wantErr)
		})
	}
}

func TestCheckInController_CheckIn(t *testing.T) {
	created := &domain.Attendee{
		ID:          7,
		Name:        "Alice",
		Email:       "alice@example.edu",
		CheckInTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Letter:      "Welcome!",
	}

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"created", `{"name":"Alice","email":"Alice@Example.edu"}`, nil, http.StatusCreated, ""},
		{"invalid body", `{"name":"Alice"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"malformed json", `{`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"duplicate", `{"name":"Alice","email":"alice@example.edu"}`, fmt.Errorf("check in: %w", domain.ErrDuplicateEmail), http.StatusConflict, helpers.ErrCodeDuplicateEmail},
		{"store failure", `{"name":"Alice","email":"alice@example.edu"}`, errors.New("db down"), http.StatusInternalServerError, helpers.ErrCodeInternalError},
		{"rejected by service", `{"name":"Alice","email":"alice@example.edu"}`, fmt.Errorf("%w: name is required", domain.ErrInvalidInput), http.StatusBadRequest, helpers.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAttendeeService{attendee: created, err: tt.svcErr}
			ctrl := NewCheckInController(testLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/checkin", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			ctrl.CheckIn(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				resp := decodeResponse(t, w.Body.Bytes())
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.Nil(t, resp.Data)
				return
			}

			var resp AttendeeSuccessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Nil(t, resp.Error)
			assert.Equal(t, created.ID, resp.Data.ID)
			assert.Equal(t, "Welcome!", resp.Data.Letter)
			assert.Equal(t, "Alice@Example.edu", svc.gotEmail)
		})
	}
}

func TestCheckInController_List(t *testing.T) {
	svc := &mockAttendeeService{attendees: []*domain.Attendee{
		{ID: 2, Name: "Bob", Email: "bob@example.edu"},
		{ID: 1, Name: "Alice", Email: "alice@example.edu"},
	}}
	ctrl := NewCheckInController(testLogger(), svc)

	w := httptest.NewRecorder()
	ctrl.List(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp AttendeeListSuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(2), resp.Data[0].ID)
}

func TestCheckInController_ListEmpty(t *testing.T) {
	ctrl := NewCheckInController(testLogger(), &mockAttendeeService{})

	w := httptest.NewRecorder()
	ctrl.List(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"error":null}`, w.Body.String())
}

func TestCheckInController_Analytics(t *testing.T) {
	svc := &mockAttendeeService{counts: []domain.DailyCount{{Date: "2026-03-01", Count: 2}, {Date: "2026-03-03", Count: 1}}}
	ctrl := NewCheckInController(testLogger(), svc)

	w := httptest.NewRecorder()
	ctrl.Analytics(w, httptest.NewRequest(http.MethodGet, "/api/analytics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"date":"2026-03-01","count":2},{"date":"2026-03-03","count":1}],"error":null}`, w.Body.String())
}

func TestCheckInController_Export(t *testing.T) {
	svc := &mockAttendeeService{csv: "ID,Name,Email,Check-in Time\n"}
	ctrl := NewCheckInController(testLogger(), svc)

	w := httptest.NewRecorder()
	ctrl.Export(w, httptest.NewRequest(http.MethodGet, "/api/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=attendees.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Name,Email,Check-in Time\n", w.Body.String())
}

func TestCheckInController_ReadFailures(t *testing.T) {
	svc := &mockAttendeeService{err: errors.New("db down")}
	ctrl := NewCheckInController(testLogger(), svc)

	handlers := map[string]http.HandlerFunc{
		"list":      ctrl.List,
		"analytics": ctrl.Analytics,
		"export":    ctrl.Export,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusInternalServerError, w.Code)
			resp := decodeResponse(t, w.Body.Bytes())
			require.NotNil(t, resp.Error)
			assert.Equal(t, helpers.ErrCodeInternalError, resp.Error.Code)
			assert.NotContains(t, w.Header().Get("Content-Disposition"), "attachment")
		})
	}
}
