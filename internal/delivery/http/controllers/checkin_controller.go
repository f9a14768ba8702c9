package controllers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"admissionfair/internal/delivery/http/helpers"
	"admissionfair/internal/domain"
)

// Field limits match the attendees table columns.
const (
	MaxNameLength  = 100
	MaxEmailLength = 255
)

// emailRegex accepts dot-separated atoms on both sides of the @ and a letters-only
// top-level domain. Quoted local parts and IP literals are rejected.
var emailRegex = regexp.MustCompile(
	`^[a-zA-Z0-9_%+-]+(?:\.[a-zA-Z0-9_%+-]+)*` +
		`@(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// ExportFilename is the attachment name of GET /api/export.
const ExportFilename = "attendees.csv"

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.AttendeeService
}

func NewCheckInController(logger *slog.Logger, svc domain.AttendeeService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckInRequest is the body of POST /api/checkin.
type CheckInRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate implements helpers.Validator.
func (r *CheckInRequest) Validate() []string {
	var errs []string
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		errs = append(errs, "name is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs = append(errs, "name must be at most 100 characters")
	}
	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		errs = append(errs, "email is required")
	case len(email) > MaxEmailLength:
		errs = append(errs, "email must be at most 255 characters")
	case !emailRegex.MatchString(email):
		errs = append(errs, "email is not a valid address")
	}
	return errs
}

// AttendeeSuccessResponse is the success response envelope for POST /api/checkin.
type AttendeeSuccessResponse struct {
	Data  *domain.Attendee  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AttendeeListSuccessResponse is the success response envelope for GET /api/students.
type AttendeeListSuccessResponse struct {
	Data  []*domain.Attendee `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// DailyCountsSuccessResponse is the success response envelope for GET /api/analytics.
type DailyCountsSuccessResponse struct {
	Data  []domain.DailyCount `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// CheckIn godoc
// @Summary Check in an attendee
// @Description Admits a visitor to the fair. Generates a welcome letter (with a fixed fallback when the provider is unavailable) and queues a welcome email. An email can check in only once.
// @Tags checkin
// @Accept json
// @Produce json
// @Param body body controllers.CheckInRequest true "Attendee name and email"
// @Success 201 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_email"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/checkin [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	attendee, err := c.Service.CheckIn(r.Context(), req.Name, req.Email)
	if err != nil {
		msg := "failed to check in"
		if errors.Is(err, domain.ErrDuplicateEmail) {
			msg = "this email has already checked in"
		}
		helpers.WriteServiceError(w, r, c.Logger, err, msg)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, attendee)
}

// List godoc
// @Summary List attendees
// @Description Returns every checked-in attendee, most recent first.
// @Tags checkin
// @Produce json
// @Success 200 {object} controllers.AttendeeListSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/students [get]
func (c *CheckInController) List(w http.ResponseWriter, r *http.Request) {
	attendees, err := c.Service.List(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err, "failed to list attendees")
		return
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

// Analytics godoc
// @Summary Check-ins per day
// @Description Returns the number of check-ins per calendar date, oldest first. Dates without check-ins are omitted.
// @Tags analytics
// @Produce json
// @Success 200 {object} controllers.DailyCountsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/analytics [get]
func (c *CheckInController) Analytics(w http.ResponseWriter, r *http.Request) {
	counts, err := c.Service.DailyCounts(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err, "failed to compute analytics")
		return
	}
	if counts == nil {
		counts = []domain.DailyCount{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, counts)
}

// Export godoc
// @Summary Export attendees as CSV
// @Description Downloads every attendee as a CSV file with the header ID,Name,Email,Check-in Time.
// @Tags export
// @Produce text/csv
// @Success 200 {file} file "attendees.csv"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/export [get]
func (c *CheckInController) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := c.Service.ExportCSV(r.Context(), &buf); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err, "failed to export attendees")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
