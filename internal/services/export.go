package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"admissionfair/internal/domain"
)

// ExportTimeLayout is the check-in time format used in exports. Times are written in UTC.
const ExportTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// ExportHeader is the first row of every export.
var ExportHeader = []string{"ID", "Name", "Email", "Check-in Time"}

func (s *attendeeService) ExportCSV(ctx context.Context, w io.Writer) error {
	attendees, err := s.List(ctx)
	if err != nil {
		return err
	}
	return WriteAttendeesCSV(w, attendees)
}

// WriteAttendeesCSV writes the header and one row per attendee, in the given order.
func WriteAttendeesCSV(w io.Writer, attendees []*domain.Attendee) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range attendees {
		row := []string{
			strconv.FormatInt(a.ID, 10),
			a.Name,
			a.Email,
			a.CheckInTime.UTC().Format(ExportTimeLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for attendee %d: %w", a.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
