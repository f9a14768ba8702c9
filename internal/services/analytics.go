package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"admissionfair/internal/domain"
)

const dateLayout = "2006-01-02"

func (s *attendeeService) DailyCounts(ctx context.Context) ([]domain.DailyCount, error) {
	attendees, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return BucketByDay(attendees, s.location), nil
}

// BucketByDay counts attendees per calendar date of CheckInTime in loc.
// Dates are returned in ascending order; dates without check-ins are omitted.
func BucketByDay(attendees []*domain.Attendee, loc *time.Location) []domain.DailyCount {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[string]int)
	for _, a := range attendees {
		counts[a.CheckInTime.In(loc).Format(dateLayout)]++
	}

	out := make([]domain.DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, domain.DailyCount{Date: date, Count: n})
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
