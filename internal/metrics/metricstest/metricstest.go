// Package metricstest reads counter values back from a Metrics scrape in tests.
package metricstest

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"admissionfair/internal/metrics"
)

// Value returns the sample of series, written as it appears in the text
// exposition without the namespace, e.g. `checkins_total{outcome="admitted"}`.
// Label pairs are in name order. A series that was never exposed reads as zero.
func Value(t testing.TB, m *metrics.Metrics, series string) float64 {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("scrape metrics: status %d", rr.Code)
	}

	prefix := "admissionfair_" + series + " "
	sc := bufio.NewScanner(rr.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, prefix)), 64)
		if err != nil {
			t.Fatalf("parse sample %q: %v", line, err)
		}
		return v
	}
	return 0
}

func CheckIns(t testing.TB, m *metrics.Metrics, outcome string) float64 {
	t.Helper()
	return Value(t, m, `checkins_total{outcome="`+outcome+`"}`)
}

func Letters(t testing.TB, m *metrics.Metrics, source string) float64 {
	t.Helper()
	return Value(t, m, `letters_total{source="`+source+`"}`)
}

func Emails(t testing.TB, m *metrics.Metrics, outcome string) float64 {
	t.Helper()
	return Value(t, m, `emails_total{outcome="`+outcome+`"}`)
}

func Tasks(t testing.TB, m *metrics.Metrics, name, result string) float64 {
	t.Helper()
	return Value(t, m, `background_tasks_total{result="`+result+`",task="`+name+`"}`)
}
