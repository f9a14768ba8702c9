// Package metrics exposes Prometheus counters for the check-in flow.
// Recording methods are safe on a nil *Metrics so tests can omit it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admissionfair"

// Check-in outcomes.
const (
	CheckInAdmitted  = "admitted"
	CheckInDuplicate = "duplicate"
	CheckInError     = "error"
)

// Letter sources.
const (
	LetterProvider = "provider"
	LetterFallback = "fallback"
)

// Email outcomes.
const (
	EmailSent            = "sent"
	EmailNotConfigured   = "not_configured"
	EmailAuthFailed      = "auth_failed"
	EmailTransportFailed = "transport_failed"
	EmailFailed          = "failed"
)

// Metrics holds the application collectors.
type Metrics struct {
	registry *prometheus.Registry
	checkIns *prometheus.CounterVec
	letters  *prometheus.CounterVec
	emails   *prometheus.CounterVec
	tasks    *prometheus.CounterVec
}

// New registers the application collectors on a fresh registry, plus Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		letters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "letters_total",
			Help:      "Welcome letters by source; a growing fallback share means the provider is failing.",
		}, []string{"source"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Welcome email delivery attempts by outcome.",
		}, []string{"outcome"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_tasks_total",
			Help:      "Background tasks by name and result.",
		}, []string{"task", "result"}),
	}
	reg.MustRegister(
		m.checkIns,
		m.letters,
		m.emails,
		m.tasks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// Known series start at zero so rate() works from the first scrape.
	for _, o := range []string{CheckInAdmitted, CheckInDuplicate, CheckInError} {
		m.checkIns.WithLabelValues(o)
	}
	for _, s := range []string{LetterProvider, LetterFallback} {
		m.letters.WithLabelValues(s)
	}
	for _, o := range []string{EmailSent, EmailNotConfigured, EmailAuthFailed, EmailTransportFailed, EmailFailed} {
		m.emails.WithLabelValues(o)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CheckIn records a check-in outcome.
func (m *Metrics) CheckIn(outcome string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(outcome).Inc()
}

// Letter records where a welcome letter came from.
func (m *Metrics) Letter(source string) {
	if m == nil {
		return
	}
	m.letters.WithLabelValues(source).Inc()
}

// Email records a delivery outcome.
func (m *Metrics) Email(outcome string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(outcome).Inc()
}

// Task records the result ("ok", "error", "panic", "dropped") of a background task.
func (m *Metrics) Task(name, result string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(name, result).Inc()
}
