package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry           *prometheus.Registry
	sessionsStarted    prometheus.Counter
	sessionsCompleted  prometheus.Counter
	validationFailures prometheus.Counter
	surveysSaved       prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quest",
			Name:      "sessions_started_total",
			Help:      "Respondent sessions started",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quest",
			Name:      "sessions_completed_total",
			Help:      "Respondent sessions completed and submitted",
		}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quest",
			Name:      "validation_failures_total",
			Help:      "Advance attempts blocked by unanswered or invalid questions",
		}),
		surveysSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quest",
			Name:      "surveys_saved_total",
			Help:      "Survey documents written by the admin API",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.sessionsStarted,
		m.sessionsCompleted,
		m.validationFailures,
		m.surveysSaved,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
