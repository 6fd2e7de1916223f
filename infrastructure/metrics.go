package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	boardsCreated prometheus.Counter
	jobsPosted    prometheus.Counter
	notifications *prometheus.CounterVec
	challenges    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	tokensPurged  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		boardsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_boards_created_total",
			Help: "Job boards created.",
		}),
		jobsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_jobs_posted_total",
			Help: "Jobs posted across all boards.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_notifications_total",
			Help: "Notification delivery attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_challenge_verifications_total",
			Help: "Bot challenge verifications by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobboard_tokens_purged_total",
			Help: "Expired magic-link tokens cleared by the janitor.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.boardsCreated,
		m.jobsPosted,
		m.notifications,
		m.challenges,
		m.httpRequests,
		m.tokensPurged,
	)
	return m
}

func (m *Metrics) BoardCreated() {
	if m != nil {
		m.boardsCreated.Inc()
	}
}

func (m *Metrics) JobPosted() {
	if m != nil {
		m.jobsPosted.Inc()
	}
}

func (m *Metrics) Notification(provider, outcome string) {
	if m != nil {
		m.notifications.WithLabelValues(provider, outcome).Inc()
	}
}

func (m *Metrics) Challenge(outcome string) {
	if m != nil {
		m.challenges.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) HTTPRequest(method, route, status string) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, route, status).Inc()
	}
}

func (m *Metrics) TokensPurged(n int64) {
	if m != nil && n > 0 {
		m.tokensPurged.Add(float64(n))
	}
}
