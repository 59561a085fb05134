package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the outreach bot
type Metrics struct {
	EmailsSentTotal      prometheus.Counter
	SendFailuresTotal    prometheus.Counter
	RemindersSentTotal   *prometheus.CounterVec
	AutoResolvedTotal    prometheus.Counter
	ResponsesTotal       *prometheus.CounterVec
	CampaignRunsTotal    prometheus.Counter
	ContactsPending      prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "outreach_emails_sent_total",
				Help: "Total number of initial campaign emails sent",
			},
		),
		SendFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "outreach_send_failures_total",
				Help: "Total number of failed send attempts",
			},
		),
		RemindersSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outreach_reminders_sent_total",
				Help: "Total number of reminder emails sent",
			},
			[]string{"ordinal"},
		),
		AutoResolvedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "outreach_contacts_auto_resolved_total",
				Help: "Total number of contacts auto-marked not_interested at the reminder cap",
			},
		),
		ResponsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outreach_responses_total",
				Help: "Total number of recipient responses by action",
			},
			[]string{"action"},
		),
		CampaignRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "outreach_campaign_runs_total",
				Help: "Total number of campaign runs",
			},
		),
		ContactsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "outreach_contacts_pending",
				Help: "Number of contacts currently pending",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.SendFailuresTotal,
		m.RemindersSentTotal,
		m.AutoResolvedTotal,
		m.ResponsesTotal,
		m.CampaignRunsTotal,
		m.ContactsPending,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncEmailsSent increments the sent counter
func IncEmailsSent() {
	if m := Global(); m != nil {
		m.EmailsSentTotal.Inc()
	}
}

// IncSendFailures increments the failure counter
func IncSendFailures() {
	if m := Global(); m != nil {
		m.SendFailuresTotal.Inc()
	}
}

// IncRemindersSent increments the reminder counter for an ordinal
func IncRemindersSent(ordinal int) {
	if m := Global(); m != nil {
		m.RemindersSentTotal.WithLabelValues(strconv.Itoa(ordinal)).Inc()
	}
}

// IncAutoResolved increments the auto-resolution counter
func IncAutoResolved() {
	if m := Global(); m != nil {
		m.AutoResolvedTotal.Inc()
	}
}

// IncResponses increments the response counter for an action
func IncResponses(action string) {
	if m := Global(); m != nil {
		m.ResponsesTotal.WithLabelValues(action).Inc()
	}
}

// IncCampaignRuns increments the campaign run counter
func IncCampaignRuns() {
	if m := Global(); m != nil {
		m.CampaignRunsTotal.Inc()
	}
}

// SetContactsPending sets the pending contacts gauge
func SetContactsPending(n int64) {
	if m := Global(); m != nil {
		m.ContactsPending.Set(float64(n))
	}
}
