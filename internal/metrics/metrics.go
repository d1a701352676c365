// Package metrics holds the Prometheus collectors for a scrape run.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles collectors on a dedicated registry.
type Metrics struct {
	Registry           *prometheus.Registry
	PostingsScraped    *prometheus.CounterVec
	PostingsSkipped    *prometheus.CounterVec
	NavigationRetries  *prometheus.CounterVec
	BypassAttempts     *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	Classifications    *prometheus.CounterVec
	HistoryAppended    *prometheus.CounterVec
	TaskDuration       *prometheus.HistogramVec
	ReportedPostings   prometheus.Counter
	LastRunSuccessTime prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		PostingsScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_postings_scraped_total",
			Help: "Postings accepted by the gating policy, per site.",
		}, []string{"site"}),
		PostingsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_postings_skipped_total",
			Help: "Postings rejected before classification, per site and reason.",
		}, []string{"site", "reason"}),
		NavigationRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_navigation_retries_total",
			Help: "Page loads retried after a failure.",
		}, []string{"site"}),
		BypassAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_antibot_bypass_attempts_total",
			Help: "Anti-bot bypass attempts by result.",
		}, []string{"site", "result"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_errors_total",
			Help: "Scrape errors by type.",
		}, []string{"site", "error_type"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_classifications_total",
			Help: "Classifier outcomes.",
		}, []string{"outcome"}),
		HistoryAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscout_history_appended_total",
			Help: "Posting IDs appended to history, per site.",
		}, []string{"site"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobscout_task_duration_seconds",
			Help:    "Wall time of one task, scrape through history append.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		}, []string{"site"}),
		ReportedPostings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobscout_reported_postings_total",
			Help: "Postings written to reports.",
		}),
		LastRunSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobscout_last_run_success_timestamp_seconds",
			Help: "Unix time of the last run that finished without error.",
		}),
	}

	registry.MustRegister(
		m.PostingsScraped, m.PostingsSkipped, m.NavigationRetries, m.BypassAttempts,
		m.ErrorsTotal, m.Classifications, m.HistoryAppended, m.TaskDuration,
		m.ReportedPostings, m.LastRunSuccessTime,
	)
	return m
}

func (m *Metrics) IncScraped(site string) {
	if m == nil {
		return
	}
	m.PostingsScraped.WithLabelValues(site).Inc()
}

func (m *Metrics) IncSkipped(site, reason string) {
	if m == nil {
		return
	}
	m.PostingsSkipped.WithLabelValues(site, reason).Inc()
}

func (m *Metrics) IncNavigationRetry(site string) {
	if m == nil {
		return
	}
	m.NavigationRetries.WithLabelValues(site).Inc()
}

func (m *Metrics) IncBypass(site, result string) {
	if m == nil {
		return
	}
	m.BypassAttempts.WithLabelValues(site, result).Inc()
}

func (m *Metrics) IncError(site, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(site, errorType).Inc()
}

func (m *Metrics) IncClassification(outcome string) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddHistory(site string, n int) {
	if m == nil {
		return
	}
	m.HistoryAppended.WithLabelValues(site).Add(float64(n))
}

func (m *Metrics) ObserveTask(site string, d time.Duration) {
	if m == nil {
		return
	}
	m.TaskDuration.WithLabelValues(site).Observe(d.Seconds())
}

func (m *Metrics) AddReported(n int) {
	if m == nil {
		return
	}
	m.ReportedPostings.Add(float64(n))
}

func (m *Metrics) MarkRunSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.LastRunSuccessTime.Set(float64(t.Unix()))
}
