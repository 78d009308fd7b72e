package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// several desktops (or tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Process metrics
	ProcessesOpen prometheus.Gauge
	Operations    *prometheus.CounterVec

	// Session metrics
	SessionLoads         *prometheus.CounterVec
	SessionWrites        *prometheus.CounterVec
	SessionWriteDuration prometheus.Histogram

	// Storage metrics
	BreakerTransitions *prometheus.CounterVec

	// Directory metrics
	DirectoryApps prometheus.Gauge

	// Automation metrics
	AutomationSessions  prometheus.Gauge
	AutomationEvictions prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ProcessesOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_processes_open",
				Help: "Number of processes in the live table",
			},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_process_operations_total",
				Help: "Process lifecycle operations by outcome",
			},
			[]string{"operation", "outcome"},
		),

		SessionLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_session_loads_total",
				Help: "Session loads by outcome",
			},
			[]string{"outcome"},
		),
		SessionWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_session_writes_total",
				Help: "Session snapshot writes by status",
			},
			[]string{"status"},
		),
		SessionWriteDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "desktop_session_write_duration_seconds",
				Help:    "Session snapshot write duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_storage_breaker_transitions_total",
				Help: "Storage circuit breaker state transitions",
			},
			[]string{"state"},
		),

		DirectoryApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_directory_apps",
				Help: "Number of applications in the directory",
			},
		),

		AutomationSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_automation_sessions",
				Help: "Number of live automation sessions",
			},
		),
		AutomationEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_automation_evictions_total",
				Help: "Automation sessions closed for inactivity",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "desktop_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// All recorders below are safe to call on a nil *Metrics, so components can
// run without metrics wired in.

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOperation counts a process lifecycle operation
func (m *Metrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// SetProcessesOpen sets the live table size
func (m *Metrics) SetProcessesOpen(count int) {
	if m == nil {
		return
	}
	m.ProcessesOpen.Set(float64(count))
}

// RecordSessionLoad counts a session load outcome
func (m *Metrics) RecordSessionLoad(outcome string) {
	if m == nil {
		return
	}
	m.SessionLoads.WithLabelValues(outcome).Inc()
}

// RecordSessionWrite records one snapshot write
func (m *Metrics) RecordSessionWrite(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SessionWrites.WithLabelValues(status).Inc()
	m.SessionWriteDuration.Observe(duration.Seconds())
}

// RecordBreakerTransition counts a storage breaker state change
func (m *Metrics) RecordBreakerTransition(state string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(state).Inc()
}

// SetDirectoryApps sets the number of known applications
func (m *Metrics) SetDirectoryApps(count int) {
	if m == nil {
		return
	}
	m.DirectoryApps.Set(float64(count))
}

// SetAutomationSessions sets the number of live automation sessions
func (m *Metrics) SetAutomationSessions(count int) {
	if m == nil {
		return
	}
	m.AutomationSessions.Set(float64(count))
}

// IncAutomationEvictions counts an idle eviction
func (m *Metrics) IncAutomationEvictions() {
	if m == nil {
		return
	}
	m.AutomationEvictions.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
