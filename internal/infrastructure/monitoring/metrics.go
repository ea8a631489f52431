package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/deskshell/deskshell/internal/shared/types"
)

// Metrics holds all Prometheus metrics for the shell. Every Record method
// accepts a nil receiver so components can run unmetered in tests.
type Metrics struct {
	// HTTP metrics (diagnostics server)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bridge dispatch metrics
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	ResolutionMisses prometheus.Counter

	// Connection metrics
	TransitionsTotal  *prometheus.CounterVec
	ConnectionUp      prometheus.Gauge
	ReconnectAttempts prometheus.Gauge
	HeartbeatsTotal   *prometheus.CounterVec
	ErrorReports      prometheus.Counter

	// Lifecycle queue metrics
	LifecycleEnqueued  *prometheus.CounterVec
	LifecycleDelivered prometheus.Counter
	LifecycleDropped   prometheus.Counter
	LifecycleRequeued  prometheus.Counter
	QueueDepth         prometheus.Gauge

	// Window metrics
	WindowsOpen  prometheus.Gauge
	WindowEvents *prometheus.CounterVec

	// System metrics
	UptimeGauge prometheus.Gauge
	startTime   time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_http_requests_total",
				Help: "Total number of diagnostics HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_http_request_duration_seconds",
				Help:    "Diagnostics HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		DispatchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_bridge_dispatch_total",
				Help: "Total number of bridge dispatches by outcome",
			},
			[]string{"operation", "outcome"},
		),
		DispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_bridge_dispatch_duration_seconds",
				Help:    "Bridge dispatch duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"operation"},
		),
		ResolutionMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_bridge_resolution_misses_total",
				Help: "Calls where no binding or invoker could be resolved",
			},
		),

		TransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_connection_transitions_total",
				Help: "Accepted connection state transitions by target state",
			},
			[]string{"state"},
		),
		ConnectionUp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_connection_up",
				Help: "Whether the bridge is currently connected (1/0)",
			},
		),
		ReconnectAttempts: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_connection_reconnect_attempts",
				Help: "Reconnect attempts since the last successful recovery",
			},
		),
		HeartbeatsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_connection_heartbeats_total",
				Help: "Heartbeat probes by result",
			},
			[]string{"result"},
		),
		ErrorReports: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_connection_error_reports_total",
				Help: "Frontend error reports forwarded to the backend",
			},
		),

		LifecycleEnqueued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_lifecycle_enqueued_total",
				Help: "Lifecycle payloads accepted by the queue",
			},
			[]string{"event"},
		),
		LifecycleDelivered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_lifecycle_delivered_total",
				Help: "Lifecycle payloads handed to the resolver",
			},
		),
		LifecycleDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_lifecycle_dropped_total",
				Help: "Lifecycle payloads evicted by the capacity bound",
			},
		),
		LifecycleRequeued: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_lifecycle_requeued_total",
				Help: "Lifecycle payloads re-enqueued after a failed resolve",
			},
		),
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_lifecycle_queue_depth",
				Help: "Lifecycle payloads currently waiting for delivery",
			},
		),

		WindowsOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_windows_open",
				Help: "Windows currently tracked by the registry",
			},
		),
		WindowEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_window_events_total",
				Help: "Window lifecycle events emitted by the registry",
			},
			[]string{"event"},
		),

		UptimeGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_uptime_seconds",
				Help: "Shell uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.UptimeGauge.Set(time.Since(m.startTime).Seconds())
	}
}

// Uptime returns the time since the collector was created
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}

// RecordHTTPRequest records a diagnostics HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDispatch records one bridge dispatch outcome
func (m *Metrics) RecordDispatch(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(operation, outcome).Inc()
	m.DispatchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordResolutionMiss records a call that found no binding and no invoker
func (m *Metrics) RecordResolutionMiss() {
	if m == nil {
		return
	}
	m.ResolutionMisses.Inc()
}

// RecordTransition records an accepted state transition
func (m *Metrics) RecordTransition(state types.ConnectionState) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(string(state)).Inc()
	if state.Online() {
		m.ConnectionUp.Set(1)
	} else {
		m.ConnectionUp.Set(0)
	}
}

// SetReconnectAttempts mirrors the monitor's attempt counter
func (m *Metrics) SetReconnectAttempts(n int) {
	if m == nil {
		return
	}
	m.ReconnectAttempts.Set(float64(n))
}

// RecordHeartbeat records one probe tick
func (m *Metrics) RecordHeartbeat(reachable bool) {
	if m == nil {
		return
	}
	result := "reachable"
	if !reachable {
		result = "unreachable"
	}
	m.HeartbeatsTotal.WithLabelValues(result).Inc()
}

// RecordErrorReport records a forwarded frontend error
func (m *Metrics) RecordErrorReport() {
	if m == nil {
		return
	}
	m.ErrorReports.Inc()
}

// RecordEnqueue records a payload admitted to the queue
func (m *Metrics) RecordEnqueue(event types.LifecycleEvent) {
	if m == nil {
		return
	}
	m.LifecycleEnqueued.WithLabelValues(string(event)).Inc()
}

// RecordDelivered adds delivered payloads after a flush
func (m *Metrics) RecordDelivered(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LifecycleDelivered.Add(float64(n))
}

// RecordDropped adds payloads evicted at capacity
func (m *Metrics) RecordDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LifecycleDropped.Add(float64(n))
}

// RecordRequeued adds payloads kept for the next flush cycle
func (m *Metrics) RecordRequeued(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LifecycleRequeued.Add(float64(n))
}

// SetQueueDepth mirrors the queue's current depth
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// SetWindowsOpen mirrors the registry's record count
func (m *Metrics) SetWindowsOpen(n int) {
	if m == nil {
		return
	}
	m.WindowsOpen.Set(float64(n))
}

// RecordWindowEvent records an emitted window lifecycle event
func (m *Metrics) RecordWindowEvent(event types.LifecycleEvent) {
	if m == nil {
		return
	}
	m.WindowEvents.WithLabelValues(string(event)).Inc()
}
