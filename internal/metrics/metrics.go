// Package metrics holds the Prometheus collectors for repository calls, connection health and status requests.
package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates Prometheus instrumentation. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	opDuration      *prometheus.HistogramVec
	opTotal         *prometheus.CounterVec
	connectionUp    prometheus.Gauge
	events          *prometheus.CounterVec
	adminDuration   *prometheus.HistogramVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repository_operation_duration_seconds",
		Help:    "Duration of repository operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"repository", "operation"})

	opTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repository_operations_total",
		Help: "Total repository operations by outcome",
	}, []string{"repository", "operation", "outcome"})

	connectionUp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "database_connection_up",
		Help: "1 when the last connection check succeeded",
	})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "database_events_total",
		Help: "Connection manager events by kind and result",
	}, []string{"kind", "success"})

	adminDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "database_admin_duration_seconds",
		Help:    "Duration of schema initialization, reset and demo data loads",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"action"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of status server requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(opDuration, opTotal, connectionUp, events, adminDuration, requestDuration, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		opDuration:      opDuration,
		opTotal:         opTotal,
		connectionUp:    connectionUp,
		events:          events,
		adminDuration:   adminDuration,
		requestDuration: requestDuration,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveOperation records one repository call. outcome is "ok" or an error code.
func (m *Metrics) ObserveOperation(repository, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.opDuration.WithLabelValues(repository, operation).Observe(duration.Seconds())
	m.opTotal.WithLabelValues(repository, operation, outcome).Inc()
}

// SetConnectionUp mirrors the connection status.
func (m *Metrics) SetConnectionUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connectionUp.Set(1)
		return
	}
	m.connectionUp.Set(0)
}

// RecordEvent counts an emitted connection manager event.
func (m *Metrics) RecordEvent(kind string, success bool) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, fmt.Sprintf("%t", success)).Inc()
}

// ObserveAdmin records how long an administrative action took.
func (m *Metrics) ObserveAdmin(action string, duration time.Duration) {
	if m == nil {
		return
	}
	m.adminDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// ObserveHTTPRequest records status server request timing.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}
