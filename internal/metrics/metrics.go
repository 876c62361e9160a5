// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Namespace prefixes every metric name
const Namespace = "slopscore"

// Analysis sources used as the "source" label
const (
	SourceSync  = "sync"
	SourceQueue = "queue"
)

// BusinessMetrics tracks analysis outcomes and resource reloads
type BusinessMetrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	SlopScore        prometheus.Histogram
	ContrastMatches  prometheus.Counter
	QueueWait        prometheus.Histogram
	ResourceReloads  *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers the analysis collectors
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	m := &BusinessMetrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "analyses_total",
			Help:      "Number of analyses by outcome and source.",
		}, []string{"status", "source"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent scoring a document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"source"}),
		SlopScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "slop_score",
			Help:      "Distribution of composite slop scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		ContrastMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "contrast_matches_total",
			Help:      "Number of contrast constructions detected.",
		}),
		QueueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "queue_wait_seconds",
			Help:      "Time between enqueue and the start of processing.",
			Buckets:   prometheus.DefBuckets,
		}),
		ResourceReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resource_reloads_total",
			Help:      "Number of resource reload attempts by outcome.",
		}, []string{"status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AnalysesTotal,
			m.AnalysisDuration,
			m.SlopScore,
			m.ContrastMatches,
			m.QueueWait,
			m.ResourceReloads,
		)
	}
	return m
}

// RecordAnalysis records the outcome of one scored document
func (m *BusinessMetrics) RecordAnalysis(ctx context.Context, source string, start time.Time, score float64, contrastMatches int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.AnalysesTotal.WithLabelValues(status, source).Inc()
	ObserveDurationWithExemplar(ctx, m.AnalysisDuration.WithLabelValues(source), time.Since(start))
	if err != nil {
		return
	}
	m.SlopScore.Observe(score)
	m.ContrastMatches.Add(float64(contrastMatches))
}

// RecordReload counts a resource reload attempt
func (m *BusinessMetrics) RecordReload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ResourceReloads.WithLabelValues("error").Inc()
		return
	}
	m.ResourceReloads.WithLabelValues("success").Inc()
}

// ObserveDurationWithExemplar observes d in seconds, attaching the trace ID
// from ctx as an exemplar when one is present
func ObserveDurationWithExemplar(ctx context.Context, obs prometheus.Observer, d time.Duration) {
	sc := trace.SpanContextFromContext(ctx)
	if eo, ok := obs.(prometheus.ExemplarObserver); ok && sc.HasTraceID() {
		eo.ObserveWithExemplar(d.Seconds(), prometheus.Labels{"trace_id": sc.TraceID().String()})
		return
	}
	obs.Observe(d.Seconds())
}

// HTTPMetrics tracks request counts and latencies
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers the HTTP collectors
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	}
	return m
}

// DatabaseMetrics exposes sql.DBStats as gauges
type DatabaseMetrics struct {
	OpenConnections prometheus.Gauge
	InUse           prometheus.Gauge
	Idle            prometheus.Gauge
	WaitCount       prometheus.Gauge
	WaitDuration    prometheus.Gauge
}

// NewDatabaseMetrics creates and registers the connection pool gauges
func NewDatabaseMetrics(reg prometheus.Registerer) *DatabaseMetrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		})
	}
	m := &DatabaseMetrics{
		OpenConnections: gauge("open_connections", "Established connections."),
		InUse:           gauge("in_use_connections", "Connections currently in use."),
		Idle:            gauge("idle_connections", "Idle connections."),
		WaitCount:       gauge("wait_count", "Total number of connections waited for."),
		WaitDuration:    gauge("wait_duration_seconds", "Total time blocked waiting for a connection."),
	}
	if reg != nil {
		reg.MustRegister(m.OpenConnections, m.InUse, m.Idle, m.WaitCount, m.WaitDuration)
	}
	return m
}

// UpdateDBStats copies the current pool statistics into the gauges
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.OpenConnections.Set(float64(stats.OpenConnections))
	m.InUse.Set(float64(stats.InUse))
	m.Idle.Set(float64(stats.Idle))
	m.WaitCount.Set(float64(stats.WaitCount))
	m.WaitDuration.Set(stats.WaitDuration.Seconds())
}

// Run updates the gauges every interval until ctx is done
func (m *DatabaseMetrics) Run(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.UpdateDBStats(db)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.UpdateDBStats(db)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latencies, labelled by the
// ServeMux pattern that handled the request
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		ObserveDurationWithExemplar(r.Context(), m.RequestDuration.WithLabelValues(route, r.Method), time.Since(start))
	})
}
