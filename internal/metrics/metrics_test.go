package metrics

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

func TestRecordAnalysis(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBusinessMetrics(reg)
	ctx := context.Background()

	m.RecordAnalysis(ctx, SourceSync, time.Now(), 42, 3, nil)
	m.RecordAnalysis(ctx, SourceSync, time.Now(), 10, 1, nil)
	m.RecordAnalysis(ctx, SourceQueue, time.Now(), 0, 0, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("success", SourceSync)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("error", SourceQueue)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ContrastMatches))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AnalysisDuration))
}

func TestRecordAnalysisNilReceiver(t *testing.T) {
	var m *BusinessMetrics
	assert.NotPanics(t, func() {
		m.RecordAnalysis(context.Background(), SourceSync, time.Now(), 1, 1, nil)
		m.RecordReload(nil)
	})
}

func TestRecordReload(t *testing.T) {
	m := NewBusinessMetrics(prometheus.NewRegistry())

	m.RecordReload(nil)
	m.RecordReload(errors.New("bad pack"))
	m.RecordReload(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResourceReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResourceReloads.WithLabelValues("error")))
}

func TestObserveDurationWithExemplar(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_seconds", Help: "test"})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	ObserveDurationWithExemplar(ctx, h, 250*time.Millisecond)
	ObserveDurationWithExemplar(context.Background(), h, time.Second)

	assert.Equal(t, 1, testutil.CollectAndCount(h))

	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	var pb dto.Metric
	require.NoError(t, (<-ch).Write(&pb))
	assert.Equal(t, uint64(2), pb.GetHistogram().GetSampleCount())
	assert.InDelta(t, 1.25, pb.GetHistogram().GetSampleSum(), 1e-9)
}

func TestHTTPMiddleware(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/analyses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := m.Middleware(mux)

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analyses/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET /api/analyses/{id}", http.MethodGet, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}

func TestUpdateDBStats(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Ping())

	m := NewDatabaseMetrics(prometheus.NewRegistry())
	m.UpdateDBStats(db)

	assert.Equal(t, float64(db.Stats().OpenConnections), testutil.ToFloat64(m.OpenConnections))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.OpenConnections), 1.0)
}

func TestDatabaseMetricsRunStopsOnCancel(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	m := NewDatabaseMetrics(prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, db, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg)
	assert.Panics(t, func() { NewHTTPMetrics(reg) })
}
