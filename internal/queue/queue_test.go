package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/slopscore/internal/analyzer/analyzertest"
	"github.com/zombar/slopscore/internal/database"
	"github.com/zombar/slopscore/internal/metrics"
	"github.com/zombar/slopscore/internal/models"
)

func newTestWorker(t *testing.T) (*Worker, *database.DB) {
	t.Helper()
	db := database.NewTestDB(t)
	engine, _ := analyzertest.NewEngine(t)
	return &Worker{
		db:              db,
		engine:          engine,
		logger:          slog.Default(),
		businessMetrics: metrics.NewBusinessMetrics(prometheus.NewRegistry()),
	}, db
}

func saveQueued(t *testing.T, db *database.DB, id, text string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.SaveAnalysis(context.Background(), &models.Analysis{
		ID:        id,
		File:      id + ".txt",
		Text:      text,
		Status:    models.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestNewAnalyzeDocumentTask(t *testing.T) {
	task, opts, err := NewAnalyzeDocumentTask(context.Background(), "job-1", "essay.md", "We delve.")
	require.NoError(t, err)

	assert.Equal(t, TypeAnalyzeDocument, task.Type())
	assert.NotEmpty(t, opts)

	var payload AnalyzeDocumentPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "job-1", payload.AnalysisID)
	assert.Equal(t, "essay.md", payload.File)
	assert.Equal(t, "We delve.", payload.Text)
	assert.Empty(t, payload.TraceID)
	assert.Empty(t, payload.SpanID)
	assert.InDelta(t, time.Now().UnixNano(), payload.EnqueuedAt, float64(time.Minute))
}

func TestHandleAnalyzeDocument(t *testing.T) {
	w, db := newTestWorker(t)
	text := "We delve into the tapestry. This is not just good, but great."
	saveQueued(t, db, "job-1", text)

	task, _, err := NewAnalyzeDocumentTask(context.Background(), "job-1", "job-1.txt", text)
	require.NoError(t, err)
	require.NoError(t, w.handleAnalyzeDocument(context.Background(), task))

	got, err := db.GetAnalysis(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "job-1.txt", got.Result.File)
	assert.Greater(t, got.Result.TotalWords, 0)
	assert.Greater(t, got.Result.SlopScore, 0.0)
	assert.Len(t, got.Result.ContrastMatches, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(w.businessMetrics.AnalysesTotal.WithLabelValues("success", metrics.SourceQueue)))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.businessMetrics.ContrastMatches))
}

func TestHandleAnalyzeDocumentSkipsRetry(t *testing.T) {
	w, _ := newTestWorker(t)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"invalid json", []byte("{not json")},
		{"missing analysis id", []byte(`{"text":"hello"}`)},
		{"unknown analysis", []byte(`{"analysis_id":"ghost","text":"hello there"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.handleAnalyzeDocument(context.Background(), asynq.NewTask(TypeAnalyzeDocument, tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestHandleAnalyzeDocumentClosedDatabase(t *testing.T) {
	w, db := newTestWorker(t)
	saveQueued(t, db, "job-2", "Some text.")
	require.NoError(t, db.Close())

	task, _, err := NewAnalyzeDocumentTask(context.Background(), "job-2", "", "Some text.")
	require.NoError(t, err)

	err = w.handleAnalyzeDocument(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 1.0, testutil.ToFloat64(w.businessMetrics.AnalysesTotal.WithLabelValues("error", metrics.SourceQueue)))
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("i/o timeout"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"wrapped busy", fmt.Errorf("failed to complete analysis: %w", errors.New("database is locked")), true},
		{"constraint violation", errors.New("UNIQUE constraint failed: analyses.id"), false},
		{"closed database", errors.New("sql: database is closed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetriableError(tt.err); got != tt.expected {
				t.Errorf("isRetriableError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	task := asynq.NewTask(TypeAnalyzeDocument, nil)

	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, 10 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{4, 15 * time.Minute},
		{20, 15 * time.Minute},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry, errors.New("x"), task); got != tt.expected {
			t.Errorf("retryDelay(%d) = %v, expected %v", tt.retry, got, tt.expected)
		}
	}
}
