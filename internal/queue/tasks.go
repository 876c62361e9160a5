package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/slopscore/internal/database"
	"github.com/zombar/slopscore/internal/metrics"
)

// handleAnalyzeDocument scores a queued document and stores the result on
// its analysis row
func (w *Worker) handleAnalyzeDocument(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzeDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.AnalysisID == "" {
		return fmt.Errorf("task payload has no analysis id: %w", asynq.SkipRetry)
	}

	analysisID := payload.AnalysisID

	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		queueWaitTime = time.Since(time.Unix(0, payload.EnqueuedAt))
		if w.businessMetrics != nil {
			w.businessMetrics.QueueWait.Observe(queueWaitTime.Seconds())
		}
	}

	retryCount, _ := asynq.GetRetryCount(ctx)

	w.logger.Info("processing queued analysis",
		"analysis_id", analysisID,
		"file", payload.File,
		"text_length", len(payload.Text),
		"queue_wait_seconds", queueWaitTime.Seconds(),
		"retry_count", retryCount,
	)

	ctx, span := startTaskSpan(ctx, payload, queueWaitTime)
	defer span.End()

	start := time.Now()
	result := w.engine.Analyze(ctx, payload.File, payload.Text)
	result.ID = analysisID

	span.SetAttributes(
		attribute.Float64("analysis.slop_score", result.SlopScore),
		attribute.Int("analysis.total_words", result.TotalWords),
		attribute.Int("analysis.contrast_matches", len(result.ContrastMatches)),
	)

	err := w.db.CompleteAnalysis(ctx, analysisID, &result)
	w.businessMetrics.RecordAnalysis(ctx, metrics.SourceQueue, start, result.SlopScore, len(result.ContrastMatches), err)
	if err == nil {
		w.logger.Info("queued analysis completed",
			"analysis_id", analysisID,
			"slop_score", result.SlopScore,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, database.ErrNotFound) {
		w.logger.Warn("analysis row disappeared before completion", "analysis_id", analysisID)
		return fmt.Errorf("analysis %s not found: %w", analysisID, asynq.SkipRetry)
	}

	if isRetriableError(err) {
		w.logger.Warn("retriable error, will retry",
			"analysis_id", analysisID,
			"error", err,
			"retry_count", retryCount,
		)
		return err
	}

	w.logger.Error("permanent error storing analysis",
		"analysis_id", analysisID,
		"error", err,
	)
	if ferr := w.db.FailAnalysis(ctx, analysisID, err.Error()); ferr != nil {
		w.logger.Error("failed to mark analysis failed", "analysis_id", analysisID, "error", ferr)
	}
	return fmt.Errorf("failed to store analysis: %v: %w", err, asynq.SkipRetry)
}

// startTaskSpan starts the consumer span, parented on the trace recorded in
// the payload when there is one
func startTaskSpan(ctx context.Context, payload AnalyzeDocumentPayload, queueWait time.Duration) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("task.type", TypeAnalyzeDocument),
		attribute.String("analysis.id", payload.AnalysisID),
		attribute.Int("text.length", utf8.RuneCountInString(payload.Text)),
		attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
		attribute.Int64("enqueued_at", payload.EnqueuedAt),
	}

	if payload.TraceID != "" && payload.SpanID != "" {
		traceID, terr := trace.TraceIDFromHex(payload.TraceID)
		spanID, serr := trace.SpanIDFromHex(payload.SpanID)
		if terr == nil && serr == nil {
			remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     spanID,
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			})
			ctx = trace.ContextWithRemoteSpanContext(ctx, remoteSpanCtx)
		}
	}

	ctx, span := otel.Tracer("slopscore").Start(ctx, "asynq.task.analyze_document",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...),
	)
	span.AddEvent("task_processing_started", trace.WithAttributes(
		attribute.Float64("wait_time_seconds", queueWait.Seconds()),
	))
	return ctx, span
}

// isRetriableError reports whether err is transient (connection, timeout or
// lock contention) rather than permanent
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retriablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"bad gateway",
		"too many requests",
		"context deadline exceeded",
		"context canceled",
		"no such host",
		"network is unreachable",
		"database is locked",
		"sqlite_busy",
	}

	for _, pattern := range retriablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
