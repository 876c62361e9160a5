package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Task type constants
const (
	TypeAnalyzeDocument = "slopscore:analyze_document"
)

// QueueAnalysis is the queue analysis tasks are placed on
const QueueAnalysis = "analysis"

// AnalyzeDocumentPayload represents the payload for a queued analysis
type AnalyzeDocumentPayload struct {
	AnalysisID string `json:"analysis_id"`
	File       string `json:"file,omitempty"`
	Text       string `json:"text"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
	}

	return &Client{
		client: asynq.NewClient(redisOpt),
	}
}

// NewAnalyzeDocumentTask builds the task and options for analysing one
// document. The span context of ctx, if any, is carried in the payload so the
// worker can continue the trace.
func NewAnalyzeDocumentTask(ctx context.Context, analysisID, file, text string) (*asynq.Task, []asynq.Option, error) {
	payload := AnalyzeDocumentPayload{
		AnalysisID: analysisID,
		File:       file,
		Text:       text,
		EnqueuedAt: time.Now().UnixNano(),
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeAnalyzeDocument),
			attribute.String("task.id", analysisID),
			attribute.String("analysis_id", analysisID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAnalyzeDocument, payloadBytes, asynq.TaskID(analysisID))

	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(10 * time.Minute), // tagger round trips dominate
		asynq.Queue(QueueAnalysis),
		asynq.Retention(7 * 24 * time.Hour), // Keep completed tasks for 7 days
	}

	return task, opts, nil
}

// EnqueueAnalyzeDocument enqueues a document analysis task and returns the
// task ID
func (c *Client) EnqueueAnalyzeDocument(ctx context.Context, analysisID, file, text string) (string, error) {
	task, opts, err := NewAnalyzeDocumentTask(ctx, analysisID, file, text)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue analyze document task: %w", err)
	}

	return info.ID, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
