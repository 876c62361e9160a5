package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TestTraceContextPropagation follows a trace from the enqueueing request
// span through to the worker's consumer span
func TestTraceContextPropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	w, db := newTestWorker(t)
	saveQueued(t, db, "job-trace", "It’s not a bug. It’s a feature.")

	ctx, parent := tp.Tracer("test").Start(context.Background(), "api.create_job",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	task, _, err := NewAnalyzeDocumentTask(ctx, "job-trace", "", "It’s not a bug. It’s a feature.")
	require.NoError(t, err)
	parent.End()

	var payload AnalyzeDocumentPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, parent.SpanContext().TraceID().String(), payload.TraceID)
	assert.Equal(t, parent.SpanContext().SpanID().String(), payload.SpanID)

	// The worker runs with a fresh context, as asynq would provide
	require.NoError(t, w.handleAnalyzeDocument(context.Background(), task))
	require.NoError(t, tp.ForceFlush(context.Background()))

	var consumer, enqueue *tracetest.SpanStub
	spans := exporter.GetSpans()
	for i := range spans {
		switch spans[i].Name {
		case "asynq.task.analyze_document":
			consumer = &spans[i]
		case "api.create_job":
			enqueue = &spans[i]
		}
	}
	require.NotNil(t, consumer, "consumer span not recorded")
	require.NotNil(t, enqueue, "enqueue span not recorded")

	assert.Equal(t, trace.SpanKindConsumer, consumer.SpanKind)
	assert.Equal(t, enqueue.SpanContext.TraceID(), consumer.SpanContext.TraceID())
	assert.Equal(t, enqueue.SpanContext.SpanID(), consumer.Parent.SpanID())
	assert.True(t, consumer.Parent.IsRemote())

	var sawEnqueued bool
	for _, ev := range enqueue.Events {
		if ev.Name == "task_enqueued" {
			sawEnqueued = true
		}
	}
	assert.True(t, sawEnqueued, "task_enqueued event missing on enqueue span")

	var sawStarted bool
	for _, ev := range consumer.Events {
		if ev.Name == "task_processing_started" {
			sawStarted = true
		}
	}
	assert.True(t, sawStarted, "task_processing_started event missing on consumer span")

	attrs := map[string]bool{}
	for _, kv := range consumer.Attributes {
		attrs[string(kv.Key)] = true
	}
	for _, key := range []string{"task.type", "analysis.id", "text.length", "analysis.slop_score"} {
		assert.True(t, attrs[key], "missing attribute %s", key)
	}
}

// TestTraceWithoutPayloadContext starts a new root trace when the payload
// carries no span context
func TestTraceWithoutPayloadContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	w, db := newTestWorker(t)
	saveQueued(t, db, "job-root", "Plain words here.")

	task, _, err := NewAnalyzeDocumentTask(context.Background(), "job-root", "", "Plain words here.")
	require.NoError(t, err)
	require.NoError(t, w.handleAnalyzeDocument(context.Background(), task))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Parent.IsValid())
}
