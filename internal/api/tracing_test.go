package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

// TestAnalyzeTracing tests that the analyze handler creates proper tracing spans
func TestAnalyzeTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	env := setupTestHandler(t)

	reqBody := `{"text":"This is not just a tool, but a revolution. We delve into the tapestry of ideas.","save":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	ctx, span := tp.Tracer("test").Start(context.Background(), "test-request")
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	env.handler.handleAnalyze(w, req)
	span.End()

	tp.ForceFlush(context.Background())
	spans := exporter.GetSpans()

	if len(spans) == 0 {
		t.Fatal("No spans were recorded")
	}

	analyzeSpan := findSpan(spans, "analysis.analyze_text")
	if analyzeSpan == nil {
		t.Error("analysis.analyze_text span not found")
		t.Logf("Available spans: %v", getSpanNames(spans))
	} else {
		for _, key := range []string{"analysis.id", "text.length", "analysis.slop_score"} {
			if !hasAttribute(analyzeSpan, key) {
				t.Errorf("%s attribute not found on analysis.analyze_text span", key)
			}
		}
		if analyzeSpan.Parent.SpanID() != span.SpanContext().SpanID() {
			t.Error("analysis.analyze_text is not a child of the request span")
		}
	}

	saveSpan := findSpan(spans, "database.save_analysis")
	if saveSpan == nil {
		t.Error("database.save_analysis span not found")
	} else if !hasAttribute(saveSpan, "analysis.id") {
		t.Error("analysis.id attribute not found on database.save_analysis span")
	}

	// Request-level attributes land on the caller's span
	requestSpan := findSpan(spans, "test-request")
	if requestSpan == nil || !hasAttribute(requestSpan, "analysis.save") {
		t.Error("analysis.save attribute not set on the request span")
	}

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func findSpan(spans tracetest.SpanStubs, name string) *tracetest.SpanStub {
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

func hasAttribute(span *tracetest.SpanStub, key string) bool {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return true
		}
	}
	return false
}

// getSpanNames returns a list of span names for debugging
func getSpanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, len(spans))
	for i, span := range spans {
		names[i] = span.Name
	}
	return names
}
