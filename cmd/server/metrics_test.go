package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := newServerMetrics(reg)

	// Touch the vector metrics so they are exported
	m.business.RecordAnalysis(context.Background(), "sync", time.Now(), 12, 1, nil)
	m.business.RecordReload(nil)
	m.http.RequestsTotal.WithLabelValues("GET /health", "GET", "200").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/plain") {
		t.Errorf("Expected content-type to contain 'text/plain', got '%s'", contentType)
	}

	body := w.Body.String()
	expectedMetrics := []string{
		"go_goroutines",
		"slopscore_analyses_total",
		"slopscore_analysis_duration_seconds",
		"slopscore_slop_score",
		"slopscore_contrast_matches_total",
		"slopscore_resource_reloads_total",
		"slopscore_http_requests_total",
		"slopscore_db_open_connections",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metrics to contain '%s'", metric)
		}
	}
}

func TestServerMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	newServerMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	newServerMetrics(reg)
}
