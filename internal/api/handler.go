package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/slopscore/internal/analyzer"
	"github.com/zombar/slopscore/internal/database"
	"github.com/zombar/slopscore/internal/metrics"
	"github.com/zombar/slopscore/internal/models"
	"github.com/zombar/slopscore/pkg/logging"
	"github.com/zombar/slopscore/pkg/tracing"
)

const (
	// maxBodyBytes bounds request bodies for analysis endpoints
	maxBodyBytes = 10 << 20

	requestTimeout = 30 * time.Second

	defaultPageSize = 10
	maxPageSize     = 100
)

func tracer() trace.Tracer {
	return otel.Tracer("slopscore/api")
}

// Enqueuer places a document on the analysis queue
type Enqueuer interface {
	EnqueueAnalyzeDocument(ctx context.Context, analysisID, file, text string) (string, error)
}

// Config wires the handler's dependencies
type Config struct {
	DB     *database.DB
	Engine *analyzer.Engine
	// Queue may be nil, in which case POST /api/jobs answers 503
	Queue Enqueuer
	// Paths is the source for POST /api/reload
	Paths          analyzer.Paths
	Metrics        *metrics.BusinessMetrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Handler handles HTTP requests
type Handler struct {
	db             *database.DB
	engine         *analyzer.Engine
	queue          Enqueuer
	paths          analyzer.Paths
	metrics        *metrics.BusinessMetrics
	metricsHandler http.Handler
	logger         *slog.Logger
	mux            *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics
func NewHandler(cfg Config) http.Handler {
	h := newHandler(cfg)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

func newHandler(cfg Config) *Handler {
	h := &Handler{
		db:             cfg.DB,
		engine:         cfg.Engine,
		queue:          cfg.Queue,
		paths:          cfg.Paths,
		metrics:        cfg.Metrics,
		metricsHandler: cfg.MetricsHandler,
		logger:         cfg.Logger,
		mux:            http.NewServeMux(),
	}
	if h.metricsHandler == nil {
		h.metricsHandler = promhttp.Handler()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.setupRoutes()
	return h
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("GET /metrics", h.metricsHandler)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("POST /api/jobs", h.handleCreateJob)
	h.mux.HandleFunc("GET /api/jobs/{id}", h.handleJobStatus)
	h.mux.HandleFunc("GET /api/analyses", h.handleListAnalyses)
	h.mux.HandleFunc("GET /api/analyses/{id}", h.handleGetAnalysis)
	h.mux.HandleFunc("DELETE /api/analyses/{id}", h.handleDeleteAnalysis)
	h.mux.HandleFunc("POST /api/reload", h.handleReload)
}

// handleHealth reports whether the database answers
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondJSON(w, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
			"time":   time.Now().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}

type analyzeRequest struct {
	File string `json:"file,omitempty"`
	Text string `json:"text"`
	Save bool   `json:"save,omitempty"`
}

// decodeAnalyzeRequest reads the request body. Empty text is accepted only
// when allowEmpty is set; it scores as the all-zero result.
func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request, allowEmpty bool) (analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return req, false
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Text == "" && !allowEmpty {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// handleAnalyze scores a document synchronously, optionally persisting it
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r, true)
	if !ok {
		return
	}

	analysisID := ""
	if req.Save {
		analysisID = uuid.NewString()
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("text.length", utf8.RuneCountInString(req.Text)),
		attribute.Bool("analysis.save", req.Save),
	)

	start := time.Now()
	ctx, span := tracer().Start(r.Context(), "analysis.analyze_text")
	span.SetAttributes(
		attribute.String("analysis.id", analysisID),
		attribute.Int("text.length", utf8.RuneCountInString(req.Text)),
	)
	result := h.engine.Analyze(ctx, req.File, req.Text)
	span.SetAttributes(
		attribute.Float64("analysis.slop_score", result.SlopScore),
		attribute.Int("analysis.total_words", result.TotalWords),
	)
	span.End()

	if !req.Save {
		h.metrics.RecordAnalysis(r.Context(), metrics.SourceSync, start, result.SlopScore, len(result.ContrastMatches), nil)
		respondJSON(w, result, http.StatusOK)
		return
	}

	result.ID = analysisID
	now := time.Now()
	analysis := &models.Analysis{
		ID:        analysisID,
		File:      req.File,
		Text:      req.Text,
		Status:    models.StatusCompleted,
		Result:    &result,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, saveSpan := tracer().Start(r.Context(), "database.save_analysis")
	saveSpan.SetAttributes(attribute.String("analysis.id", analysisID))
	err := h.db.SaveAnalysis(ctx, analysis)
	if err != nil {
		saveSpan.RecordError(err)
		saveSpan.SetStatus(codes.Error, err.Error())
	}
	saveSpan.End()

	h.metrics.RecordAnalysis(r.Context(), metrics.SourceSync, start, result.SlopScore, len(result.ContrastMatches), err)
	if err != nil {
		h.serverError(w, r, "Failed to save analysis", err)
		return
	}

	respondJSON(w, result, http.StatusCreated)
}

// handleCreateJob stores a queued analysis row and enqueues it
func (h *Handler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		respondError(w, "Job queue is not configured", http.StatusServiceUnavailable)
		return
	}

	req, ok := decodeAnalyzeRequest(w, r, false)
	if !ok {
		return
	}

	analysisID := uuid.NewString()
	tracing.SetSpanAttributes(r.Context(),
		attribute.String("analysis.id", analysisID),
		attribute.Int("text.length", utf8.RuneCountInString(req.Text)),
	)

	ctx := r.Context()
	now := time.Now()
	pending := &models.Analysis{
		ID:        analysisID,
		File:      req.File,
		Text:      req.Text,
		Status:    models.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.db.SaveAnalysis(ctx, pending); err != nil {
		h.serverError(w, r, "Failed to store job", err)
		return
	}

	taskID, err := h.queue.EnqueueAnalyzeDocument(ctx, analysisID, req.File, req.Text)
	if err != nil {
		if ferr := h.db.FailAnalysis(ctx, analysisID, err.Error()); ferr != nil {
			h.logger.Error("failed to mark job failed", "analysis_id", analysisID, "error", ferr)
		}
		h.serverError(w, r, "Failed to enqueue analysis", err)
		return
	}

	respondJSON(w, map[string]interface{}{
		"job_id":  analysisID,
		"task_id": taskID,
		"status":  models.StatusQueued,
		"message": "Analysis queued for processing",
	}, http.StatusAccepted)
}

// handleJobStatus reports the state of a queued analysis
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	analysis, err := h.db.GetAnalysis(ctx, jobID)
	if errors.Is(err, database.ErrNotFound) {
		respondJSON(w, map[string]interface{}{
			"job_id":  jobID,
			"status":  "not_found",
			"message": "No job with this ID",
		}, http.StatusNotFound)
		return
	}
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	response := map[string]interface{}{
		"job_id":     jobID,
		"status":     analysis.Status,
		"created_at": analysis.CreatedAt,
		"updated_at": analysis.UpdatedAt,
	}
	if analysis.Error != "" {
		response["error"] = analysis.Error
	}
	if analysis.Status == models.StatusCompleted {
		response["analysis"] = analysis.Result
	}

	respondJSON(w, response, http.StatusOK)
}

// handleListAnalyses handles listing analyses with pagination
func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, maxPageSize)
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	analyses, err := h.db.ListAnalyses(ctx, limit, offset)
	if err != nil {
		h.storageError(w, r, err)
		return
	}
	total, err := h.db.CountAnalyses(ctx)
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	respondJSON(w, map[string]interface{}{
		"analyses": analyses,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	}, http.StatusOK)
}

// handleGetAnalysis retrieves a specific analysis
func (h *Handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	analysis, err := h.db.GetAnalysis(ctx, r.PathValue("id"))
	if err != nil {
		h.storageError(w, r, err)
		return
	}
	respondJSON(w, analysis, http.StatusOK)
}

// handleDeleteAnalysis deletes a specific analysis
func (h *Handler) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.db.DeleteAnalysis(ctx, r.PathValue("id")); err != nil {
		h.storageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReload reloads the data files and swaps them into the engine. On
// failure the engine keeps serving the previous data.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Reload(r.Context(), h.paths)
	h.metrics.RecordReload(err)
	if err != nil {
		h.serverError(w, r, "Failed to reload resources", err)
		return
	}

	res := h.engine.Resources()
	logging.LogRequest(h.logger, r, "resources reloaded",
		slog.Int("frequency_words", res.WordFreq.Len()),
		slog.Int("lexicon_words", res.Lexicon.WordCount()),
		slog.Int("lexicon_trigrams", res.Lexicon.TrigramCount()),
	)

	respondJSON(w, map[string]interface{}{
		"status":           "reloaded",
		"frequency_words":  res.WordFreq.Len(),
		"lexicon_words":    res.Lexicon.WordCount(),
		"lexicon_trigrams": res.Lexicon.TrigramCount(),
	}, http.StatusOK)
}

// storageError maps database errors to responses
func (h *Handler) storageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	default:
		h.serverError(w, r, "Database error", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
	respondError(w, fmt.Sprintf("%s: %v", message, err), http.StatusInternalServerError)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, map[string]string{
		"error": message,
	}, statusCode)
}
