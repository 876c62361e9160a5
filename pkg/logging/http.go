package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zombar/slopscore/pkg/tracing"
)

// statusWriter records the status code and body size written by a handler
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// requestAttrs are the attributes every request log line carries
func requestAttrs(r *http.Request) []slog.Attr {
	ctx := r.Context()
	return []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("trace_id", tracing.TraceIDFromContext(ctx)),
		slog.String("span_id", tracing.SpanIDFromContext(ctx)),
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// HTTPLoggingMiddleware logs one structured line per request. Client errors
// log at warn and server errors at error. It must run inside the tracing
// middleware for trace_id and span_id to be filled.
func HTTPLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			attrs := append(requestAttrs(r),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", sw.status),
				slog.Int64("bytes", sw.bytes),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("protocol", r.Proto),
			)
			logger.LogAttrs(r.Context(), levelForStatus(sw.status), "http_request", attrs...)
		})
	}
}

// HTTPErrorLogger logs a failed request together with its cause
func HTTPErrorLogger(logger *slog.Logger, statusCode int, err error, r *http.Request) {
	attrs := append(requestAttrs(r),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("remote_addr", r.RemoteAddr),
	)
	logger.LogAttrs(r.Context(), slog.LevelError, "http_error", attrs...)
}

// LogRequest logs msg at info with the request attributes prepended to attrs
func LogRequest(logger *slog.Logger, r *http.Request, msg string, attrs ...slog.Attr) {
	logger.LogAttrs(r.Context(), slog.LevelInfo, msg, append(requestAttrs(r), attrs...)...)
}
