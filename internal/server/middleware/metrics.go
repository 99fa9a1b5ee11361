package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/observability"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// getEndpointPattern returns the chi route pattern, or a fixed bucket for
// unrouted paths to keep label cardinality low.
func getEndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	switch path := r.URL.Path; path {
	case "/health", "/health/live", "/health/ready", "/health/startup":
		return "/health/*"
	case "/version", "/metrics", "/v1/images", "/v1/quota", "/":
		return path
	default:
		return "/unknown"
	}
}

// RequestMetrics emits request counters and durations and logs each request.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)
		status := strconv.Itoa(wrapped.statusCode)

		if sys := observability.TelemetrySystem; sys != nil {
			labels := map[string]string{
				"method":   r.Method,
				"endpoint": endpoint,
				"status":   status,
			}
			_ = sys.Counter("http_requests_total", 1, labels)
			_ = sys.Histogram("http_request_duration_ms", duration, labels)
			_ = sys.Gauge("http_response_size_bytes", float64(wrapped.bytesWritten), map[string]string{
				"method":   r.Method,
				"endpoint": endpoint,
			})

			if wrapped.statusCode >= 400 {
				errorType := "client_error"
				if wrapped.statusCode >= 500 {
					errorType = "server_error"
				}
				_ = sys.Counter("http_errors_total", 1, map[string]string{
					"method":     r.Method,
					"endpoint":   endpoint,
					"status":     status,
					"error_type": errorType,
				})
			}
		}

		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("response_size", wrapped.bytesWritten),
				zap.String("requestID", GetRequestID(r.Context())),
			)
		}
	})
}
