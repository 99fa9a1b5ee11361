package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestID header key
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds caller-supplied IDs echoed into logs and headers.
const maxRequestIDLength = 128

// requestIDContextKey is a custom type to avoid context key collisions
type requestIDContextKey string

const RequestIDContextKey requestIDContextKey = "request_id"

// RequestID middleware assigns each request an ID, reusing chi's or the
// caller's when present, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = sanitizeRequestID(r.Header.Get(RequestIDHeader))
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves request ID from context, checking our key then chi's.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return requestID
	}
	return middleware.GetReqID(ctx)
}

func sanitizeRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxRequestIDLength {
		raw = raw[:maxRequestIDLength]
	}
	for _, r := range raw {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return raw
}
