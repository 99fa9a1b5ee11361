package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/metrics"
	"github.com/pixelgate/pixelgate/internal/observability"
)

// Recovery turns panics into a structured 500 response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				panicErr := errors.NewErrorEnvelope("INTERNAL_ERROR", fmt.Sprintf("panic: %v", rec)).
					WithCorrelationID(requestID)
				panicErr, _ = panicErr.WithSeverity(errors.SeverityCritical)

				if observability.ServerLogger != nil {
					observability.ServerLogger.Error("Recovered from panic",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.String("requestID", requestID),
						zap.String("stack_trace", string(debug.Stack())))
				}

				metrics.RecordPanic()
				writeErrorResponse(w, panicErr, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorResponse mirrors the body written by the errors package; it is
// duplicated here because that package imports this one.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeErrorResponse(w http.ResponseWriter, envelope *errors.ErrorEnvelope, statusCode int) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			RequestID: envelope.CorrelationID,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
