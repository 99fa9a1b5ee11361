package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pixelgate/pixelgate/internal/metrics"
	"github.com/pixelgate/pixelgate/internal/observability"
	"github.com/pixelgate/pixelgate/internal/server/middleware"
)

// Error codes used across the service.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeConfigInvalid      = "CONFIG_INVALID"
)

// User Errors (400-level)
func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewUnauthorizedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeUnauthorized, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

// NewRateLimitedError reports an admission rejection. Rejections are logged
// at info level since no severity is attached.
func NewRateLimitedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeRateLimited, message)
}

// Server Errors (500-level)
func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

func NewExternalServiceError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeExternalService, message)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeServiceUnavailable, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

// Wrap functions attach the request correlation ID and the wrapped error text.

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInvalidInput, err, message)
}

func WrapUnauthorized(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeUnauthorized, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInternal, err, message)
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeExternalService, err, message)
}

func WrapTimeout(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeTimeout, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, err, message)
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	correlationID := extractCorrelationID(ctx)
	envelope = envelope.WithCorrelationID(correlationID)
	envelope = envelope.WithTraceID(correlationID)
	return withWrappedError(envelope, err)
}

// extractCorrelationID gets correlation ID from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	env := errors.NewErrorEnvelope(CodeInternal, "unexpected error")
	env, _ = env.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}

	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}

	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}

// ResponseDetails merges envelope details and context into an API-safe map.
// Details win over context on key collisions.
func ResponseDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	if envelope == nil {
		return nil
	}

	details := make(map[string]interface{})
	for key, value := range envelope.Details {
		details[key] = value
	}
	for key, value := range envelope.Context {
		if _, exists := details[key]; !exists {
			details[key] = value
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   ResponseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}

	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}

	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}

	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}

	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}
}
