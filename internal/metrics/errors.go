package metrics

import (
	"strconv"

	"github.com/pixelgate/pixelgate/internal/observability"
)

const (
	ErrorsTotalName      = "errors_total"
	PanicsTotalName      = "panics_total"
	ErrorsByEndpointName = "errors_by_endpoint"
)

func count(name string, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, 1, labels)
	}
}

// RecordError counts an error response. Admission rejections land here too,
// as error_code=RATE_LIMITED http_status=429.
func RecordError(errorCode string, httpStatus int) {
	count(ErrorsTotalName, map[string]string{
		"error_code":  errorCode,
		"http_status": strconv.Itoa(httpStatus),
	})
}

func RecordPanic() {
	count(PanicsTotalName, nil)
}

func RecordErrorByEndpoint(endpoint string, errorCode string) {
	count(ErrorsByEndpointName, map[string]string{
		"endpoint":   endpoint,
		"error_code": errorCode,
	})
}
