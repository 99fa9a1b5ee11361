package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/pixelgate/pixelgate/internal/errors"
	"github.com/pixelgate/pixelgate/internal/observability"
)

var metricsProxyClient = &http.Client{
	Timeout: 5 * time.Second,
}

var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// MetricsHandler serves the Prometheus exporter's output on the main port.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("Metrics exporter not initialized"))
		return
	}

	port := observability.GetMetricsPort()
	if port == 0 {
		port = observability.DefaultMetricsPort
	}
	metricsURL := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, metricsURL, nil)
	if err != nil {
		HandleError(w, r, apperrors.WrapInternal(r.Context(), err, "Unable to construct metrics request"))
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(req)
	if err != nil {
		HandleError(w, r, apperrors.WrapExternalService(r.Context(), err, "Prometheus exporter unavailable"))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for key, values := range resp.Header {
		if _, skip := hopByHopHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if resp.Header.Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Failed to write metrics response", zap.Error(err))
	}
}
