package metrics

import (
	"time"

	"github.com/pixelgate/pixelgate/internal/observability"
)

// Application-level metric names following Prometheus conventions
const (
	AdmissionDecisionsTotal     = "admission_decisions_total"
	AdmissionTrackedIdentifiers = "admission_tracked_identifiers"
	AdmissionLastSweepEvicted   = "admission_last_sweep_evicted"

	ImageGenerationsTotal     = "image_generations_total"
	ImageGenerationDurationMs = "image_generation_duration_ms"

	ServerStartTime = "app_server_start_time_seconds"
)

// RecordAdmission records one admission decision.
func RecordAdmission(limited bool) {
	decision := "admitted"
	if limited {
		decision = "rejected"
	}

	count(AdmissionDecisionsTotal, map[string]string{"decision": decision})
}

// SetTrackedIdentifiers reports how many identifiers the tracker holds.
func SetTrackedIdentifiers(n int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			AdmissionTrackedIdentifiers,
			float64(n),
			nil,
		)
	}
}

// RecordSweep reports identifiers removed by the latest sweep.
func RecordSweep(evicted int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			AdmissionLastSweepEvicted,
			float64(evicted),
			nil,
		)
	}
}

// RecordGeneration records a downstream image generation attempt.
func RecordGeneration(provider, status string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		ImageGenerationsTotal,
		1,
		map[string]string{
			"provider": provider,
			"status":   status,
		},
	)

	_ = observability.TelemetrySystem.Histogram(
		ImageGenerationDurationMs,
		duration,
		map[string]string{"provider": provider},
	)
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
