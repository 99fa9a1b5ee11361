package observability

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

// DefaultMetricsPort is used when no port is configured or discoverable.
const DefaultMetricsPort = 9090

var (
	// TelemetrySystem is the global telemetry system
	TelemetrySystem *telemetry.System

	// PrometheusExporter is the prometheus metrics exporter
	PrometheusExporter *exporters.PrometheusExporter

	// metricsPort stores the port the Prometheus exporter is listening on
	metricsPort int
)

// InitMetrics starts the Prometheus exporter on port (0 picks a free port)
// and installs a telemetry system that emits to it. Metric names are
// prefixed with namespace, or serviceName when namespace is empty.
func InitMetrics(serviceName string, port int, namespace string) error {
	if port < 0 {
		port = 0
	}
	metricsPort = port

	metricNamespace := namespace
	if metricNamespace == "" {
		metricNamespace = serviceName
	}

	PrometheusExporter = exporters.NewPrometheusExporter(metricNamespace, fmt.Sprintf(":%d", port))
	if err := PrometheusExporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter: %w", err)
	}

	if actual, err := resolvePort(PrometheusExporter.GetAddr()); err == nil {
		metricsPort = actual
	} else if port == 0 {
		metricsPort = DefaultMetricsPort
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: PrometheusExporter,
	})
	if err != nil {
		return fmt.Errorf("create telemetry system: %w", err)
	}

	TelemetrySystem = sys
	return nil
}

// GetMetricsPort returns the port the Prometheus exporter is listening on
func GetMetricsPort() int {
	return metricsPort
}

func resolvePort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
