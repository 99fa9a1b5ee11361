package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusTimeout   = "timeout"
)

// HealthResponse is the aggregate /health payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse is the payload for the kubernetes-style probes.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker is implemented by components that can report health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

// Probe names a health endpoint and its check budget.
type Probe struct {
	Name    string
	Timeout time.Duration
}

var (
	ProbeAggregate = Probe{Name: "aggregate", Timeout: 5 * time.Second}
	ProbeLive      = Probe{Name: "live", Timeout: 2 * time.Second}
	ProbeReady     = Probe{Name: "ready", Timeout: 5 * time.Second}
	ProbeStartup   = Probe{Name: "startup", Timeout: 3 * time.Second}
)

// HealthManager runs registered checkers for every probe.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	version  string
}

func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker adds or replaces the checker stored under name.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

// Run executes every checker in name order until ctx expires.
func (hm *HealthManager) Run(ctx context.Context) map[string]string {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			checks[name] = statusTimeout
			continue
		}
		hm.mu.RLock()
		checker := hm.checkers[name]
		hm.mu.RUnlock()
		if err := checker.CheckHealth(ctx); err != nil {
			checks[name] = statusUnhealthy
		} else {
			checks[name] = statusHealthy
		}
	}
	return checks
}

func overallStatus(checks map[string]string) string {
	status := statusHealthy
	for _, result := range checks {
		switch result {
		case statusUnhealthy:
			return statusUnhealthy
		case statusDegraded, statusTimeout:
			status = statusDegraded
		}
	}
	return status
}

// Handler returns the HTTP handler for probe.
func (hm *HealthManager) Handler(probe Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probe.Timeout)
		defer cancel()

		checks := hm.Run(ctx)
		status := overallStatus(checks)

		if status == statusUnhealthy {
			envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", probe.Name+" health check failed")
			respondWithError(w, r, enrichHealthEnvelope(envelope, probe.Name, status, checks))
			return
		}

		if probe == ProbeAggregate {
			writeJSON(w, http.StatusOK, HealthResponse{
				Status:    status,
				Version:   hm.version,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Checks:    checks,
			})
			return
		}
		writeJSON(w, http.StatusOK, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
	}
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probe, status string, checks map[string]string) *errors.ErrorEnvelope {
	details := map[string]interface{}{
		"status": status,
		"probe":  probe,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	envelope = envelope.WithDetails(details)

	var failing []string
	for name, result := range checks {
		if result != statusHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	contextData := map[string]interface{}{"status": status, "probe": probe}
	if len(failing) > 0 {
		contextData["unhealthy_checks"] = failing
	}
	envelope, _ = envelope.WithContext(contextData)
	return envelope
}
