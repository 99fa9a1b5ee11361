package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("tracker", CheckerFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	manager.Handler(ProbeAggregate)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("expected healthy status, got %s", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp.Version)
	}
	if resp.Checks["tracker"] != "healthy" {
		t.Fatalf("expected tracker check to be healthy, got %s", resp.Checks["tracker"])
	}
}

func TestProbeReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("generator", CheckerFunc(func(context.Context) error { return errors.New("no api key") }))

	rec := httptest.NewRecorder()
	manager.Handler(ProbeReady)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Fatalf("expected SERVICE_UNAVAILABLE error code, got %s", resp.Error.Code)
	}
	if resp.Error.Details["probe"] != "ready" {
		t.Fatalf("expected probe=ready in details, got %v", resp.Error.Details["probe"])
	}
	checks, ok := resp.Error.Details["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected checks in error details")
	}
	if checks["generator"] != "unhealthy" {
		t.Fatalf("expected generator check to be unhealthy, got %v", checks["generator"])
	}
}

func TestLivenessProbeUsesProbePayload(t *testing.T) {
	manager := NewHealthManager("dev")

	rec := httptest.NewRecorder()
	manager.Handler(ProbeLive)(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp ProbeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" || resp.Timestamp.IsZero() {
		t.Fatalf("unexpected probe response: %+v", resp)
	}
}

func TestRunMarksRemainingChecksAsTimeout(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("a-slow", CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	manager.RegisterChecker("b-never-run", CheckerFunc(func(context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	checks := manager.Run(ctx)
	if checks["b-never-run"] != "timeout" {
		t.Fatalf("expected timeout for unrun check, got %s", checks["b-never-run"])
	}
	if got := overallStatus(checks); got != "degraded" {
		t.Fatalf("expected degraded status, got %s", got)
	}
}
