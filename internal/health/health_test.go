package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpstreamCheckerHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("probed %s, want /health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewUpstreamChecker("event-service", server.URL)
	if err := checker.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v, want nil", err)
	}
}

func TestUpstreamCheckerUnhealthyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker := NewUpstreamChecker("event-service", server.URL)
	if err := checker.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() = nil, want error for 503")
	}
}

func TestUpstreamCheckerUnreachable(t *testing.T) {
	checker := NewUpstreamChecker("event-service", "http://127.0.0.1:1")
	if err := checker.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() = nil, want connection error")
	}
}
