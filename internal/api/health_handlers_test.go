package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticChecker struct {
	err error
}

func (c staticChecker) HealthCheck(context.Context) error { return c.err }

func TestHealthAlwaysOK(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

func TestReadyCriticalAndDegradedChecks(t *testing.T) {
	tests := []struct {
		name       string
		config     HealthHandlersConfig
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name: "all healthy",
			config: HealthHandlersConfig{
				EventServiceChecker: staticChecker{},
				RedisChecker:        staticChecker{},
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"event_service": "ok", "redis": "ok", "database": "disabled"},
		},
		{
			name: "event service down is critical",
			config: HealthHandlersConfig{
				EventServiceChecker: staticChecker{err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"event_service": "error"},
		},
		{
			name: "redis down degrades but stays ready",
			config: HealthHandlersConfig{
				EventServiceChecker: staticChecker{},
				RedisChecker:        staticChecker{err: errors.New("connection refused")},
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"event_service": "ok", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(tt.config)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			for check, want := range tt.wantChecks {
				if resp.Checks[check] != want {
					t.Errorf("check %s = %q, want %q", check, resp.Checks[check], want)
				}
			}
		})
	}
}
