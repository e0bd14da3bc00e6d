package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UpstreamChecker implements health checking for a dependent HTTP service by
// probing its health endpoint.
type UpstreamChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewUpstreamChecker creates a health checker for the service at baseURL.
// The probe hits baseURL + "/health".
func NewUpstreamChecker(name, baseURL string) *UpstreamChecker {
	return &UpstreamChecker{
		name: name,
		url:  baseURL + "/health",
		client: &http.Client{
			Timeout: 3 * time.Second,
		},
	}
}

// HealthCheck probes the upstream service's health endpoint.
func (u *UpstreamChecker) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return fmt.Errorf("building %s health request: %w", u.name, err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", u.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s health returned status %d", u.name, resp.StatusCode)
	}
	return nil
}
