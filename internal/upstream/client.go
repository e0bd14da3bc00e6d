// Package upstream provides HTTP clients for the collaborator services the
// recommendation engine depends on: the event service (candidate events and
// interaction records) and the user service (preferences). All fetches carry
// bounded timeouts and a circuit breaker; callers degrade to defaults or
// empty values when an upstream is unavailable.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Timeouts for upstream fetches. A slow collaborator degrades the request to
// defaults instead of propagating an error, so these bound the worst case.
const (
	connectTimeout = 5 * time.Second
	readTimeout    = 60 * time.Second
)

// Circuit breaker tuning shared by all upstream clients.
const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	breakerHalfOpenRequests = 2
)

// client is the shared HTTP plumbing for upstream service clients.
type client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// newClient creates the shared client for one upstream service.
func newClient(name, baseURL string, logger *slog.Logger) *client {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConnsPerHost: 8,
	}

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		MaxRequests: breakerHalfOpenRequests,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream circuit breaker state change",
				"service", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   readTimeout,
			Transport: otelhttp.NewTransport(transport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}
}

// get performs a GET against the service through the circuit breaker and
// returns the raw response body. A non-2xx status is an error.
func (c *client) get(ctx context.Context, path string, query url.Values, token string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return body, nil
	})
}

// getJSON performs a GET and decodes the JSON response into dest.
func (c *client) getJSON(ctx context.Context, path string, query url.Values, token string, dest any) error {
	body, err := c.get(ctx, path, query, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
