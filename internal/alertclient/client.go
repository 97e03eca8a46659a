// Package alertclient posts alert envelopes to the central alert gateway
// with bounded latency and never blocks the packet pipeline on delivery
// failure.
package alertclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/alert"
)

const defaultTimeout = 3 * time.Second

// Client posts one alert per call to the gateway's /alerts endpoint.
// Delivery failures (timeout, connection refused, HTTP >= 400) are logged
// and counted; they never propagate back into the capture loop.
type Client struct {
	baseURL string
	http    *http.Client

	successes uint64
	failures  uint64
}

// NewClient creates a Client targeting baseURL (e.g. "http://localhost:8081")
// with the given POST timeout. A timeout <= 0 uses the 3s default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: nil, // never honor HTTP_PROXY/HTTPS_PROXY for gateway delivery
			},
		},
	}
}

// Send posts one alert envelope to the gateway. It never returns an error
// to the caller that should stop the pipeline: callers should treat a
// non-nil error purely as a logging/metrics signal, which Send already
// does internally.
func (c *Client) Send(ctx context.Context, env alert.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		slog.Warn("failed to marshal alert envelope", "error", err)
		atomic.AddUint64(&c.failures, 1)
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/alerts", bytes.NewReader(body))
	if err != nil {
		slog.Warn("failed to build alert request", "error", err)
		atomic.AddUint64(&c.failures, 1)
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("alert delivery failed", "attack_type", env.AttackType, "session", env.Session, "error", err)
		atomic.AddUint64(&c.failures, 1)
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Warn("alert gateway rejected alert", "attack_type", env.AttackType, "session", env.Session, "status", resp.StatusCode)
		atomic.AddUint64(&c.failures, 1)
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	atomic.AddUint64(&c.successes, 1)
	return nil
}

// Successes returns the number of alerts successfully delivered.
func (c *Client) Successes() uint64 { return atomic.LoadUint64(&c.successes) }

// Failures returns the number of alert deliveries that failed.
func (c *Client) Failures() uint64 { return atomic.LoadUint64(&c.failures) }
