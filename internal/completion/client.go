package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"entrabridge/internal/metrics"
	"entrabridge/pkg/logging"
	pkgstrings "entrabridge/pkg/strings"
)

const (
	// DefaultEndpoint is the GitHub Models chat-completion endpoint.
	DefaultEndpoint = "https://models.inference.ai.azure.com/chat/completions"

	// DefaultModel is the model requested when none is configured.
	DefaultModel = "gpt-4o"

	// DefaultConnectTimeout bounds how long the endpoint may take to start
	// answering. The stream itself is bounded by the request context.
	DefaultConnectTimeout = 30 * time.Second

	maxErrorBody = 4096
)

// Client streams chat completions from the downstream endpoint.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	metrics    *metrics.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for completion requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records upstream request durations on reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) {
		c.metrics = reg
	}
}

// NewClient creates a completion client. Empty values fall back to
// DefaultEndpoint and DefaultModel.
func NewClient(endpoint, model string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}

	c := &Client{
		endpoint: endpoint,
		model:    model,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: DefaultConnectTimeout,
				TLSHandshakeTimeout:   10 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          100,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model requested from the endpoint.
func (c *Client) Model() string {
	return c.model
}

// Stream posts messages with streaming enabled, authenticating with token.
// On success the caller owns the returned body and must close it.
// A non-2xx answer yields an *UpstreamError.
func (c *Client) Stream(ctx context.Context, messages []Message, token string) (io.ReadCloser, error) {
	body, err := json.Marshal(Request{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream("error", time.Since(start))
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.metrics.ObserveUpstream(fmt.Sprintf("status_%d", resp.StatusCode), time.Since(start))
		logging.Debug("Relay", "Completion endpoint returned %d: %s",
			resp.StatusCode, pkgstrings.Truncate(string(excerpt), 200))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    pkgstrings.Truncate(string(excerpt), 200),
		}
	}

	c.metrics.ObserveUpstream("ok", time.Since(start))
	logging.Debug("Relay", "Completion stream opened (model=%s, messages=%d)", c.model, len(messages))
	return resp.Body, nil
}
