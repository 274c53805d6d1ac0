/**
 * @description
 * This package provides the typed client for the bank's HTTP API. It is the
 * single transport layer shared by every caller: one method per endpoint,
 * Basic-Auth credentials injected from configuration, and uniform parsing of
 * the backend's `{status, message, errors, data}` response envelope.
 *
 * Key features:
 * - Server rejections (`status != "success"`) surface as *APIError carrying
 *   the backend's message and per-field errors verbatim.
 * - Transport failures are wrapped in ErrNetwork so callers can distinguish
 *   "offline" from "rejected" and fall back to cached data.
 * - A circuit breaker fails fast after repeated consecutive transport
 *   failures; it never trips on server rejections.
 *
 * @dependencies
 * - github.com/sony/gobreaker: Circuit breaker around the transport.
 * - internal/logging, internal/metrics: Observability hooks.
 */
package bankclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/vastrust/banking-client/internal/logging"
	"github.com/vastrust/banking-client/internal/metrics"
)

// ErrNetwork marks transport-level failures: no response, a non-JSON body, or
// an open circuit breaker. The server never rejected anything; the user may
// retry manually.
var ErrNetwork = errors.New("bankclient: network error")

// APIError is a server-reported rejection. Message and Fields are displayed
// verbatim; the failure is scoped to the current action.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	messages := make([]string, 0, 1+len(e.Fields))
	if e.Message != "" {
		messages = append(messages, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		messages = append(messages, e.Fields[k]...)
	}
	if len(messages) == 0 {
		return "an unknown error occurred"
	}
	return strings.Join(messages, "\n")
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Data    json.RawMessage     `json:"data"`
}

// Config holds the client settings.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	// BreakerThreshold is the number of consecutive transport failures that
	// trips the circuit. Zero uses the default of 5.
	BreakerThreshold uint32
	// BreakerCooldown is how long the circuit stays open. Zero uses 30s.
	BreakerCooldown time.Duration
}

// Client is a client for the bank API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l.Named("bankclient") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying HTTP client. Used in tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a new bank API client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNoOpLogger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bankapi",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one request and returns the envelope's data payload. A non-nil
// error is either ErrNetwork-wrapped (transport) or an *APIError (rejection).
func (c *Client) do(ctx context.Context, method, path, endpoint string, payload interface{}) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("bank api base url is empty")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.username, c.password)

	started := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		defer resp.Body.Close()

		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", ErrNetwork, err)
		}
		return responseEnvelope{status: resp.StatusCode, env: env}, nil
	})
	elapsed := time.Since(started).Seconds()

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		c.metrics.APIRequest(endpoint, "network_error", elapsed)
		c.logger.Warn("request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, err
	}

	re := result.(responseEnvelope)
	if re.env.Status != "success" {
		c.metrics.APIRequest(endpoint, "rejected", elapsed)
		return nil, &APIError{
			StatusCode: re.status,
			Message:    re.env.Message,
			Fields:     re.env.Errors,
		}
	}

	c.metrics.APIRequest(endpoint, "success", elapsed)
	c.logger.Debug("request completed",
		zap.String("endpoint", endpoint),
		zap.Int("status", re.status),
	)
	return re.env.Data, nil
}

type responseEnvelope struct {
	status int
	env    envelope
}
