package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/datamon/datamon-api/pkg/circuitbreaker"
	"github.com/datamon/datamon-api/pkg/httpclient"
	"github.com/datamon/datamon-api/pkg/logger"
	"github.com/datamon/datamon-api/pkg/metrics"
	"github.com/datamon/datamon-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client talks to the hosted store over its REST interface. Every Redis
// command maps to a path: GET {base}/get/{key}, {base}/set/{key} with the
// value as the request body, {base}/del/{key}..., {base}/incr/{key},
// {base}/keys/{pattern}, {base}/ping. Responses carry a {"result": ...}
// envelope; a null result on GET means the key is absent.
type Client struct {
	baseURL        string
	token          string
	httpClient     httpclient.Client
	circuitBreaker *gobreaker.CircuitBreaker
	retryConfig    retry.Config
}

type restEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// NewClient creates a store client for the given REST endpoint
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("empty store URL provided")
	}
	if token == "" {
		return nil, fmt.Errorf("empty store token provided")
	}

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("kv"))

	logger.Info("Key-value store client initialized",
		zap.String("endpoint", baseURL))

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		httpClient:     httpclient.NewClientWithTimeout(10 * time.Second),
		circuitBreaker: cb,
		retryConfig:    retry.KVConfig(),
	}, nil
}

// Get returns the value at key, or ErrNil if the key is absent
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	raw, err := c.command(ctx, "get", http.MethodGet, c.path("get", key), "")
	if err != nil {
		return "", err
	}
	if string(raw) == "null" {
		return "", ErrNil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("unexpected get result %s: %w", raw, err)
	}
	return value, nil
}

// Set writes value at key
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.command(ctx, "set", http.MethodPost, c.path("set", key), value)
	return err
}

// Del removes the given keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.command(ctx, "del", http.MethodPost, c.path("del", keys...), "")
	return err
}

// Incr atomically increments the integer at key
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	raw, err := c.command(ctx, "incr", http.MethodPost, c.path("incr", key), "")
	if err != nil {
		return 0, err
	}

	var value int64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("unexpected incr result %s: %w", raw, err)
	}
	return value, nil
}

// Keys returns all keys matching the glob pattern
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	raw, err := c.command(ctx, "keys", http.MethodGet, c.path("keys", pattern), "")
	if err != nil {
		return nil, err
	}

	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("unexpected keys result %s: %w", raw, err)
	}
	return keys, nil
}

// Ping verifies connectivity to the store
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.command(ctx, "ping", http.MethodGet, c.baseURL+"/ping", "")
	return err
}

func (c *Client) path(command string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, command)
	for _, arg := range args {
		parts = append(parts, url.PathEscape(arg))
	}
	return c.baseURL + "/" + strings.Join(parts, "/")
}

// command executes one store operation through the retry and circuit breaker
// layers and records client metrics for it.
func (c *Client) command(ctx context.Context, operation, method, requestURL, body string) (json.RawMessage, error) {
	start := time.Now()

	result, err := retry.DoWithResult(ctx, c.retryConfig, "kv."+operation, func() (json.RawMessage, error) {
		return circuitbreaker.Execute(c.circuitBreaker, func() (json.RawMessage, error) {
			return c.roundTrip(ctx, method, requestURL, body)
		})
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordKVOperation(operation, status, start)
	logger.LogStoreCall(operation, status, metrics.MeasureDuration(start))

	if err != nil {
		return nil, circuitbreaker.FormatError("kv", err)
	}
	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, method, requestURL, body string) (json.RawMessage, error) {
	// The body is rebuilt per attempt so retries never see a drained reader.
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create store request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read store response: %w", err)
	}

	var envelope restEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode store response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if envelope.Error != "" {
			return nil, fmt.Errorf("store returned status %d: %s", resp.StatusCode, envelope.Error)
		}
		return nil, fmt.Errorf("store returned status %d", resp.StatusCode)
	}

	return envelope.Result, nil
}
