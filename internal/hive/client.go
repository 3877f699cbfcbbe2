package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Caller is the minimal RPC surface the query layers depend on.
// *Client implements it; tests substitute mocks.
type Caller interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// Options configures a failover client
type Options struct {
	Endpoints  []string
	Timeout    time.Duration // per-request node timeout
	Backoff    time.Duration // base delay between failover attempts
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a JSON-RPC client over an ordered endpoint list. The
// active-endpoint pointer is shared by all callers of one client: a
// failover triggered by one caller moves every subsequent call to
// the next node. Results are never cached; every call is a live
// round trip.
type Client struct {
	endpoints  []string
	httpClient *http.Client
	backoff    time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	current int
}

// NewClient creates a failover client. An empty endpoint list fails
// with ErrEnvironment before any I/O happens.
func NewClient(opts Options) (*Client, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: no endpoints configured", ErrEnvironment)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	endpoints := make([]string, len(opts.Endpoints))
	copy(endpoints, opts.Endpoints)

	return &Client{
		endpoints:  endpoints,
		httpClient: httpClient,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
	}, nil
}

// Endpoints returns a copy of the configured endpoint list
func (c *Client) Endpoints() []string {
	out := make([]string, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

func (c *Client) activeEndpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[c.current]
}

// rotate advances the active-endpoint pointer circularly
func (c *Client) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = (c.current + 1) % len(c.endpoints)
}

// Call makes a JSON-RPC call, failing over across endpoints. After a
// failed attempt the pointer rotates and the next try waits
// backoff*attempt. Exactly one attempt is made per configured
// endpoint; when all fail the last cause is wrapped in a
// NodeExhaustionError.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	total := len(c.endpoints)
	var lastErr error

	for attempt := 1; attempt <= total; attempt++ {
		endpoint := c.activeEndpoint()

		result, err := c.do(ctx, endpoint, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		c.logger.Warn("hive node call failed",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Error(err))

		c.rotate()

		if attempt < total {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
	}

	return nil, &NodeExhaustionError{Attempts: total, Last: lastErr}
}

// do performs one JSON-RPC round trip against a single endpoint
func (c *Client) do(ctx context.Context, endpoint, method string, params any) (json.RawMessage, error) {
	req := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	var jsonResp JSONRPCResponse
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if jsonResp.Error != nil {
		return nil, jsonResp.Error
	}

	return jsonResp.Result, nil
}
