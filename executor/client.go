// Package executor talks to the remote compile/execute service. The service
// compiles contract source into bytecode and runs calls against it,
// returning per-call results with a trace arena each.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rubiojr/callscope/internal/ctxlog"
	"github.com/rubiojr/callscope/invocation"
)

const (
	compilePath = "/compile_solidity"
	executePath = "/execute_calldatas_fork"
)

// ServiceError is returned when the service answers with a non-2xx status.
type ServiceError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error occurred"
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, msg)
}

// Client is a compile/execute service client. The zero value is not
// usable; call New.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Cache, when set, short-circuits Compile for source seen before.
	Cache *Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithTimeout sets a per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTP.Timeout = d }
}

// WithCache enables the on-disk compile cache.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.Cache = cache }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles source. Compiler diagnostics come back in the result,
// not as an error.
func (c *Client) Compile(ctx context.Context, source string) (*CompileResult, error) {
	log := ctxlog.FromContext(ctx)
	if c.Cache != nil {
		if res, ok := c.Cache.Lookup(source); ok {
			log.Debug("compile cache hit", "contracts", len(res.Contracts))
			return res, nil
		}
	}

	var res CompileResult
	if err := c.post(ctx, compilePath, compileRequest{Code: source}, &res); err != nil {
		return nil, err
	}
	log.Debug("compiled", "contracts", len(res.Contracts), "diagnostics", len(res.Errors))

	if c.Cache != nil {
		if err := c.Cache.Store(source, &res); err != nil {
			log.Warn("compile cache store failed", "error", err)
		}
	}
	return &res, nil
}

// Execute runs calls against bytecode and returns one result per call.
func (c *Client) Execute(ctx context.Context, bytecode string, calls []Call) ([]Result, error) {
	var results []Result
	if err := c.post(ctx, executePath, executeRequest{Bytecode: bytecode, Calls: calls}, &results); err != nil {
		return nil, err
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("%s: expected %d results, got %d", executePath, len(calls), len(results))
	}
	ctxlog.FromContext(ctx).Debug("executed", "calls", len(calls))
	return results, nil
}

// Run encodes invs against contract's ABI, executes them against its
// bytecode and decodes each result's return value and logs.
func (c *Client) Run(ctx context.Context, contract Contract, invs []invocation.Invocation, value, caller string) ([]Result, error) {
	codec, err := ParseABI(contract.ABI)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", contract.Name, err)
	}
	calls, err := CallsFor(codec, invs, value, caller)
	if err != nil {
		return nil, err
	}
	results, err := c.Execute(ctx, contract.Bytecode, calls)
	if err != nil {
		return nil, err
	}
	for i := range results {
		codec.Decode(invs[i].Name, &results[i])
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, simplify(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{Endpoint: path, Status: resp.StatusCode, Message: serviceMessage(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", path, err)
	}
	return nil
}

// serviceMessage extracts {"message": ...} from an error body, falling back
// to the trimmed body text.
func serviceMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}

// simplify strips url.Error and net.OpError wrappers for readable output.
// Context cancellation is kept intact so callers can test for it.
func simplify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		err = netErr.Err
	}
	return err
}
