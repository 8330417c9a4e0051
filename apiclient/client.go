package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/entadmin/adminkit/logger"
)

// Requester is the request surface consumed by domain services.
// *Client satisfies it; tests substitute their own.
type Requester interface {
	Do(ctx context.Context, req Request) Envelope[json.RawMessage]
}

var _ Requester = (*Client)(nil)

// Request describes one call.
type Request struct {
	Method   string
	Endpoint string
	Body     any
	Config   RequestConfig
}

// RequestConfig holds per-call overrides.
type RequestConfig struct {
	// Headers override the client defaults key by key.
	Headers map[string]string
	// Timeout replaces the client timeout when positive.
	Timeout time.Duration
}

// RequestOption configures a single request.
type RequestOption func(*RequestConfig)

// WithHeader sets one header on the request.
func WithHeader(key, value string) RequestOption {
	return func(rc *RequestConfig) {
		if rc.Headers == nil {
			rc.Headers = make(map[string]string)
		}
		rc.Headers[key] = value
	}
}

// WithHeaders merges headers into the request.
func WithHeaders(h map[string]string) RequestOption {
	return func(rc *RequestConfig) {
		if rc.Headers == nil {
			rc.Headers = make(map[string]string, len(h))
		}
		maps.Copy(rc.Headers, h)
	}
}

// WithTimeout overrides the client timeout for the request.
func WithTimeout(d time.Duration) RequestOption {
	return func(rc *RequestConfig) { rc.Timeout = d }
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.WithComponent("apiclient") }
}

// WithHTTPClient replaces the underlying *http.Client. Its Timeout should be
// zero; the request context carries the deadline.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithErrorKeys sets the JSON keys searched, in order, for the message of a
// non-2xx body. The default is "message".
func WithErrorKeys(keys ...string) Option {
	return func(c *Client) { c.errorKeys = keys }
}

// Client sends requests to one base URL.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *logger.Logger
	errorKeys  []string

	mu      sync.RWMutex
	headers map[string]string
}

// New creates a client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		log:        logger.Nop(),
		errorKeys:  []string{"message"},
		headers:    maps.Clone(cfg.Headers),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetAuthToken sets "Authorization: Bearer <token>" on the default headers.
func (c *Client) SetAuthToken(token string) {
	c.SetHeader(HeaderAuthorization, "Bearer "+token)
}

// ClearAuthToken removes the Authorization default header.
func (c *Client) ClearAuthToken() {
	c.mu.Lock()
	delete(c.headers, HeaderAuthorization)
	c.mu.Unlock()
}

// SetHeader sets a default header for subsequent requests.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	c.headers[key] = value
	c.mu.Unlock()
}

// Headers returns a copy of the default headers.
func (c *Client) Headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.headers)
}

// Do executes req and reports the outcome with the raw JSON payload.
func (c *Client) Do(ctx context.Context, req Request) Envelope[json.RawMessage] {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	url := c.baseURL + req.Endpoint

	env := c.do(ctx, url, req)

	fields := logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, url,
		logger.FieldStatus, env.Code,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	if env.Success {
		c.log.Debug("request completed", fields)
	} else {
		fields[logger.FieldError] = env.Error
		c.log.Warn("request failed", fields)
	}
	return env
}

func (c *Client) do(ctx context.Context, url string, req Request) Envelope[json.RawMessage] {
	timeout := c.timeout
	if req.Config.Timeout > 0 {
		timeout = req.Config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.buildRequest(ctx, url, req)
	if err != nil {
		return Fail[json.RawMessage](CodeFailure, err.Error())
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return failure(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(ctx, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fail[json.RawMessage](resp.StatusCode, errorMessage(body, c.errorKeys))
	}

	payload := json.RawMessage(bytes.TrimSpace(body))
	if len(payload) > 0 && !json.Valid(payload) {
		return Fail[json.RawMessage](CodeFailure, "decode response: invalid JSON")
	}
	return OK(payload)
}

// buildRequest merges headers and encodes the body. The default header map
// is copied under the lock before per-call overrides apply.
func (c *Client) buildRequest(ctx context.Context, url string, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method != http.MethodGet && req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	for k, v := range c.Headers() {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Config.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// failure classifies a transport error. Anything that happened after the
// request context ended is reported as a timeout.
func failure(ctx context.Context, err error) Envelope[json.RawMessage] {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Fail[json.RawMessage](CodeTimeout, MessageTimeout)
	}
	return Fail[json.RawMessage](CodeFailure, err.Error())
}

// errorMessage returns the first non-empty string under keys in an error
// body.
func errorMessage(body []byte, keys []string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, k := range keys {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// StatusMessage is the error reported for a failure without a message.
func StatusMessage(code int) string {
	return fmt.Sprintf("HTTP %d", code)
}
