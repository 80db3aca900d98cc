// Package http executes request descriptors over HTTP, either buffering the
// whole response body or handing back the live body stream.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Logger is the structured logger used by the transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request is a finalized request descriptor. At most one of JSON and FormData
// is used; JSON wins when both are set.
type Request struct {
	Method   string
	URI      string
	Headers  http.Header
	JSON     interface{}
	FormData interface{}
}

// Response holds response metadata and, in buffered mode, the body.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// Client is a thin layer over a retryable HTTP client.
type Client struct {
	httpClient *retryablehttp.Client
	logger     Logger
	debug      bool
	userAgent  string
	timeout    time.Duration
	tracing    bool
	transport  http.RoundTripper
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig turns on retries for transient failures (connection errors,
// 429 and 5xx). Retries are off by default.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds buffered calls. Streamed calls are only bounded by the
// caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithTracing wraps the round tripper with OpenTelemetry instrumentation.
func WithTracing() Option {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithRoundTripper replaces the underlying round tripper.
func WithRoundTripper(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// NewClient creates a new client. Without options it performs exactly one
// attempt per call and never turns a status code into an error.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		httpClient: retryClient,
		userAgent:  constants.UserAgent,
		timeout:    constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.transport != nil {
		client.httpClient.HTTPClient.Transport = client.transport
	}

	if client.tracing {
		base := client.httpClient.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}

		client.httpClient.HTTPClient.Transport = otelhttp.NewTransport(base)
	}

	if client.logger != nil {
		client.httpClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	response := newResponse(resp)
	response.Body = body

	c.logResponse(req, response)

	return response, nil
}

// Stream sends req and returns as soon as the response headers arrive. The
// caller owns the returned body and must close it.
func (c *Client) Stream(ctx context.Context, req *Request) (*Response, io.ReadCloser, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	response := newResponse(resp)

	c.logResponse(req, response)

	return response, resp.Body, nil
}

func (c *Client) send(ctx context.Context, req *Request) (*http.Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URI, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if req.JSON != nil && httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"uri":    req.URI,
		})
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URI, err)
	}

	return resp, nil
}

func (c *Client) logResponse(req *Request, resp *Response) {
	if !c.debug || c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":      req.Method,
		"uri":         req.URI,
		"status_code": resp.StatusCode,
	})
}

func newResponse(resp *http.Response) *Response {
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
	}
}
