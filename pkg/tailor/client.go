package tailor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tailorhttp "github.com/fivetwenty-io/apitailor/internal/http"
	"github.com/fivetwenty-io/apitailor/internal/pipeline"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}

// Option configures a Client.
type Option func(*options)

type options struct {
	logger    Logger
	transport Transport
	httpOpts  []tailorhttp.Option
}

// WithLogger sets the logger used by the client and its HTTP transport.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
		o.httpOpts = append(o.httpOpts, tailorhttp.WithLogger(logger))
	}
}

// WithTransport replaces the HTTP transport. The HTTP options below are
// ignored when a transport is given.
func WithTransport(transport Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithDebug enables verbose HTTP request/response logging.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, tailorhttp.WithDebug(debug))
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, tailorhttp.WithUserAgent(userAgent))
	}
}

// WithRetryConfig lets the transport retry connection errors, 429 and 5xx
// responses. Without it every call is attempted exactly once.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, tailorhttp.WithRetryConfig(maxRetries, waitMin, waitMax))
	}
}

// WithTimeout bounds buffered calls.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, tailorhttp.WithTimeout(timeout))
	}
}

// WithTracing instruments the transport with OpenTelemetry.
func WithTracing() Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, tailorhttp.WithTracing())
	}
}

// WithRoundTripper sets the round tripper under the HTTP transport.
func WithRoundTripper(roundTripper http.RoundTripper) Option {
	return func(o *options) {
		o.httpOpts = append(o.httpOpts, tailorhttp.WithRoundTripper(roundTripper))
	}
}

// Resource holds the actions of one resource, keyed by action name.
type Resource map[string]*Action

// RouteInfo describes one declared route.
type RouteInfo struct {
	Resource string `json:"resource" yaml:"resource"`
	Action   string `json:"action"   yaml:"action"`
	Route    Route  `json:"route"    yaml:"route"`
}

// Client exposes one Action per declared (resource, action) pair and the
// interceptor registry they all share.
type Client struct {
	host         string
	resources    map[string]Resource
	interceptors *pipeline.Registry[Interceptor]
	transport    Transport
	logger       Logger
}

// New creates a client from config. It fails with a *ConfigError when the
// config, its resources or its host is missing, or when a route is invalid.
// No network access happens here.
func New(config *Config, opts ...Option) (*Client, error) {
	err := validateConfig(config)
	if err != nil {
		return nil, err
	}

	o := &options{logger: noopLogger{}}
	for _, opt := range opts {
		opt(o)
	}

	if o.transport == nil {
		o.transport = newHTTPTransport(o.httpOpts...)
	}

	client := &Client{
		host:         config.Host,
		resources:    make(map[string]Resource, len(config.Resources)),
		interceptors: pipeline.NewRegistry[Interceptor](),
		transport:    o.transport,
		logger:       o.logger,
	}

	for resourceName, routes := range config.Resources {
		resource := make(Resource, len(routes))

		for actionName, route := range routes {
			resource[actionName] = &Action{
				client:   client,
				resource: resourceName,
				name:     actionName,
				route:    route,
			}
		}

		client.resources[resourceName] = resource
	}

	client.logger.Debug("created api client", map[string]interface{}{
		"host":      config.Host,
		"resources": client.Resources(),
	})

	return client, nil
}

// Inject registers an interceptor for all subsequent invocations of every
// route. Interceptors run in registration order and are never removed.
func (c *Client) Inject(interceptor *Interceptor) error {
	if interceptor == nil {
		return &InterceptorError{Err: ErrNilInterceptor}
	}

	if interceptor.Request == nil && interceptor.Response == nil {
		return &InterceptorError{Err: ErrNoTransform}
	}

	c.interceptors.Append(*interceptor)

	return nil
}

// Interceptors returns the number of registered interceptors.
func (c *Client) Interceptors() int {
	return c.interceptors.Len()
}

// Host returns the base host of the API.
func (c *Client) Host() string {
	return c.host
}

// Resource returns the actions of the named resource.
func (c *Client) Resource(name string) (Resource, bool) {
	resource, ok := c.resources[name]

	return resource, ok
}

// Action returns a single action.
func (c *Client) Action(resource, action string) (*Action, error) {
	actions, ok := c.resources[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrRouteNotFound, resource, action)
	}

	act, ok := actions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrRouteNotFound, resource, action)
	}

	return act, nil
}

// Call invokes resource.action and waits for the result.
func (c *Client) Call(ctx context.Context, resource, action string, params Params, payload interface{}) (*Result, error) {
	act, err := c.Action(resource, action)
	if err != nil {
		return nil, err
	}

	return act.Call(ctx, params, payload)
}

// Resources returns the resource names in sorted order.
func (c *Client) Resources() []string {
	return sortedKeys(c.resources)
}

// Routes lists every declared route, sorted by resource then action.
func (c *Client) Routes() []RouteInfo {
	routes := make([]RouteInfo, 0)

	for _, resourceName := range c.Resources() {
		for _, action := range sortedKeys(c.resources[resourceName]) {
			routes = append(routes, RouteInfo{
				Resource: resourceName,
				Action:   action,
				Route:    c.resources[resourceName][action].route,
			})
		}
	}

	return routes
}
