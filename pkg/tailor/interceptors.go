package tailor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Common Interceptors

// LoggingInterceptor logs requests and responses.
func LoggingInterceptor(logger Logger) *Interceptor {
	return &Interceptor{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			logger.Debug("API Request", map[string]interface{}{
				"method": req.Method,
				"uri":    req.URI,
			})

			return req, nil
		},
		Response: func(ctx context.Context, envelope *Envelope) (*Envelope, error) {
			fields := map[string]interface{}{
				"status_code": envelope.Response.StatusCode,
			}

			if envelope.Request != nil {
				fields["method"] = envelope.Request.Method
				fields["uri"] = envelope.Request.URI
			}

			if envelope.Response.StatusCode >= constants.HTTPStatusBadRequest {
				logger.Error("API Response Error", fields)
			} else {
				logger.Debug("API Response", fields)
			}

			return envelope, nil
		},
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) *Interceptor {
	return &Interceptor{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			for key, value := range headers {
				req.Header.Set(key, value)
			}

			return req, nil
		},
	}
}

// AuthenticationInterceptor adds a bearer token to every request.
func AuthenticationInterceptor(tokenProvider func(context.Context) (string, error)) *Interceptor {
	return &Interceptor{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			token, err := tokenProvider(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get authentication token: %w", err)
			}

			req.Header.Set("Authorization", "Bearer "+token)

			return req, nil
		},
	}
}

// RequestIDInterceptor sets header to a fresh UUID unless the request
// already carries one.
func RequestIDInterceptor(header string) *Interceptor {
	if header == "" {
		header = constants.RequestIDHeader
	}

	return &Interceptor{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			if req.Header.Get(header) == "" {
				req.Header.Set(header, uuid.NewString())
			}

			return req, nil
		},
	}
}

// RateLimitInterceptor holds each request until the limiter allows it or the
// context ends.
func RateLimitInterceptor(requestsPerSecond float64, burst int) *Interceptor {
	if burst <= 0 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return &Interceptor{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			err := limiter.Wait(ctx)
			if err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}

			return req, nil
		},
	}
}

// Metrics holds the Prometheus collectors fed by MetricsInterceptor.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the client metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apitailor_requests_total",
			Help: "Responses received, by route and status code.",
		}, []string{"route", "method", "status"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apitailor_request_duration_seconds",
			Help:    "Time from the end of the request phase to the response phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// MetricsInterceptor records a start time on the request and observes it
// when the response comes back.
func MetricsInterceptor(metrics *Metrics) *Interceptor {
	return &Interceptor{
		Request: func(ctx context.Context, req *Request) (*Request, error) {
			if req.Metadata == nil {
				req.Metadata = make(map[string]interface{})
			}

			req.Metadata[constants.MetadataStartTime] = time.Now()

			return req, nil
		},
		Response: func(ctx context.Context, envelope *Envelope) (*Envelope, error) {
			route, method := "unknown", "unknown"

			if req := envelope.Request; req != nil {
				method = req.Method

				if name, ok := req.Metadata[constants.MetadataRoute].(string); ok {
					route = name
				}

				if startTime, ok := req.Metadata[constants.MetadataStartTime].(time.Time); ok {
					metrics.Duration.WithLabelValues(route, method).Observe(time.Since(startTime).Seconds())
				}
			}

			metrics.Requests.WithLabelValues(route, method, fmt.Sprintf("%d", envelope.Response.StatusCode)).Inc()

			return envelope, nil
		},
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	Threshold        int           // Number of failures before opening
	Timeout          time.Duration // Time before trying again
	SuccessThreshold int           // Number of successes to close
}

// CircuitBreaker tracks circuit state. Responses with a status of 500 or more
// count as failures.
type CircuitBreaker struct {
	mu          sync.Mutex
	config      *CircuitBreakerConfig
	failures    int
	successes   int
	state       string
	lastFailure time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = &CircuitBreakerConfig{
			Threshold:        constants.CircuitBreakerThreshold,
			Timeout:          constants.CircuitBreakerTimeout,
			SuccessThreshold: constants.CircuitBreakerSuccessThreshold,
		}
	}

	return &CircuitBreaker{
		config: config,
		state:  constants.StatusClosed,
	}
}

// State returns "closed", "open" or "half-open".
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Interceptor returns the request and response halves of the breaker.
func (b *CircuitBreaker) Interceptor() *Interceptor {
	return &Interceptor{
		Request:  b.before,
		Response: b.after,
	}
}

func (b *CircuitBreaker) before(ctx context.Context, req *Request) (*Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == constants.StatusOpen {
		if time.Since(b.lastFailure) <= b.config.Timeout {
			return nil, ErrCircuitBreakerOpen
		}

		b.state = constants.StatusHalfOpen
		b.successes = 0
	}

	return req, nil
}

func (b *CircuitBreaker) after(ctx context.Context, envelope *Envelope) (*Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if envelope.Response.StatusCode >= constants.HTTPStatusInternalServerError {
		b.failures++
		b.lastFailure = time.Now()

		if b.failures >= b.config.Threshold || b.state == constants.StatusHalfOpen {
			b.state = constants.StatusOpen
		}

		return envelope, nil
	}

	switch b.state {
	case constants.StatusHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = constants.StatusClosed
			b.failures = 0
		}
	case constants.StatusClosed:
		b.failures = 0
	}

	return envelope, nil
}
