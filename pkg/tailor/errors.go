package tailor

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Static errors for err113 compliance.
var (
	ErrConfigMissing      = errors.New("config object cannot be empty")
	ErrResourcesMissing   = errors.New("config object must contain resources")
	ErrHostMissing        = errors.New("config object must contain a host")
	ErrInvalidRoute       = errors.New("invalid route")
	ErrNilInterceptor     = errors.New("interceptor cannot be nil")
	ErrNoTransform        = errors.New("interceptor must contain a request or response transform")
	ErrRouteNotFound      = errors.New("route not found")
	ErrNilTransformResult = errors.New("transform returned nil")
	ErrNilStream          = errors.New("transport returned no stream")
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// ConfigError is returned by New when the configuration is unusable.
type ConfigError struct {
	// Field names the offending field, e.g. "host" or "resources.data.get.method".
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config (%s): %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InterceptorError is returned by Inject for a malformed interceptor.
type InterceptorError struct {
	Err error
}

// Error implements the error interface.
func (e *InterceptorError) Error() string {
	return "not a valid interceptor: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InterceptorError) Unwrap() error {
	return e.Err
}

// TransportError is a network-level failure. The response interceptors never
// see it.
type TransportError struct {
	Method string
	URI    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed for %s %s: %v", e.Method, e.URI, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the response status code is 400 or above.
// Envelope is the response as received, before any response interceptor ran.
type StatusError struct {
	Envelope *Envelope
}

// Error renders the envelope as {"response":{"statusCode":N},"body":...}.
func (e *StatusError) Error() string {
	type response struct {
		StatusCode int `json:"statusCode"`
	}

	rendered := struct {
		Response response        `json:"response"`
		Body     json.RawMessage `json:"body"`
	}{
		Response: response{StatusCode: e.StatusCode()},
		Body:     renderBody(e.Envelope),
	}

	data, err := json.Marshal(rendered)
	if err != nil {
		return fmt.Sprintf("request failed with status code %d", e.StatusCode())
	}

	return string(data)
}

// StatusCode returns the status code of the rejected response.
func (e *StatusError) StatusCode() int {
	if e.Envelope == nil || e.Envelope.Response == nil {
		return 0
	}

	return e.Envelope.Response.StatusCode
}

// Body returns the raw body of the rejected response.
func (e *StatusError) Body() []byte {
	if e.Envelope == nil {
		return nil
	}

	return e.Envelope.Body
}

// renderBody keeps a JSON body as-is and quotes anything else.
func renderBody(envelope *Envelope) json.RawMessage {
	if envelope == nil || envelope.Body == nil {
		return json.RawMessage("null")
	}

	if json.Valid(envelope.Body) {
		return envelope.Body
	}

	quoted, _ := json.Marshal(string(envelope.Body))

	return quoted
}

// IsStatusError checks if the error is a rejected response.
func IsStatusError(err error) bool {
	statusErr := &StatusError{}

	return errors.As(err, &statusErr)
}

// StatusCode extracts the status code from a StatusError, or 0.
func StatusCode(err error) int {
	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode()
	}

	return 0
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == 401
}

// IsForbidden checks if the error is a 403 response.
func IsForbidden(err error) bool {
	return StatusCode(err) == 403
}

// IsTransportError checks if the error is a network-level failure.
func IsTransportError(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}
