package tailor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Params maps path placeholder names to their values.
type Params map[string]string

// Request is the request descriptor passed through the request interceptors.
// Depending on the route encoding either JSON or FormData carries the payload.
type Request struct {
	URI      string
	Method   string
	Header   http.Header
	JSON     interface{}
	FormData interface{}
	// Metadata lets interceptors hand values to each other and to the
	// response phase; it is never sent.
	Metadata map[string]interface{}
}

// ResponseMeta is the status line and headers of a response.
type ResponseMeta struct {
	StatusCode int
	Status     string
	Header     http.Header
}

// Envelope pairs response metadata with the body. It is what response
// interceptors receive. In streaming mode Body is always nil.
type Envelope struct {
	Response *ResponseMeta
	Body     []byte
	// Request is the request as it was sent.
	Request *Request
}

// clone copies the envelope deep enough that changes made by interceptors to
// the copy never reach the original.
func (e *Envelope) clone() *Envelope {
	clone := &Envelope{Request: e.Request}

	if e.Response != nil {
		clone.Response = &ResponseMeta{
			StatusCode: e.Response.StatusCode,
			Status:     e.Response.Status,
			Header:     e.Response.Header.Clone(),
		}
	}

	if e.Body != nil {
		clone.Body = bytes.Clone(e.Body)
	}

	return clone
}

// RequestTransform observes and may replace the request descriptor.
type RequestTransform func(ctx context.Context, req *Request) (*Request, error)

// ResponseTransform observes and may replace the response envelope.
type ResponseTransform func(ctx context.Context, envelope *Envelope) (*Envelope, error)

// Interceptor is a pair of optional transforms applied to every invocation of
// every route. At least one of them must be set.
//
// A transform must return a non-nil value of the same kind it received.
type Interceptor struct {
	Request  RequestTransform
	Response ResponseTransform
}

// Result is what a successful invocation yields: the body of a buffered
// route, or the live body stream of a streaming route.
type Result struct {
	Response *ResponseMeta
	Body     []byte
	Stream   io.ReadCloser
}

// IsStream reports whether the result carries a stream.
func (r *Result) IsStream() bool {
	return r.Stream != nil
}

// Decode unmarshals a buffered JSON body into v.
func (r *Result) Decode(v interface{}) error {
	if r.IsStream() {
		err := json.NewDecoder(r.Stream).Decode(v)
		if err != nil {
			return fmt.Errorf("failed to decode stream: %w", err)
		}

		return nil
	}

	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}

	return nil
}

// Close closes the stream, if any.
func (r *Result) Close() error {
	if r.Stream == nil {
		return nil
	}

	return r.Stream.Close()
}

// Future is the handle of an invocation started with Action.Go.
type Future struct {
	done   chan struct{}
	result *Result
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(result *Result, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done is closed once the invocation has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the invocation finishes or ctx ends. A ctx ending does
// not stop the invocation itself.
func (f *Future) Await(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for result: %w", ctx.Err())
	}
}

// Then calls fn with the outcome once the invocation finishes.
func (f *Future) Then(fn func(*Result, error)) {
	go func() {
		<-f.done
		fn(f.result, f.err)
	}()
}
