package tailor

import (
	"context"
	"net/http"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/fivetwenty-io/apitailor/internal/pipeline"
	"github.com/fivetwenty-io/apitailor/internal/urlpath"
)

// Action is one invokable route, closed over its client's host, transport and
// interceptor registry.
type Action struct {
	client   *Client
	resource string
	name     string
	route    Route
}

// Resource returns the name of the resource the action belongs to.
func (a *Action) Resource() string {
	return a.resource
}

// Name returns the action name.
func (a *Action) Name() string {
	return a.name
}

// Route returns the static route definition.
func (a *Action) Route() Route {
	return a.route
}

// BuildRequest returns the request descriptor for params and payload, before
// any interceptor has run. It performs no I/O.
func (a *Action) BuildRequest(params Params, payload interface{}) *Request {
	path := urlpath.Expand(a.route.Path, params)

	req := &Request{
		URI:    urlpath.Join(a.client.host, a.resource, path),
		Method: a.route.Method,
		Header: make(http.Header),
		Metadata: map[string]interface{}{
			constants.MetadataRoute: a.resource + "." + a.name,
		},
	}

	if a.route.Encoding() == EncodingForm {
		req.FormData = payload
	} else {
		req.JSON = payload
	}

	return req
}

// Call runs the invocation and waits for it:
//
//	build request -> request interceptors -> transport -> response interceptors -> status gate
//
// Errors from interceptors are returned unchanged. Transport failures come
// back as *TransportError, and responses with a status of 400 or more as
// *StatusError.
func (a *Action) Call(ctx context.Context, params Params, payload interface{}) (*Result, error) {
	a.client.logger.Debug("starting action", map[string]interface{}{
		"resource": a.resource,
		"action":   a.name,
		"params":   params,
	})

	req := a.BuildRequest(params, payload)

	// one snapshot serves both phases of this invocation
	interceptors := a.client.interceptors.Snapshot()

	transforms := pipeline.Collect(interceptors, requestTransform)

	req, err := pipeline.Run(ctx, req, transforms)
	if err != nil {
		return nil, err
	}

	a.client.logger.Debug("created the request object", map[string]interface{}{
		"method": req.Method,
		"uri":    req.URI,
	})

	if a.route.Streaming {
		return a.stream(ctx, req, interceptors)
	}

	return a.buffered(ctx, req, interceptors)
}

// Go starts the invocation on its own goroutine.
func (a *Action) Go(ctx context.Context, params Params, payload interface{}) *Future {
	future := newFuture()

	go func() {
		future.complete(a.Call(ctx, params, payload))
	}()

	return future
}

func (a *Action) buffered(ctx context.Context, req *Request, interceptors []Interceptor) (*Result, error) {
	meta, body, err := a.client.transport.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URI: req.URI, Err: err}
	}

	envelope, err := a.respond(ctx, interceptors, &Envelope{Response: meta, Body: body, Request: req})
	if err != nil {
		return nil, err
	}

	return &Result{Response: envelope.Response, Body: envelope.Body}, nil
}

// stream gates on the status line only; the body is handed to the caller
// untouched.
func (a *Action) stream(ctx context.Context, req *Request, interceptors []Interceptor) (*Result, error) {
	meta, stream, err := a.client.transport.Stream(ctx, req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URI: req.URI, Err: err}
	}

	if stream == nil {
		return nil, &TransportError{Method: req.Method, URI: req.URI, Err: ErrNilStream}
	}

	envelope, err := a.respond(ctx, interceptors, &Envelope{Response: meta, Request: req})
	if err != nil {
		_ = stream.Close()

		return nil, err
	}

	return &Result{Response: envelope.Response, Stream: stream}, nil
}

// respond runs the response interceptors and then the status gate. A
// rejection carries received, never the intercepted envelope.
func (a *Action) respond(ctx context.Context, interceptors []Interceptor, received *Envelope) (*Envelope, error) {
	if received.Response == nil {
		return nil, ErrNilTransformResult
	}

	transforms := pipeline.Collect(interceptors, responseTransform)

	seed := received
	if len(transforms) > 0 {
		seed = received.clone()
	}

	envelope, err := pipeline.Run(ctx, seed, transforms)
	if err != nil {
		return nil, err
	}

	if envelope.Response.StatusCode >= constants.HTTPStatusBadRequest {
		a.client.logger.Debug("request failed with error code", map[string]interface{}{
			"resource":    a.resource,
			"action":      a.name,
			"status_code": envelope.Response.StatusCode,
		})

		return nil, &StatusError{Envelope: received}
	}

	return envelope, nil
}

// requestTransform stops the chain at the first interceptor that returns a
// nil request, so later interceptors never see it.
func requestTransform(i Interceptor) pipeline.Transform[*Request] {
	if i.Request == nil {
		return nil
	}

	return func(ctx context.Context, req *Request) (*Request, error) {
		next, err := i.Request(ctx, req)
		if err != nil {
			return nil, err
		}

		if next == nil {
			return nil, ErrNilTransformResult
		}

		return next, nil
	}
}

// responseTransform is requestTransform for the response phase. An envelope
// without response metadata counts as nil.
func responseTransform(i Interceptor) pipeline.Transform[*Envelope] {
	if i.Response == nil {
		return nil
	}

	return func(ctx context.Context, envelope *Envelope) (*Envelope, error) {
		next, err := i.Response(ctx, envelope)
		if err != nil {
			return nil, err
		}

		if next == nil || next.Response == nil {
			return nil, ErrNilTransformResult
		}

		return next, nil
	}
}
