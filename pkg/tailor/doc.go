// Package tailor builds a callable API client from a declarative description
// of resources and routes.
//
// # Overview
//
// A Config names a host and, per resource, a set of routes. New turns every
// (resource, action) pair into an Action. Invoking an Action builds a request
// descriptor, runs it through the registered request interceptors, sends it,
// runs the response through the response interceptors and finally accepts or
// rejects it by status code.
//
//	config, err := tailor.LoadConfig("api.yml")
//	if err != nil { log.Fatal(err) }
//
//	client, err := tailor.New(config)
//	if err != nil { log.Fatal(err) }
//
//	result, err := client.Call(ctx, "data", "get", tailor.Params{"id": "a"}, nil)
//
// A config file looks like this:
//
//	host: http://www.nachosaddress.com/api/
//	resources:
//	  data:
//	    get:
//	      method: GET
//	      path: /:id
//	    upload:
//	      method: POST
//	      path: /:id/file
//	      data: form
//	    tail:
//	      method: GET
//	      path: /:id/log
//	      stream: true
//
// # Interceptors
//
// Interceptors are registered with Client.Inject and apply to every later
// invocation of every route, in registration order. Each one may carry a
// request transform, a response transform, or both. The first transform to
// fail ends the invocation with its error unchanged.
//
//	err := client.Inject(&tailor.Interceptor{
//	  Request: func(ctx context.Context, req *tailor.Request) (*tailor.Request, error) {
//	    req.Header.Set("X-Api-Key", key)
//	    return req, nil
//	  },
//	})
//
// The package ships a few ready-made ones: LoggingInterceptor,
// HeaderInterceptor, AuthenticationInterceptor, RequestIDInterceptor,
// RateLimitInterceptor, MetricsInterceptor and CircuitBreaker. The audit
// subpackage publishes responses to NATS.
//
// # Errors
//
// Responses with a status of 400 or more fail with *StatusError, which holds
// the response as received before any response interceptor touched it.
// Network failures come back as *TransportError. Use IsStatusError,
// StatusCode, IsNotFound and IsTransportError to tell them apart.
//
// # Streaming
//
// For routes with stream set, Result.Stream is the live response body. Only
// the status line goes through the response interceptors; the caller must
// close the stream.
package tailor
