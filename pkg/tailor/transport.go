package tailor

import (
	"context"
	"io"

	tailorhttp "github.com/fivetwenty-io/apitailor/internal/http"
)

// Transport performs the network call for a finalized request.
//
// Do returns once the whole body has been read. Stream returns as soon as the
// response headers are available; the caller owns the returned stream.
// Status codes are never reported as errors by a Transport.
type Transport interface {
	Do(ctx context.Context, req *Request) (*ResponseMeta, []byte, error)
	Stream(ctx context.Context, req *Request) (*ResponseMeta, io.ReadCloser, error)
}

// httpTransport adapts the internal HTTP client to Transport.
type httpTransport struct {
	client *tailorhttp.Client
}

func newHTTPTransport(opts ...tailorhttp.Option) *httpTransport {
	return &httpTransport{client: tailorhttp.NewClient(opts...)}
}

func (t *httpTransport) Do(ctx context.Context, req *Request) (*ResponseMeta, []byte, error) {
	resp, err := t.client.Do(ctx, toHTTPRequest(req))
	if err != nil {
		return nil, nil, err
	}

	return toResponseMeta(resp), resp.Body, nil
}

func (t *httpTransport) Stream(ctx context.Context, req *Request) (*ResponseMeta, io.ReadCloser, error) {
	resp, stream, err := t.client.Stream(ctx, toHTTPRequest(req))
	if err != nil {
		return nil, nil, err
	}

	return toResponseMeta(resp), stream, nil
}

func toHTTPRequest(req *Request) *tailorhttp.Request {
	return &tailorhttp.Request{
		Method:   req.Method,
		URI:      req.URI,
		Headers:  req.Header,
		JSON:     req.JSON,
		FormData: req.FormData,
	}
}

func toResponseMeta(resp *tailorhttp.Response) *ResponseMeta {
	return &ResponseMeta{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Headers,
	}
}
