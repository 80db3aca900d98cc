package tailor_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport implements tailor.Transport for testing.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Do(ctx context.Context, req *tailor.Request) (*tailor.ResponseMeta, []byte, error) {
	args := m.Called(ctx, req)

	var meta *tailor.ResponseMeta
	if v := args.Get(0); v != nil {
		meta = v.(*tailor.ResponseMeta)
	}

	var body []byte
	if v := args.Get(1); v != nil {
		body = v.([]byte)
	}

	return meta, body, args.Error(2)
}

func (m *MockTransport) Stream(ctx context.Context, req *tailor.Request) (*tailor.ResponseMeta, io.ReadCloser, error) {
	args := m.Called(ctx, req)

	var meta *tailor.ResponseMeta
	if v := args.Get(0); v != nil {
		meta = v.(*tailor.ResponseMeta)
	}

	var stream io.ReadCloser
	if v := args.Get(1); v != nil {
		stream = v.(io.ReadCloser)
	}

	return meta, stream, args.Error(2)
}

// MockLogger records log calls.
type MockLogger struct {
	mu       sync.Mutex
	messages []string
	errors   []string
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record(msg) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record(msg) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record(msg) }

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.errors = append(l.errors, msg)
}

func (l *MockLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *MockLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

// trackingStream is a stream that remembers being closed.
type trackingStream struct {
	io.Reader
	closed atomic.Bool
}

func newTrackingStream(content string) *trackingStream {
	return &trackingStream{Reader: strings.NewReader(content)}
}

func (s *trackingStream) Close() error {
	s.closed.Store(true)

	return nil
}

func meta(status int) *tailor.ResponseMeta {
	return &tailor.ResponseMeta{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
	}
}

func testConfig() *tailor.Config {
	return &tailor.Config{
		Host: "http://h/api",
		Resources: map[string]map[string]tailor.Route{
			"data": {
				"get":    {Method: "GET", Path: "/:id"},
				"create": {Method: "POST", Path: "/"},
				"upload": {Method: "POST", Path: "/:id/files", DataEncoding: tailor.EncodingForm},
				"tail":   {Method: "GET", Path: "/:id/log", Streaming: true},
			},
			"users": {
				"list": {Method: "GET", Path: ""},
			},
		},
	}
}

func newTestClient(t *testing.T, transport tailor.Transport, opts ...tailor.Option) *tailor.Client {
	t.Helper()

	opts = append([]tailor.Option{tailor.WithTransport(transport)}, opts...)

	client, err := tailor.New(testConfig(), opts...)
	require.NoError(t, err)

	return client
}

var (
	anyCtx = mock.Anything
	anyReq = mock.AnythingOfType("*tailor.Request")
)

// statusTransport answers every request with the status it points to.
type statusTransport struct {
	status *int
}

func (t *statusTransport) Do(ctx context.Context, req *tailor.Request) (*tailor.ResponseMeta, []byte, error) {
	return meta(*t.status), []byte(`{}`), nil
}

func (t *statusTransport) Stream(ctx context.Context, req *tailor.Request) (*tailor.ResponseMeta, io.ReadCloser, error) {
	return meta(*t.status), io.NopCloser(strings.NewReader("")), nil
}
