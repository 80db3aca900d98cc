package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tailorhttp "github.com/fivetwenty-io/apitailor/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

type formPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/data/a", request.URL.Path)
			assert.Equal(t, "GET", request.Method)

			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "a"})
		}))
		defer server.Close()

		client := tailorhttp.NewClient()

		resp, err := client.Do(context.Background(), &tailorhttp.Request{
			Method: "GET",
			URI:    server.URL + "/api/data/a",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		require.NoError(t, json.Unmarshal(resp.Body, &result))
		assert.Equal(t, "a", result["id"])
	})

	t.Run("json body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "test-app", body["name"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := tailorhttp.NewClient()

		resp, err := client.Do(context.Background(), &tailorhttp.Request{
			Method: "POST",
			URI:    server.URL,
			JSON:   map[string]string{"name": "test-app"},
		})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("no body when payload is nil", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			body, _ := io.ReadAll(request.Body)
			assert.Empty(t, body)
			assert.Empty(t, request.Header.Get("Content-Type"))
		}))
		defer server.Close()

		_, err := tailorhttp.NewClient().Do(context.Background(), &tailorhttp.Request{Method: "DELETE", URI: server.URL})
		require.NoError(t, err)
	})

	t.Run("multipart form from map", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.True(t, strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data"))
			assert.NoError(t, request.ParseMultipartForm(1<<20))

			assert.Equal(t, "nachos", request.FormValue("name"))
			assert.Equal(t, "3", request.FormValue("count"))

			file, _, err := request.FormFile("upload")
			if !assert.NoError(t, err) {
				return
			}

			defer file.Close()

			content, _ := io.ReadAll(file)
			assert.Equal(t, "file-content", string(content))
		}))
		defer server.Close()

		_, err := tailorhttp.NewClient().Do(context.Background(), &tailorhttp.Request{
			Method: "POST",
			URI:    server.URL,
			FormData: map[string]interface{}{
				"name":   "nachos",
				"count":  3,
				"upload": strings.NewReader("file-content"),
			},
		})
		require.NoError(t, err)
	})

	t.Run("multipart form from struct and values", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.NoError(t, request.ParseMultipartForm(1<<20))
			assert.Equal(t, "nachos", request.FormValue("name"))
			assert.Equal(t, "7", request.FormValue("count"))
		}))
		defer server.Close()

		client := tailorhttp.NewClient()

		_, err := client.Do(context.Background(), &tailorhttp.Request{
			Method:   "POST",
			URI:      server.URL,
			FormData: &formPayload{Name: "nachos", Count: 7},
		})
		require.NoError(t, err)

		_, err = client.Do(context.Background(), &tailorhttp.Request{
			Method:   "POST",
			URI:      server.URL,
			FormData: url.Values{"name": {"nachos"}, "count": {"7"}},
		})
		require.NoError(t, err)
	})

	t.Run("unsupported form data", func(t *testing.T) {
		t.Parallel()

		_, err := tailorhttp.NewClient().Do(context.Background(), &tailorhttp.Request{
			Method:   "POST",
			URI:      "http://127.0.0.1:1",
			FormData: 42,
		})
		require.ErrorIs(t, err, tailorhttp.ErrUnsupportedFormData)
	})

	t.Run("error status is not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte(`{"error":"boom"}`))
		}))
		defer server.Close()

		resp, err := tailorhttp.NewClient().Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.JSONEq(t, `{"error":"boom"}`, string(resp.Body))
	})

	t.Run("connection failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		uri := server.URL
		server.Close()

		resp, err := tailorhttp.NewClient().Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: uri})
		require.Error(t, err)
		assert.Nil(t, resp)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "tailor-test", request.Header.Get("User-Agent"))
		}))
		defer server.Close()

		client := tailorhttp.NewClient(tailorhttp.WithUserAgent("tailor-test"))

		_, err := client.Do(context.Background(), &tailorhttp.Request{
			Method:  "GET",
			URI:     server.URL,
			Headers: http.Header{"X-Custom-Header": {"custom-value"}},
		})
		require.NoError(t, err)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := tailorhttp.NewClient(tailorhttp.WithLogger(logger), tailorhttp.WithDebug(true))

		_, err := client.Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
		require.NoError(t, err)

		var messages []interface{}

		for _, entry := range logger.logs {
			if entry["level"] == "debug" {
				messages = append(messages, entry["msg"])
			}
		}

		assert.Contains(t, messages, "HTTP Request")
		assert.Contains(t, messages, "HTTP Response")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-request.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		client := tailorhttp.NewClient(tailorhttp.WithTimeout(50 * time.Millisecond))

		_, err := client.Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
		require.Error(t, err)
	})
}

func TestClient_Stream(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte("chunk-1\n"))
		writer.(http.Flusher).Flush()

		<-release

		_, _ = writer.Write([]byte("chunk-2\n"))
	}))
	defer server.Close()

	client := tailorhttp.NewClient(tailorhttp.WithTracing())

	resp, stream, err := client.Stream(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
	require.NoError(t, err)

	defer stream.Close()

	// Headers are available before the body is complete.
	assert.Equal(t, 200, resp.StatusCode)
	assert.Nil(t, resp.Body)

	close(release)

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "chunk-1\nchunk-2\n", string(content))
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		resp, err := tailorhttp.NewClient().Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors when enabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := tailorhttp.NewClient(tailorhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := tailorhttp.NewClient(tailorhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Do(context.Background(), &tailorhttp.Request{Method: "GET", URI: server.URL})
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}
