package tailor_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *tailor.Config
		wantErr error
		field   string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: tailor.ErrConfigMissing,
			field:   "config",
		},
		{
			name:    "host only",
			config:  &tailor.Config{Host: "http://h"},
			wantErr: tailor.ErrResourcesMissing,
			field:   "resources",
		},
		{
			name:    "resources only",
			config:  &tailor.Config{Resources: map[string]map[string]tailor.Route{}},
			wantErr: tailor.ErrHostMissing,
			field:   "host",
		},
		{
			name:    "empty config reports resources first",
			config:  &tailor.Config{},
			wantErr: tailor.ErrResourcesMissing,
			field:   "resources",
		},
		{
			name: "route without method",
			config: &tailor.Config{
				Host: "http://h",
				Resources: map[string]map[string]tailor.Route{
					"data": {"get": {Path: "/:id"}},
				},
			},
			wantErr: tailor.ErrInvalidRoute,
			field:   "resources.data.get",
		},
		{
			name: "unknown encoding",
			config: &tailor.Config{
				Host: "http://h",
				Resources: map[string]map[string]tailor.Route{
					"data": {"get": {Method: "GET", DataEncoding: "xml"}},
				},
			},
			wantErr: tailor.ErrInvalidRoute,
			field:   "resources.data.get",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := tailor.New(tt.config)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, tt.wantErr)

			var configErr *tailor.ConfigError
			require.True(t, errors.As(err, &configErr))
			assert.Equal(t, tt.field, configErr.Field)
		})
	}
}

func TestNew_EmptyResourcesIsValid(t *testing.T) {
	t.Parallel()

	client, err := tailor.New(&tailor.Config{
		Host:      "http://h",
		Resources: map[string]map[string]tailor.Route{},
	})
	require.NoError(t, err)
	assert.Empty(t, client.Resources())
	assert.Empty(t, client.Routes())
}

func TestRoute_Encoding(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tailor.EncodingJSON, tailor.Route{Method: "GET"}.Encoding())
	assert.Equal(t, tailor.EncodingJSON, tailor.Route{Method: "GET", DataEncoding: tailor.EncodingJSON}.Encoding())
	assert.Equal(t, tailor.EncodingForm, tailor.Route{Method: "POST", DataEncoding: tailor.EncodingForm}.Encoding())
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		config, err := tailor.ParseConfig([]byte(`
host: http://www.nachosaddress.com/api/
resources:
  data:
    get:
      method: GET
      path: /:id
    upload:
      method: POST
      path: /:id/file
      data: form
    tail:
      method: GET
      path: /:id/log
      stream: true
`))
		require.NoError(t, err)

		assert.Equal(t, "http://www.nachosaddress.com/api/", config.Host)
		require.Contains(t, config.Resources, "data")

		data := config.Resources["data"]
		assert.Equal(t, tailor.Route{Method: "GET", Path: "/:id"}, data["get"])
		assert.Equal(t, tailor.EncodingForm, data["upload"].DataEncoding)
		assert.True(t, data["tail"].Streaming)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		config, err := tailor.ParseConfig([]byte(`{"host":"http://h","resources":{"data":{"get":{"method":"GET","path":"/:id"}}}}`))
		require.NoError(t, err)
		assert.Equal(t, "http://h", config.Host)
		assert.Equal(t, "GET", config.Resources["data"]["get"].Method)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		_, err := tailor.ParseConfig([]byte("host: [unterminated"))
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "api.yml")
	err := os.WriteFile(path, []byte("host: http://h\nresources:\n  users:\n    list:\n      method: GET\n"), 0o600)
	require.NoError(t, err)

	config, err := tailor.LoadConfig(path)
	require.NoError(t, err)

	client, err := tailor.New(config)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, client.Resources())

	_, err = tailor.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
