package tailor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DataEncoding selects how a route sends its payload.
type DataEncoding string

const (
	// EncodingJSON sends the payload as a JSON body. It is the default.
	EncodingJSON DataEncoding = "json"

	// EncodingForm sends the payload as a multipart form body.
	EncodingForm DataEncoding = "form"
)

// Route is the static definition of one operation.
type Route struct {
	// Method is the HTTP method, e.g. "GET".
	Method string `json:"method" yaml:"method" validate:"required"`
	// Path is a template with ":name" placeholders, e.g. "/:id".
	Path string `json:"path" yaml:"path"`
	// DataEncoding is json unless set to form.
	DataEncoding DataEncoding `json:"data,omitempty" yaml:"data,omitempty" validate:"omitempty,oneof=json form"`
	// Streaming hands back the response body stream instead of reading it.
	Streaming bool `json:"stream,omitempty" yaml:"stream,omitempty"`
}

// Encoding returns the effective data encoding.
func (r Route) Encoding() DataEncoding {
	if r.DataEncoding == "" {
		return EncodingJSON
	}

	return r.DataEncoding
}

// Config describes an API: the host and, per resource, its named routes.
type Config struct {
	Host      string                      `json:"host"      yaml:"host"`
	Resources map[string]map[string]Route `json:"resources" yaml:"resources"`
}

// LoadConfig reads an API description from a YAML or JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses an API description. JSON input is accepted since YAML is
// a superset of it.
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

var routeValidator = validator.New()

// validateConfig checks the required fields in a fixed order (config,
// resources, host) and then every route.
func validateConfig(config *Config) error {
	if config == nil {
		return &ConfigError{Field: "config", Err: ErrConfigMissing}
	}

	if config.Resources == nil {
		return &ConfigError{Field: "resources", Err: ErrResourcesMissing}
	}

	if config.Host == "" {
		return &ConfigError{Field: "host", Err: ErrHostMissing}
	}

	for _, resource := range sortedKeys(config.Resources) {
		routes := config.Resources[resource]
		for _, action := range sortedKeys(routes) {
			err := validateRoute(routes[action])
			if err != nil {
				return &ConfigError{
					Field: fmt.Sprintf("resources.%s.%s", resource, action),
					Err:   err,
				}
			}
		}
	}

	return nil
}

func validateRoute(route Route) error {
	err := routeValidator.Struct(route)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]

		return fmt.Errorf("%w: field %s failed on %q", ErrInvalidRoute, first.Field(), first.Tag())
	}

	return fmt.Errorf("%w: %w", ErrInvalidRoute, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
