package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/fivetwenty-io/apitailor/internal/logging"
	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/fivetwenty-io/apitailor/pkg/tailor/audit"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Common static errors used throughout the commands package.
var (
	ErrDescriptionRequired = errors.New("API description file is required (use --file)")
	ErrInvalidKeyValue     = errors.New("expected key=value")
	ErrInvalidPayload      = errors.New("payload is not valid JSON")
	ErrUnknownOutputFormat = errors.New("unknown output format")
)

// session is a configured client plus whatever has to be released after the
// command ran.
type session struct {
	client  *tailor.Client
	logger  *logging.Logger
	closers []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// loadDescription reads the API description named by --file and applies the
// --host override.
func loadDescription() (*tailor.Config, error) {
	path := viper.GetString("file")
	if path == "" {
		return nil, ErrDescriptionRequired
	}

	config, err := tailor.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if host := viper.GetString("host"); host != "" {
		config.Host = host
	}

	return config, nil
}

// newSession builds a client from the description and the global flags and
// registers the interceptors those flags ask for.
func newSession() (*session, error) {
	config, err := loadDescription()
	if err != nil {
		return nil, err
	}

	verbose := viper.GetBool("verbose")

	level := "warn"
	if verbose {
		level = "debug"
	}

	logFile := viper.GetString("log-file")

	logger, err := logging.New(logging.Options{
		Level: level,
		JSON:  logFile != "",
		File:  logFile,
	})
	if err != nil {
		return nil, err
	}

	s := &session{logger: logger, closers: []func() error{logger.Close}}

	client, err := tailor.New(config,
		tailor.WithLogger(logger),
		tailor.WithDebug(verbose),
		tailor.WithUserAgent(constants.UserAgent),
		tailor.WithTimeout(viper.GetDuration("timeout")),
		tailor.WithRetryConfig(viper.GetInt("retries"), constants.DefaultRetryWaitMin, constants.DefaultRetryWaitMax),
	)
	if err != nil {
		s.Close()

		return nil, err
	}

	s.client = client

	err = s.inject()
	if err != nil {
		s.Close()

		return nil, err
	}

	return s, nil
}

func (s *session) inject() error {
	interceptors := []*tailor.Interceptor{tailor.RequestIDInterceptor("")}

	if token := viper.GetString("token"); token != "" {
		interceptors = append(interceptors, tailor.AuthenticationInterceptor(staticToken(token)))
	}

	if limit := viper.GetFloat64("rate-limit"); limit > 0 {
		interceptors = append(interceptors, tailor.RateLimitInterceptor(limit, 1))
	}

	if viper.GetBool("verbose") {
		interceptors = append(interceptors, tailor.LoggingInterceptor(s.logger))
	}

	if url := viper.GetString("nats-url"); url != "" {
		conn, err := audit.Connect(url)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, conn.Drain)

		interceptor, err := audit.Interceptor(conn, &audit.Config{
			Subject: viper.GetString("nats-subject"),
			Logger:  s.logger,
		})
		if err != nil {
			return err
		}

		interceptors = append(interceptors, interceptor)
	}

	for _, interceptor := range interceptors {
		err := s.client.Inject(interceptor)
		if err != nil {
			return err
		}
	}

	return nil
}

// parseKeyValues turns ["a=1", "b=2"] into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		values[key] = value
	}

	return values, nil
}

// readPayload decodes --data: inline JSON, "@file" or "@-" for stdin.
// An empty value means no payload.
func readPayload(data string, stdin io.Reader) (interface{}, error) {
	if data == "" {
		return nil, nil
	}

	raw := []byte(data)

	if name, ok := strings.CutPrefix(data, "@"); ok {
		var err error

		if name == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(filepath.Clean(name))
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
	}

	var payload interface{}

	err := json.Unmarshal(raw, &payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return payload, nil
}

// writeBody prints a response body, indenting JSON when w is a terminal.
func writeBody(w io.Writer, body []byte) error {
	if isTerminal(w) && json.Valid(body) {
		var indented bytes.Buffer
		if json.Indent(&indented, body, "", "  ") == nil {
			indented.WriteByte('\n')
			body = indented.Bytes()
		}
	}

	_, err := w.Write(body)

	return err
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)

	return ok && term.IsTerminal(int(file.Fd()))
}

// writeStructured encodes v as JSON or YAML, or calls table for the table format.
func writeStructured(w io.Writer, v interface{}, table func(*tablewriter.Table) error) error {
	switch format := viper.GetString("output"); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(v)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(v)
	case constants.FormatTable, "":
		t := tablewriter.NewWriter(w)

		err := table(t)
		if err != nil {
			return err
		}

		err = t.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}

func staticToken(token string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return token, nil
	}
}
