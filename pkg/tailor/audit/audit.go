// Package audit publishes a record of every response a client receives to a
// NATS subject.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/fivetwenty-io/apitailor/pkg/tailor"
	"github.com/nats-io/nats.go"
)

// Static errors for err113 compliance.
var (
	ErrPublisherRequired = errors.New("audit publisher is required")
	ErrNATSURLRequired   = errors.New("NATS url is required")
)

// Publisher sends a message to a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the record published for each response.
type Event struct {
	Route      string    `json:"route,omitempty"`
	Method     string    `json:"method"`
	URI        string    `json:"uri"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id,omitempty"`
	Time       time.Time `json:"time"`
}

// Config configures the audit interceptor.
type Config struct {
	// Subject defaults to "apitailor.responses".
	Subject string

	// Strict makes a failed publish fail the invocation. Otherwise the
	// failure is logged and the response passes through.
	Strict bool

	Logger tailor.Logger
}

// Connect dials a NATS server for use as a Publisher.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		return nil, ErrNATSURLRequired
	}

	opts = append([]nats.Option{nats.Name(constants.UserAgent)}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return conn, nil
}

// Interceptor returns a response-only interceptor publishing an Event for
// each response, rejected ones included.
func Interceptor(publisher Publisher, config *Config) (*tailor.Interceptor, error) {
	if publisher == nil {
		return nil, ErrPublisherRequired
	}

	if config == nil {
		config = &Config{}
	}

	subject := config.Subject
	if subject == "" {
		subject = constants.DefaultAuditSubject
	}

	return &tailor.Interceptor{
		Response: func(ctx context.Context, envelope *tailor.Envelope) (*tailor.Envelope, error) {
			data, err := json.Marshal(newEvent(envelope))
			if err != nil {
				return nil, fmt.Errorf("failed to marshal audit event: %w", err)
			}

			err = publisher.Publish(subject, data)
			if err == nil {
				return envelope, nil
			}

			if config.Strict {
				return nil, fmt.Errorf("failed to publish audit event: %w", err)
			}

			if config.Logger != nil {
				config.Logger.Warn("failed to publish audit event", map[string]interface{}{
					"subject": subject,
					"error":   err.Error(),
				})
			}

			return envelope, nil
		},
	}, nil
}

func newEvent(envelope *tailor.Envelope) Event {
	event := Event{
		StatusCode: envelope.Response.StatusCode,
		Time:       time.Now().UTC(),
	}

	if req := envelope.Request; req != nil {
		event.Method = req.Method
		event.URI = req.URI

		if route, ok := req.Metadata[constants.MetadataRoute].(string); ok {
			event.Route = route
		}

		if req.Header != nil {
			event.RequestID = req.Header.Get(constants.RequestIDHeader)
		}
	}

	return event
}
