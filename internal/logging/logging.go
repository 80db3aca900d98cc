// Package logging backs the client Logger interface with logrus, optionally
// writing to a rotating file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a Logger.
type Options struct {
	// Level is a logrus level name. Defaults to "info".
	Level string
	// JSON selects the JSON formatter instead of text.
	JSON bool
	// File, when set, is written to as well as Output and rotated.
	File string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger adapts a logrus logger to the Debug/Info/Warn/Error interface used
// throughout the client.
type Logger struct {
	entry  *logrus.Logger
	closer io.Closer
}

// New creates a Logger.
func New(opts Options) (*Logger, error) {
	level := logrus.InfoLevel

	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}

		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger := &Logger{entry: logrus.New()}
	logger.entry.SetLevel(level)

	if opts.JSON {
		logger.entry.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "@timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		logger.entry.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	if opts.File != "" {
		err := os.MkdirAll(filepath.Dir(opts.File), constants.ConfigDirPerm)
		if err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAge:     constants.LogMaxAgeDays,
			Compress:   true,
		}

		logger.closer = rotator
		out = io.MultiWriter(out, rotator)
	}

	logger.entry.SetOutput(out)

	return logger, nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Error(msg)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}

	return l.closer.Close()
}
