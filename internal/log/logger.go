// Package log provides the structured logger used throughout fixturetree. It
// is a thin interface over logrus so that callers can hand in their own logger
// and tests can discard output.
package log

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// JSONFormat is the name of the JSON log format.
	JSONFormat = "json"
	// TextFormat is the name of the text log format.
	TextFormat = "text"
)

// Fields contains key-value pairs attached to a log entry.
type Fields = logrus.Fields

// Logger is the logging interface used by fixturetree.
type Logger interface {
	WithField(key string, value any) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	DebugContext(ctx context.Context, msg string)
	InfoContext(ctx context.Context, msg string)
	WarnContext(ctx context.Context, msg string)
	ErrorContext(ctx context.Context, msg string)
}

// LogrusLogger wraps a logrus entry and implements Logger.
type LogrusLogger struct {
	entry *logrus.Entry
}

// FromLogrusEntry constructs a new logger from a logrus entry.
func FromLogrusEntry(entry *logrus.Entry) LogrusLogger {
	return LogrusLogger{entry: entry}
}

// LogrusEntry returns the underlying entry. It is only intended for code that
// needs to hand a logrus entry to a library.
func (l LogrusLogger) LogrusEntry() *logrus.Entry {
	return l.entry
}

// WithField creates a new logger with the given field appended.
func (l LogrusLogger) WithField(key string, value any) Logger {
	return LogrusLogger{entry: l.entry.WithField(key, value)}
}

// WithFields creates a new logger with the given fields appended.
func (l LogrusLogger) WithFields(fields Fields) Logger {
	return LogrusLogger{entry: l.entry.WithFields(fields)}
}

// WithError creates a new logger with an appended error field.
func (l LogrusLogger) WithError(err error) Logger {
	return LogrusLogger{entry: l.entry.WithError(err)}
}

// Debug writes a log message at debug level.
func (l LogrusLogger) Debug(msg string) { l.entry.Debug(msg) }

// Info writes a log message at info level.
func (l LogrusLogger) Info(msg string) { l.entry.Info(msg) }

// Warn writes a log message at warn level.
func (l LogrusLogger) Warn(msg string) { l.entry.Warn(msg) }

// Error writes a log message at error level.
func (l LogrusLogger) Error(msg string) { l.entry.Error(msg) }

// DebugContext writes a log message at debug level with the context attached.
func (l LogrusLogger) DebugContext(ctx context.Context, msg string) {
	l.entry.WithContext(ctx).Debug(msg)
}

// InfoContext writes a log message at info level with the context attached.
func (l LogrusLogger) InfoContext(ctx context.Context, msg string) {
	l.entry.WithContext(ctx).Info(msg)
}

// WarnContext writes a log message at warn level with the context attached.
func (l LogrusLogger) WarnContext(ctx context.Context, msg string) {
	l.entry.WithContext(ctx).Warn(msg)
}

// ErrorContext writes a log message at error level with the context attached.
func (l LogrusLogger) ErrorContext(ctx context.Context, msg string) {
	l.entry.WithContext(ctx).Error(msg)
}

// Configure creates a logger writing to out in the given format at the given
// level. An empty format defaults to text, an empty level to info.
func Configure(out io.Writer, format, level string) (Logger, error) {
	logger := logrus.New()
	logger.Out = out

	switch format {
	case JSONFormat:
		logger.Formatter = &logrus.JSONFormatter{}
	case TextFormat, "":
		logger.Formatter = &logrus.TextFormatter{}
	default:
		return nil, fmt.Errorf("invalid logger format %q", format)
	}

	if level == "" {
		level = logrus.InfoLevel.String()
	}

	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(parsedLevel)

	return FromLogrusEntry(logrus.NewEntry(logger)), nil
}

// Discard returns a logger that drops every message.
func Discard() Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return FromLogrusEntry(logrus.NewEntry(logger))
}
