package core

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger interface for structured logging.
// Implementations can provide custom logging behavior (e.g., integration with logrus, zap, etc.)
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger backs Logger with a zerolog console writer.
type DefaultLogger struct {
	log zerolog.Logger
}

var (
	defaultLoggerOnce sync.Once
	defaultLoggerBase zerolog.Logger
)

// NewDefaultLogger creates a new DefaultLogger writing structured, leveled
// output to stderr.
func NewDefaultLogger() *DefaultLogger {
	defaultLoggerOnce.Do(func() {
		defaultLoggerBase = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	})
	return &DefaultLogger{log: defaultLoggerBase}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.event(l.log.Debug(), msg, fields)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.event(l.log.Info(), msg, fields)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.event(l.log.Warn(), msg, fields)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.event(l.log.Error(), msg, fields)
}

func (l *DefaultLogger) event(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
