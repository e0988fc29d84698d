// Package observability defines the logging and metrics seam used by pools.
// Hosts plug their own implementations in; the defaults discard everything so
// the library stays dependency-free at this boundary.
package observability

import "time"

// Logger captures structured logging behaviours shared across the module.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key/value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// String builds a string-valued field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int-valued field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 builds a uint64-valued field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Duration builds a duration-valued field.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err builds an error-valued field.
func Err(err error) Field { return Field{Key: "error", Value: err} }

var defaultLogger Logger = noopLogger{}

// SetLogger overrides the global logger used by the module.
func SetLogger(logger Logger) {
	if logger == nil {
		defaultLogger = noopLogger{}
		return
	}
	defaultLogger = logger
}

// Log returns the current global logger instance.
func Log() Logger {
	return defaultLogger
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}
