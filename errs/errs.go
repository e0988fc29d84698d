// Package errs provides structured error types and helpers for pool operations.
package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code identifies a pool error category.
type Code string

const (
	// CodePoolEmpty indicates no object was available within the wait budget.
	CodePoolEmpty Code = "pool_empty"
	// CodePoolFull indicates a dynamic pool is at its capacity ceiling.
	CodePoolFull Code = "pool_full"
	// CodeTimeout indicates a blocking checkout exhausted its wait budget.
	CodeTimeout Code = "timeout"
	// CodeCancelled indicates a checkout was cancelled by the caller.
	CodeCancelled Code = "cancelled"
	// CodeNoMatch indicates no available object satisfied the query predicate.
	CodeNoMatch Code = "no_match"
	// CodeMaxActive indicates the active-checkout ceiling has been reached.
	CodeMaxActive Code = "max_active"
	// CodeCircuitOpen indicates the circuit breaker rejected the request.
	CodeCircuitOpen Code = "circuit_open"
	// CodeFactory indicates the object factory returned an error.
	CodeFactory Code = "factory"
	// CodeClosed indicates the pool has been closed.
	CodeClosed Code = "closed"
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
)

// E captures structured error information produced by pool operations.
type E struct {
	Pool    string
	Code    Code
	Message string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the named pool and error code.
func New(pool string, code Code, opts ...Option) *E {
	e := &E{
		Pool:    strings.TrimSpace(pool),
		Code:    code,
		Message: "",
		cause:   nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithMessagef attaches a formatted message to the error.
func WithMessagef(format string, args ...any) Option {
	return WithMessage(fmt.Sprintf(format, args...))
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	pool := strings.TrimSpace(e.Pool)
	if pool == "" {
		pool = "unknown"
	}
	parts = append(parts, "pool="+pool)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// CodeOf returns the code carried by err, unwrapping as needed. It returns an
// empty code when no envelope is present in the chain.
func CodeOf(err error) Code {
	var envelope *E
	if errors.As(err, &envelope) && envelope != nil {
		return envelope.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
