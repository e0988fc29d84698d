package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesPoolAndCause(t *testing.T) {
	err := New(
		"sessions",
		CodeFactory,
		WithMessage("dial upstream"),
		WithCause(errors.New("connection refused")),
	)

	out := err.Error()
	if !strings.Contains(out, "pool=sessions") {
		t.Fatalf("expected pool marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=factory") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "message=\"dial upstream\"") {
		t.Fatalf("expected message in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"connection refused\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	err := New("sessions", CodeClosed, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
}

func TestCodeOfUnwrapsChain(t *testing.T) {
	inner := New("sessions", CodeCircuitOpen)
	wrapped := fmt.Errorf("checkout: %w", inner)

	if got := CodeOf(wrapped); got != CodeCircuitOpen {
		t.Fatalf("expected circuit_open, got %q", got)
	}
	if !HasCode(wrapped, CodeCircuitOpen) {
		t.Fatal("expected HasCode to match through wrapping")
	}
	if HasCode(wrapped, CodePoolEmpty) {
		t.Fatal("HasCode matched the wrong code")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty code for plain error, got %q", got)
	}
}

func TestWithMessagefFormats(t *testing.T) {
	err := New("sessions", CodeMaxActive, WithMessagef("%d of %d leases out", 8, 8))
	if err.Message != "8 of 8 leases out" {
		t.Fatalf("unexpected message: %q", err.Message)
	}
}

func TestNilErrorString(t *testing.T) {
	var e *E
	if got := e.Error(); got != "<nil>" {
		t.Fatalf("expected <nil> string for nil error, got %q", got)
	}
}
