package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "variant not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "variant not found" {
		t.Errorf("expected message 'variant not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("port busy")
	err := Wrap(ErrCodeConnection, "open failed", cause)

	if err.Code != ErrCodeConnection {
		t.Errorf("expected code %s, got %s", ErrCodeConnection, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("no answer")
	ctx := map[string]any{
		"command": "MEAS:TEMP?",
		"port":    "COM3",
	}

	err := WrapWithContext(ErrCodeTimeout, "instrument did not respond", cause, ctx)

	if err.Code != ErrCodeTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeTimeout, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["port"] != "COM3" {
		t.Errorf("expected port to be COM3")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Errorf("expected unwrapped error to be original cause")
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should work with Unwrap")
	}
}

func TestIsCode(t *testing.T) {
	timeout := New(ErrCodeTimeout, "no response")

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"nil", nil, ErrCodeTimeout, false},
		{"direct", timeout, ErrCodeTimeout, true},
		{"different code", timeout, ErrCodeConnection, false},
		{"fmt wrapped", fmt.Errorf("send: %w", timeout), ErrCodeTimeout, true},
		{"nested structured", Wrap(ErrCodeInternal, "run", timeout), ErrCodeTimeout, true},
		{"joined", errors.Join(errors.New("other"), timeout), ErrCodeTimeout, true},
		{"plain", errors.New("plain"), ErrCodeTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(ErrCodeConflict, "busy"))); got != ErrCodeConflict {
		t.Errorf("CodeOf() = %q, want %q", got, ErrCodeConflict)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf() = %q, want empty", got)
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeNotFound,
		ErrCodeTimeout,
		ErrCodeConnection,
		ErrCodeContractViolation,
		ErrCodeInternal,
		ErrCodeInvalidRequest,
		ErrCodeConflict,
		ErrCodeUnavailable,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}
