package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("exec: \"python\": executable file not found in $PATH")
	err := Wrap(ErrCodeSpawnFailure, cause, "failed to start engine")

	if err.Code != ErrCodeSpawnFailure {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSpawnFailure)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeBannedPattern, "test"),
			code:     ErrCodeBannedPattern,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeEngineExit,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeEngineExit, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeEngineExit,
			expected: true,
		},
		{
			name:     "wrapped by fmt.Errorf",
			err:      fmt.Errorf("render: %w", New(ErrCodeArtifactNotFound, "no marker")),
			code:     ErrCodeArtifactNotFound,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeWriteFailure, "test"), ErrCodeWriteFailure},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetDiagnostics(t *testing.T) {
	inner := New(ErrCodeEngineExit, "exit 1").WithDiagnostics(Diagnostics{
		Script:   "print(1)",
		Stderr:   "Traceback",
		ExitCode: 1,
	})
	outer := Wrap(ErrCodeInternal, fmt.Errorf("render: %w", inner), "pipeline failed")

	d, ok := GetDiagnostics(outer)
	if !ok {
		t.Fatal("GetDiagnostics() should find diagnostics through the chain")
	}
	if d.ExitCode != 1 || d.Stderr != "Traceback" || d.Script != "print(1)" {
		t.Errorf("GetDiagnostics() = %+v", d)
	}

	if _, ok := GetDiagnostics(errors.New("plain")); ok {
		t.Error("plain errors carry no diagnostics")
	}
	if _, ok := GetDiagnostics(New(ErrCodeInvalidInput, "x")); ok {
		t.Error("errors without diagnostics should report false")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 10); got != "short" {
		t.Errorf("Excerpt(short) = %q", got)
	}
	if got := Excerpt("0123456789", 4); got != "...6789" {
		t.Errorf("Excerpt() = %q, want %q", got, "...6789")
	}
	if got := Excerpt("abc", 0); got != "abc" {
		t.Errorf("Excerpt with max 0 = %q, want input", got)
	}

	// Never split a multi-byte rune.
	got := Excerpt("xxθθθ", 3)
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "θ") {
		t.Errorf("Excerpt() = %q", got)
	}
	for _, r := range strings.TrimPrefix(got, "...") {
		if r == '�' {
			t.Errorf("Excerpt() split a rune: %q", got)
		}
	}
}
