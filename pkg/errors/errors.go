// Package errors provides structured error types for cursor2d.
//
// Every stage of the repair-and-render pipeline fails with an *Error carrying
// a machine-readable Code. Failures raised after the script has been
// normalized also carry Diagnostics (the normalized script, captured engine
// output and exit code) so callers can log them without re-running anything.
//
// # Error Codes
//
//   - INVALID_*: Input validation failures
//   - BANNED_PATTERN: Validator veto after sanitization
//   - WRITE_FAILURE, SPAWN_FAILURE: Render setup failures
//   - ENGINE_EXIT_NONZERO, ARTIFACT_NOT_FOUND, PATH_TRANSLATION_FAILURE: Render result failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "script is empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors and attach diagnostics
//	err := errors.Wrap(errors.ErrCodeSpawnFailure, origErr, "start %s", binary).
//	    WithDiagnostics(errors.Diagnostics{Script: script})
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidTarget Code = "INVALID_TARGET"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Validator veto
	ErrCodeBannedPattern Code = "BANNED_PATTERN"

	// Render setup errors
	ErrCodeWriteFailure Code = "WRITE_FAILURE"
	ErrCodeSpawnFailure Code = "SPAWN_FAILURE"

	// Render result errors
	ErrCodeEngineExit             Code = "ENGINE_EXIT_NONZERO"
	ErrCodeArtifactNotFound       Code = "ARTIFACT_NOT_FOUND"
	ErrCodePathTranslationFailure Code = "PATH_TRANSLATION_FAILURE"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Diagnostics is the context retained with a pipeline failure.
type Diagnostics struct {
	Script   string // Normalized script that was (or would have been) executed
	Stdout   string // Full captured standard output
	Stderr   string // Full captured standard error
	ExitCode int    // Engine exit code, -1 if the engine never exited normally
	Pattern  string // Offending pattern name for BANNED_PATTERN
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code        Code         // Machine-readable error code
	Message     string       // Human-readable message
	Cause       error        // Underlying error (optional)
	Diagnostics *Diagnostics // Pipeline context (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDiagnostics attaches d to e and returns e.
func (e *Error) WithDiagnostics(d Diagnostics) *Error {
	e.Diagnostics = &d
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetDiagnostics returns the diagnostics of the first *Error in err's chain
// that carries them.
func GetDiagnostics(err error) (*Diagnostics, bool) {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil, false
		}
		if e.Diagnostics != nil {
			return e.Diagnostics, true
		}
		err = e.Cause
	}
	return nil, false
}

// Attach returns err as an *Error carrying d. Errors without an *Error in
// their chain are wrapped as ErrCodeInternal first.
func Attach(err error, d Diagnostics) *Error {
	var e *Error
	if !errors.As(err, &e) {
		e = Wrap(ErrCodeInternal, err, "unexpected error")
	}
	return e.WithDiagnostics(d)
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Excerpt returns at most max bytes from the end of s, prefixed with an
// ellipsis marker when truncated. Engines print the actual failure last.
func Excerpt(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := len(s) - max
	// Do not split a UTF-8 sequence.
	for cut < len(s) && s[cut]&0xC0 == 0x80 {
		cut++
	}
	return "..." + s[cut:]
}
