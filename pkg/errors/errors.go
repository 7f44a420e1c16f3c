// Package errors provides structured error types for makegraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling between the parser, renderer and CLI
//   - Machine-readable error codes that the entry point maps to exit statuses
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (arguments, trace text, config)
//   - MISMATCHED_*: Structural trace failures
//   - *_NOT_FOUND: Missing resources
//   - *_FAILED / INTERNAL_*: Unexpected downstream failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidTrace, "line %d: no target name", n)
//	if errors.Is(err, errors.ErrCodeInvalidTrace) {
//	    // Handle malformed trace
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRender, origErr, "render %s", format)
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
	ErrCodeUsage         Code = "INVALID_ARGS"
	ErrCodeInvalidTrace  Code = "INVALID_TRACE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Structural trace errors
	ErrCodeMismatchedRegion Code = "MISMATCHED_REGION"

	// Resource not found errors
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeTargetNotFound Code = "TARGET_NOT_FOUND"

	// Downstream and internal errors
	ErrCodeRender   Code = "RENDER_FAILED"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Usage reports a wrong invocation of a command.
func Usage(format string, args ...any) *Error {
	return New(ErrCodeUsage, format, args...)
}
