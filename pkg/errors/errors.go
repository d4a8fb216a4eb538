// Package errors provides structured error types for argdump.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the codec, registry, and store
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Only [ErrCodeUnresolvableType] is produced while reconstructing a grammar
// from well-formed input; it is raised in strict mode when a type converter
// cannot be rebuilt. Malformed document data never produces an error beyond
// [ErrCodeInvalidDocument] for input that is not JSON (or YAML) at all.
//
//   - UNRESOLVABLE_TYPE: a type reference could not be turned into a converter
//   - DEPTH_EXCEEDED: nested sub-grammars exceed the configured ceiling
//   - INVALID_GRAMMAR: a grammar handed to the encoder breaks a record invariant
//   - INVALID_DOCUMENT: input bytes are not a document
//   - USAGE_ERROR: arguments rejected by a grammar replayed into a command tree
//   - NOT_FOUND: a stored document does not exist
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGrammar, "duplicate dest %q", dest)
//	if errors.Is(err, errors.ErrCodeInvalidGrammar) {
//	    // Handle caller error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUnresolvableType, cause, "could not resolve type %q", name)
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Type resolution
	ErrCodeUnresolvableType Code = "UNRESOLVABLE_TYPE"

	// Structural limits and caller errors
	ErrCodeDepthExceeded   Code = "DEPTH_EXCEEDED"
	ErrCodeInvalidGrammar  Code = "INVALID_GRAMMAR"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Command-line input rejected by a built grammar
	ErrCodeUsage Code = "USAGE_ERROR"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
	if crdb.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if crdb.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if crdb.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
