// Package errors provides structured error types for flowlens.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - Structured detail about the offending graph entity
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (structural errors)
//   - DUPLICATE_*: Id space collisions
//   - UNKNOWN_*: References to entities that do not exist
//   - NOT_FOUND: Resource lookups (sessions, stored documents)
//   - INTERNAL_*: Unexpected internal errors
//
// # Structural Errors
//
// Validation of graph documents and configuration is fail-fast. Every such
// failure is reported as a [*StructuralError] carrying the offending id and,
// for collisions, a description of the entity that already owns the id:
//
//	err := errors.Duplicate(errors.EntityNode, "n1", "Parser (n1)", "Lexer (n1)")
//	var se *errors.StructuralError
//	if stderrors.As(err, &se) {
//	    fmt.Println(se.ID, se.Prior)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeMissingField    Code = "INVALID_MISSING_FIELD"
	ErrCodeInvalidView     Code = "INVALID_VIEW"
	ErrCodeInvalidCompound Code = "INVALID_COMPOUND"
	ErrCodeInvalidZoom     Code = "INVALID_ZOOM"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeDuplicateID     Code = "DUPLICATE_ID"
	ErrCodeDuplicateParent Code = "DUPLICATE_PARENT"
	ErrCodeUnknownNode     Code = "UNKNOWN_NODE"
	ErrCodeUnknownGroup    Code = "UNKNOWN_GROUP"
	ErrCodeUnknownPort     Code = "UNKNOWN_PORT"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

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

// EntityKind names the kind of graph entity a structural error refers to.
type EntityKind string

// Entity kinds reported by structural errors.
const (
	EntityNode     EntityKind = "node"
	EntityEdge     EntityKind = "edge"
	EntityPort     EntityKind = "port"
	EntityGroup    EntityKind = "group"
	EntityCompound EntityKind = "compound"
	EntityConfig   EntityKind = "config"
)

// StructuralError reports an invalid graph document, compound structure or
// configuration. These errors are fatal for the operation that raised them;
// the state established before the call is left untouched.
type StructuralError struct {
	Code    Code       // Machine-readable error code
	Kind    EntityKind // Kind of the offending entity
	ID      string     // Id of the offending entity (empty if it has none)
	Prior   string     // Description of the conflicting entity, for collisions
	Message string     // Human-readable description
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Prior != "" {
		msg += fmt.Sprintf(" (already in use by %s)", e.Prior)
	}
	return msg
}

// Structural creates a StructuralError for the entity kind and id.
func Structural(code Code, kind EntityKind, id, format string, args ...any) *StructuralError {
	return &StructuralError{
		Code:    code,
		Kind:    kind,
		ID:      id,
		Message: fmt.Sprintf(format, args...),
	}
}

// Duplicate reports an id collision. desc describes the entity being added,
// prior the entity that already holds the id.
func Duplicate(kind EntityKind, id, desc, prior string) *StructuralError {
	return &StructuralError{
		Code:    ErrCodeDuplicateID,
		Kind:    kind,
		ID:      id,
		Prior:   prior,
		Message: fmt.Sprintf("duplicate id for %s %s", kind, desc),
	}
}

// IsStructural reports whether err is, or wraps, a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or *StructuralError
// with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is neither an *Error nor a *StructuralError.
func GetCode(err error) Code {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For coded errors, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var se *StructuralError
	if errors.As(err, &se) {
		if se.Prior != "" {
			return fmt.Sprintf("%s (already in use by %s)", se.Message, se.Prior)
		}
		return se.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
