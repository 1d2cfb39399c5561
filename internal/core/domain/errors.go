package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies bridge errors. The kinds are stable and drive the
// boundary layer's handling: parse and validation errors are client-input
// problems, security errors are trust problems, storage errors are
// transient backend failures. None of them is retried by the core.
type ErrorKind string

const (
	KindParse      ErrorKind = "parse_error"
	KindValidation ErrorKind = "validation_error"
	KindSecurity   ErrorKind = "security_error"
	KindStorage    ErrorKind = "storage_error"
)

// String returns the error kind as a string.
func (k ErrorKind) String() string {
	return string(k)
}

// NodeError is a structured error with kind, message, and optional cause.
type NodeError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}

// Transient reports whether the error may succeed on retry.
// Only storage errors are transient.
func (e *NodeError) Transient() bool {
	return e.Kind == KindStorage
}

// ParseError creates an error for malformed client input.
func ParseError(format string, args ...any) *NodeError {
	return &NodeError{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// ValidationError creates an error for data that parsed but fails model
// validation.
func ValidationError(format string, args ...any) *NodeError {
	return &NodeError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// SecurityError creates an error for a failed trust check: digest or issuer
// mismatch, expired token, missing or reused payload, invalid correlation.
func SecurityError(format string, args ...any) *NodeError {
	return &NodeError{Kind: KindSecurity, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a backend failure.
func StorageError(cause error, format string, args ...any) *NodeError {
	return &NodeError{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of err, or the empty string if err is not a
// NodeError.
func KindOf(err error) ErrorKind {
	var ne *NodeError
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return ""
}

// IsParseError reports whether err is a parse error.
func IsParseError(err error) bool { return KindOf(err) == KindParse }

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool { return KindOf(err) == KindValidation }

// IsSecurityError reports whether err is a security error.
func IsSecurityError(err error) bool { return KindOf(err) == KindSecurity }

// IsStorageError reports whether err is a storage error.
func IsStorageError(err error) bool { return KindOf(err) == KindStorage }
