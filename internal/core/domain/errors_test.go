//go:build unit

package domain

import (
	"errors"
	"fmt"
	"testing"
)

// TestNodeError_Kinds verifies the constructors and kind predicates.
func TestNodeError_Kinds(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{ParseError("bad input"), KindParse},
		{ValidationError("bad value"), KindValidation},
		{SecurityError("bad digest"), KindSecurity},
		{StorageError(errors.New("io"), "write failed"), KindStorage},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.kind)
		}
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf(plain error) should be empty")
	}
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
}

// TestNodeError_Unwrap verifies the cause is reachable via errors.Is.
func TestNodeError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageError(cause, "cannot store light request")
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the cause")
	}
	if !err.Transient() {
		t.Error("storage errors are transient")
	}
	if SecurityError("x").Transient() {
		t.Error("security errors are not transient")
	}
}

// TestNodeError_WrappedDetection verifies kind predicates see through
// wrapping.
func TestNodeError_WrappedDetection(t *testing.T) {
	wrapped := fmt.Errorf("handling request: %w", SecurityError("token has expired"))
	if !IsSecurityError(wrapped) {
		t.Error("IsSecurityError did not see through wrapping")
	}
	if IsParseError(wrapped) {
		t.Error("IsParseError misclassified a security error")
	}
}
