package contract

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidQuery     = errors.New("query is empty")
	ErrToolRegistered   = errors.New("tool already registered")
	ErrToolNotFound     = errors.New("tool not found")
	ErrCompletionFailed = errors.New("completion service failed")
)

// ErrorKind classifies a tool failure for the retry and degradation policy.
type ErrorKind string

const (
	// KindTransient covers timeouts, 429 and 5xx responses; retried per policy.
	KindTransient ErrorKind = "transient"
	// KindNotFound is a logical upstream miss; never retried.
	KindNotFound ErrorKind = "not_found"
	// KindInvalidInput means the resolved parameters were rejected; never retried.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindUnavailable marks a tool skipped by an open circuit breaker.
	KindUnavailable ErrorKind = "unavailable"
)

// ToolError carries the failure kind alongside the tool name.
type ToolError struct {
	Tool string
	Kind ErrorKind
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func NewToolError(tool string, kind ErrorKind, err error) *ToolError {
	return &ToolError{Tool: tool, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from an error chain. Unclassified
// errors are treated as transient so they stay eligible for retry.
func KindOf(err error) ErrorKind {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindTransient
}
