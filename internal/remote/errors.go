package remote

import (
	"errors"
	"fmt"
)

// Code classifies a store error for caller policy decisions (retry, abandon,
// ask the user). The engine never formats user-facing strings; the UI layer
// maps codes to messages.
type Code string

const (
	// CodeNotAuthenticated means no cloud identity is available
	CodeNotAuthenticated Code = "NotAuthenticated"

	// CodeZoneUnavailable means the target zone does not exist or cannot be reached
	CodeZoneUnavailable Code = "ZoneUnavailable"

	// CodePartialResolution means some contacts could not be resolved
	CodePartialResolution Code = "PartialResolutionFailure"

	// CodePublishPartialFailure means the server rejected some records of a
	// multi-record write
	CodePublishPartialFailure Code = "PublishPartialFailure"

	// CodeConflictDetected means a write carried a stale change tag
	CodeConflictDetected Code = "ConflictDetected"

	// CodePermissionDenied means the caller lacks rights on an existing shared object
	CodePermissionDenied Code = "PermissionDenied"

	// CodeTransientNetwork means a network or server failure that is safe to retry
	CodeTransientNetwork Code = "TransientNetworkError"

	// CodeSchemaMismatch means a required field is missing or of the wrong
	// shape. Fatal: indicates version skew and must never be coerced.
	CodeSchemaMismatch Code = "SchemaMismatch"
)

// ErrNotFound signals that a record, zone, or contact does not exist in the
// remote store. Callers that treat absence as success (idempotent delete)
// check for it with errors.Is.
var ErrNotFound = errors.New("not found")

// StoreError is a structured error from the remote store or from engine
// components that speak on its behalf.
type StoreError struct {
	// Code categorizes the failure per the engine error taxonomy
	Code Code `json:"code"`

	// Message is a diagnostic reason string (not user-facing copy)
	Message string `json:"message"`

	// Err is the underlying cause, if any
	Err error `json:"-"`
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: callers may retry the
// operation without changing anything. Timeouts are always treated as
// failed-retryable, never as "assume success".
func (e *StoreError) Retryable() bool {
	return e.Code == CodeTransientNetwork || e.Code == CodeZoneUnavailable
}

// NewStoreError builds a StoreError wrapping err.
func NewStoreError(code Code, err error, format string, args ...any) *StoreError {
	return &StoreError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// AsStoreError extracts a StoreError from err's chain, or wraps err as a
// transient failure when it carries no classification.
func AsStoreError(err error) *StoreError {
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return &StoreError{
		Code:    CodeTransientNetwork,
		Message: err.Error(),
		Err:     err,
	}
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
