// Package errors defines the coded error taxonomy shared by the store,
// the sync engine, and the HTTP surface.
package errors

import "fmt"

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404
	ErrBusy                 ErrorCode = "BUSY"                  // 409
	ErrCorruptSnapshot      ErrorCode = "CORRUPT_SNAPSHOT"      // 422
	ErrInternal             ErrorCode = "INTERNAL"              // 500
	ErrWriteFailed          ErrorCode = "WRITE_FAILED"          // 502
	ErrTransportUnavailable ErrorCode = "TRANSPORT_UNAVAILABLE" // 503
)

// CardError represents a structured error with code, status, and details.
type CardError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *CardError) Unwrap() error {
	if cause, ok := e.Details["cause"].(error); ok {
		return cause
	}
	return nil
}

// NewInvalidRequest creates a 400 error for invalid parameters.
func NewInvalidRequest(msg string) *CardError {
	return &CardError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an unknown card id.
func NewNotFound(id string) *CardError {
	return &CardError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("card not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewBusy creates a 409 error for an operation rejected because another
// exclusive operation is in flight.
func NewBusy(op string) *CardError {
	return &CardError{
		Code:    ErrBusy,
		Status:  409,
		Message: fmt.Sprintf("%s already in progress", op),
		Details: map[string]any{"operation": op},
	}
}

// NewCorruptSnapshot creates a 422 error for an unparseable snapshot
// document. The replica falls back to treating the remote collection as
// empty instead of crashing; callers log this loudly.
func NewCorruptSnapshot(cause error) *CardError {
	msg := "snapshot is not parseable"
	details := map[string]any{}
	if cause != nil {
		msg = fmt.Sprintf("snapshot is not parseable: %v", cause)
		details["cause"] = cause
	}
	return &CardError{
		Code:    ErrCorruptSnapshot,
		Status:  422,
		Message: msg,
		Details: details,
	}
}

// NewWriteFailed creates a 502 error for an export that could not persist.
// Exports are retried on the next debounce cycle.
func NewWriteFailed(path string, cause error) *CardError {
	return &CardError{
		Code:    ErrWriteFailed,
		Status:  502,
		Message: fmt.Sprintf("failed to write snapshot %s: %v", path, cause),
		Details: map[string]any{"path": path, "cause": cause},
	}
}

// NewTransportUnavailable creates a 503 error for an unreachable shared
// storage path. Sync pauses; periodic rechecks continue.
func NewTransportUnavailable(path string, cause error) *CardError {
	return &CardError{
		Code:    ErrTransportUnavailable,
		Status:  503,
		Message: fmt.Sprintf("shared storage not reachable: %s: %v", path, cause),
		Details: map[string]any{"path": path, "cause": cause},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CardError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CardError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CardError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CardError); ok {
		return cErr.Code == code
	}
	return false
}
