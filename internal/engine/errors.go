package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/pagesweep/internal/record"
)

// RunError represents a fatal error detected while sweeping.
//
// Run errors include:
//   - Network failure: transport error, cancelled request, undecodable body
//   - Server failure: the source answered with a non-2xx status
//   - Filesystem failure: removing the prior output or appending to it
//   - Invariant violation: a window or cursor that cannot be used
//
// None of them is retried; each one ends the run.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// Window is the query window in effect when the error occurred.
	Window record.Window

	// StatusCode is the HTTP status for server errors.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeNetwork indicates the fetch could not be completed.
	ErrCodeNetwork RunErrorCode = "NETWORK_ERROR"

	// ErrCodeServer indicates the source rejected the fetch.
	ErrCodeServer RunErrorCode = "SERVER_ERROR"

	// ErrCodeFilesystem indicates the output file could not be written or removed.
	ErrCodeFilesystem RunErrorCode = "FILESYSTEM_ERROR"

	// ErrCodeInvariant indicates a window or cursor check failed.
	ErrCodeInvariant RunErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Window.Start != "" || e.Window.End != "" {
		msg = fmt.Sprintf("%s (window=%s..%s)", msg, e.Window.Start, e.Window.End)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RunErrorCode) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsNetworkError returns true if the error is a network error.
// Uses errors.As to handle wrapped errors.
func IsNetworkError(err error) bool {
	return hasCode(err, ErrCodeNetwork)
}

// IsServerError returns true if the error is a server error.
func IsServerError(err error) bool {
	return hasCode(err, ErrCodeServer)
}

// IsFilesystemError returns true if the error is a filesystem error.
func IsFilesystemError(err error) bool {
	return hasCode(err, ErrCodeFilesystem)
}

// IsInvariantViolation returns true if the error is an invariant violation.
func IsInvariantViolation(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

// NewNetworkError creates a RunError for a failed fetch.
func NewNetworkError(w record.Window, err error) *RunError {
	return &RunError{
		Code:    ErrCodeNetwork,
		Message: "fetch failed",
		Window:  w,
		Err:     err,
	}
}

// NewServerError creates a RunError for a non-2xx source response.
func NewServerError(w record.Window, status int, body string) *RunError {
	msg := fmt.Sprintf("source returned status %d", status)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &RunError{
		Code:       ErrCodeServer,
		Message:    msg,
		Window:     w,
		StatusCode: status,
	}
}

// NewFilesystemError creates a RunError for an output file failure.
func NewFilesystemError(op string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeFilesystem,
		Message: op,
		Err:     err,
	}
}

// NewInvariantViolation creates a RunError for a failed window or cursor check.
func NewInvariantViolation(w record.Window, message string) *RunError {
	return &RunError{
		Code:    ErrCodeInvariant,
		Message: message,
		Window:  w,
	}
}
