package api

import "fmt"

// ErrorKind categorizes an error for the HTTP boundary and for callers
// deciding whether a retry makes sense.
type ErrorKind string

const (
	// ErrorKindInvalidInput marks a caller mistake. Never retried.
	ErrorKindInvalidInput ErrorKind = "invalid_input"
	// ErrorKindNotFound marks a missing thread or agent. Not retryable
	// without the caller correcting the identifier.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindConflict marks a same-thread race. The caller may retry
	// after backing off.
	ErrorKindConflict ErrorKind = "conflict"
	// ErrorKindConnection marks a transient upstream I/O failure. The
	// whole turn is safe to retry.
	ErrorKindConnection ErrorKind = "connection_error"
	// ErrorKindRunFailed marks an upstream-reported run failure, surfaced
	// verbatim. Never retried automatically.
	ErrorKindRunFailed ErrorKind = "run_failed"
	// ErrorKindTimeout marks a run deadline exceeded. The caller may retry;
	// the original run's fate is unknown and left alone.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindServer marks an internal failure (recovered panic, broken
	// invariant).
	ErrorKindServer ErrorKind = "server_error"
)

// CodeUnauthorized is set on connection errors caused by an upstream
// 401/403 so the health prober can distinguish credential problems from
// plain unreachability.
const CodeUnauthorized = "unauthorized"

// Error is a structured error with a stable kind string, an optional
// machine-readable code, the offending parameter (for validation errors),
// and a human-readable message safe to return to clients.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Kind, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ErrorResponse wraps an Error for JSON serialization as the top-level
// error payload.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// NewInvalidInputError creates an Error for invalid request parameters.
func NewInvalidInputError(param, message string) *Error {
	return &Error{
		Kind:    ErrorKindInvalidInput,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an Error for resources that cannot be found.
func NewNotFoundError(message string) *Error {
	return &Error{
		Kind:    ErrorKindNotFound,
		Message: message,
	}
}

// NewConflictError creates an Error for a same-thread run race.
func NewConflictError(message string) *Error {
	return &Error{
		Kind:    ErrorKindConflict,
		Message: message,
	}
}

// NewConnectionError creates an Error for upstream I/O failures.
func NewConnectionError(message string) *Error {
	return &Error{
		Kind:    ErrorKindConnection,
		Message: message,
	}
}

// NewRunFailedError creates an Error carrying an upstream run failure.
// The code holds the upstream error code when one was reported.
func NewRunFailedError(code, message string) *Error {
	return &Error{
		Kind:    ErrorKindRunFailed,
		Code:    code,
		Message: message,
	}
}

// NewTimeoutError creates an Error for a run deadline exceeded.
func NewTimeoutError(message string) *Error {
	return &Error{
		Kind:    ErrorKindTimeout,
		Message: message,
	}
}

// NewServerError creates an Error for internal failures.
func NewServerError(message string) *Error {
	return &Error{
		Kind:    ErrorKindServer,
		Message: message,
	}
}
