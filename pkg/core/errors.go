package core

import (
	"fmt"
)

// Error is the canonical error carried across package boundaries.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Op        string    `json:"op,omitempty"`
	Param     string    `json:"param,omitempty"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrAdapter        ErrorType = "adapter_error"
	ErrNoActiveAgent  ErrorType = "no_active_agent_error"
	ErrConfigDegraded ErrorType = "config_degraded_error"
	ErrInitFailure    ErrorType = "init_failure_error"
	ErrAPI            ErrorType = "api_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
	}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
		Param:   param,
	}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{
		Type:    ErrAuthentication,
		Message: message,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{
		Type:    ErrNotFound,
		Message: message,
	}
}

// NewAdapterError creates a room service transport error for the named
// operation. The adapter never retries; retry policy belongs to the caller.
func NewAdapterError(op string, cause error) *Error {
	return &Error{
		Type:    ErrAdapter,
		Message: fmt.Sprintf("room service request failed: %v", cause),
		Op:      op,
		cause:   cause,
	}
}

// NewNoActiveAgentError creates an error for operations that require a
// running agent session in the given room.
func NewNoActiveAgentError(roomID string) *Error {
	return &Error{
		Type:    ErrNoActiveAgent,
		Message: fmt.Sprintf("no active agent for room %q", roomID),
	}
}

// NewConfigDegradedError marks an optional dependency as unconfigured.
// Callers fall back to documented degraded behavior instead of failing.
func NewConfigDegradedError(dependency string) *Error {
	return &Error{
		Type:    ErrConfigDegraded,
		Message: fmt.Sprintf("%s is not configured", dependency),
		Param:   dependency,
	}
}

// NewInitFailureError creates an error for an agent session that failed to
// initialize. Terminal for that start attempt.
func NewInitFailureError(roomID string, cause error) *Error {
	return &Error{
		Type:    ErrInitFailure,
		Message: fmt.Sprintf("agent initialization failed for room %q: %v", roomID, cause),
		cause:   cause,
	}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{
		Type:    ErrAPI,
		Message: message,
	}
}
