package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the client.
type ErrorCode string

// Envelope and transport error codes
const (
	ErrRequestFailed     ErrorCode = "REQUEST_FAILED"
	ErrProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	ErrConnectionFailed  ErrorCode = "CONNECTION_FAILED"
	ErrStreamParse       ErrorCode = "STREAM_PARSE_ERROR"
	ErrUpstreamError     ErrorCode = "UPSTREAM_ERROR"
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCanceled          ErrorCode = "CANCELED"
)

// Task error codes
const (
	ErrTaskFailed    ErrorCode = "TASK_FAILED"
	ErrTaskCancelled ErrorCode = "TASK_CANCELLED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Operation  string    `json:"operation,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithOperation records which client operation produced the error.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// AsError extracts an *Error from the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// ErrorMessage returns the bare message of a structured error, or err.Error()
// for anything else. UIs show this rather than the coded form.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := AsError(err); ok {
		return e.Message
	}
	return err.Error()
}
