// Package errors provides the structured error type shared by the api
// client, the session backends and the store.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is a stable, machine-readable error classification.
type ErrorCode string

const (
	ErrCodeNetwork          ErrorCode = "NETWORK_ERROR"
	ErrCodeHTTP             ErrorCode = "HTTP_ERROR"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeDecode           ErrorCode = "DECODE_ERROR"
	ErrCodeShapeMismatch    ErrorCode = "SHAPE_MISMATCH"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeSessionStore     ErrorCode = "SESSION_STORE_ERROR"
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeRealtime         ErrorCode = "REALTIME_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// DefaultUserMessage is shown when neither the server nor the transport
// produced anything readable.
const DefaultUserMessage = "Something went wrong"

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("StandardError[%s %d]: %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// Constructors
// ==========================

// NewNetworkError wraps a transport failure. The transport text becomes the
// user-facing message.
func NewNetworkError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   err.Error(),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewHTTPError builds the error for a non-2xx response. serverMessage is the
// envelope "message" and may be empty.
func NewHTTPError(status int, serverMessage, body string) *StandardError {
	code := ErrCodeHTTP
	if status == http.StatusUnauthorized {
		code = ErrCodeUnauthorized
	}
	msg := serverMessage
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", status)
	}
	return &StandardError{
		Code:       code,
		Message:    msg,
		Details:    body,
		StatusCode: status,
		Retryable:  status >= http.StatusInternalServerError,
		Timestamp:  time.Now().UTC(),
	}
}

// NewDecodeError reports a response body that could not be parsed.
func NewDecodeError(what string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecode,
		Message:   fmt.Sprintf("failed to decode %s", what),
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewShapeMismatchError reports a successful response whose payload is not
// the expected shape.
func NewShapeMismatchError(expected, got string) *StandardError {
	return &StandardError{
		Code:      ErrCodeShapeMismatch,
		Message:   fmt.Sprintf("expected %s payload", expected),
		Details:   fmt.Sprintf("expected %s, got %s", expected, got),
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError rejects input before it reaches the network.
func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError wraps a session backend failure.
func NewSessionStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStore,
		Message:   fmt.Sprintf("session store %s failed", op),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotAuthenticatedError is returned when an operation needs a session and
// none is stored.
func NewNotAuthenticatedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNotAuthenticated,
		Message:   "You need to sign in first",
		Timestamp: time.Now().UTC(),
	}
}

// NewRealtimeError reports that the realtime feed gave up reconnecting.
func NewRealtimeError(attempts int, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeRealtime,
		Message:   fmt.Sprintf("realtime connection failed after %d attempts", attempts),
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"attempts": attempts},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// Inspection helpers
// ==========================

// AsStandard unwraps err to a *StandardError if there is one in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code, or ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsUnauthorized reports whether err came from a 401 response.
func IsUnauthorized(err error) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == ErrCodeUnauthorized
}

// UserMessage extracts the string a rejected action carries: the server's
// envelope message, then the transport error text, then a generic fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok && stdErr.Message != "" {
		return stdErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultUserMessage
}
