// Package errors provides coded domain errors shared across services and the
// HTTP layer. Codes classify failures; the transport layer maps them to status
// codes without inspecting error strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeInvalidInput marks malformed upstream data (non-ascending dates,
	// negative counts). Rejected before any computation runs.
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks a malformed client request.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound marks a lookup miss (unknown state or district).
	CodeNotFound Code = "not_found"

	// CodeComputation marks a numeric failure (NaN/Inf) on pathological input.
	// The affected district is skipped; the batch completes.
	CodeComputation Code = "computation_error"

	// CodeInternal marks unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code alongside a human-readable message and optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, defaulting to an empty string for
// non-coded errors so internals never leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// ToHTTPStatus maps a code to the status the serving layer should return.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeComputation, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
