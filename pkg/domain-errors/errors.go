// Package domainerrors defines the coded error model shared by every layer.
// Services attach a Code to each rejection so callers and the HTTP layer can
// act on the kind of failure without string matching.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error. The set is closed: every rejected
// operation surfaces exactly one of these to the caller.
type Code string

const (
	// Validation: rejected before any mutation, recoverable by retrying
	// with corrected input.
	CodeAlreadyRegistered Code = "already_registered"
	CodeZeroPremium       Code = "zero_premium"
	CodeBadRequest        Code = "bad_request"
	CodeInvalidInput      Code = "invalid_input"

	// Authorization: rejected before any mutation.
	CodeUnauthorized Code = "unauthorized"

	// Resource: detected per-policy during a claim cycle.
	CodeOverflow          Code = "overflow"
	CodeInsufficientFunds Code = "insufficient_funds"

	// Collaborator.
	CodeOracleUnavailable Code = "oracle_unavailable"

	CodeNotFound Code = "not_found"
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeAlreadyRegistered:
		return http.StatusConflict
	case CodeZeroPremium, CodeBadRequest, CodeInvalidInput, CodeOverflow:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInsufficientFunds:
		return http.StatusConflict
	case CodeOracleUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
