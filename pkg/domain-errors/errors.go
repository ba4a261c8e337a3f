// Package domainerrors carries typed failures from services to transports.
//
// Services return *Error values (optionally wrapping an infrastructure cause);
// handlers translate the Code into a status without inspecting messages.
//
// Usage:
//
//	return dErrors.New(dErrors.CodeInvalidSession, "session expired")
//	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record")
//	if dErrors.HasCode(err, dErrors.CodeIntegrityViolation) { ... }
package domainerrors

import (
	"errors"
)

// Code is the stable, machine-readable failure kind.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limited"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Gateway taxonomy.
	CodeInvalidSession        Code = "invalid_session"
	CodeAuthenticationFailure Code = "authentication_failure"
	CodeIntegrityViolation    Code = "integrity_violation"
	CodeUnsupportedRuleMethod Code = "unsupported_rule_method"
	CodeInvalidConfiguration  Code = "invalid_configuration"
)

// Error is a domain failure with a code and a caller-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error without an underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost domain code, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message without the wrapped cause.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
