// Package apperr defines the error kinds the workflow layer returns and the
// HTTP status each kind maps to.
//
// Stores return sentinel errors (ErrDuplicateApplication and friends);
// handlers wrap them into an *Error with a kind and a message that is safe
// to show to the end user. Validation and conflict errors are actionable
// and surfaced verbatim; dependency errors carry a remediation hint;
// internal errors are logged in full server-side and shown generically.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation policy and status mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindDependency   Kind = "dependency"
	KindInternal     Kind = "internal"
)

// Error is a classified, user-presentable error.
type Error struct {
	Kind    Kind
	Message string
	Remedy  string // optional remediation hint, shown after Message
	Err     error  // underlying cause, for logs only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text shown to the caller. Internal errors collapse to
// a generic message; everything else is actionable as-is.
func (e *Error) UserMessage() string {
	if e.Kind == KindInternal {
		return "An unexpected error occurred. Please try again."
	}
	if e.Remedy != "" {
		return e.Message + " " + e.Remedy
	}
	return e.Message
}

// HTTPStatus maps the error kind to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "Sign in required."}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Dependency wraps a hard external-service failure. The remedy is appended
// to the user-visible message so the caller knows how to fix it.
func Dependency(err error, msg, remedy string) *Error {
	return &Error{Kind: KindDependency, Message: msg, Remedy: remedy, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// From extracts an *Error from err, wrapping unknown errors as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
