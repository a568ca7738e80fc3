// Package apperr defines the error taxonomy shared by all IPD domain
// services: validation, conflict, not-found, and internal. Handlers map the
// kind to an HTTP status; services construct errors with enough context for
// the caller to retry against fresh data.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and caller recovery.
type Kind int

const (
	// KindInternal is an unexpected failure (storage, network). Opaque to callers.
	KindInternal Kind = iota
	// KindValidation is malformed or missing input. Rejected before any state change.
	KindValidation
	// KindConflict is a state-dependent precondition failure (bed taken,
	// encounter already terminal). The caller should re-fetch and retry.
	KindConflict
	// KindNotFound is a reference to a record that does not exist.
	KindNotFound
)

// Error carries a kind, a caller-facing message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(resource string, id interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %v not found", resource, id)}
}

// Internal wraps an unexpected failure. The message shown to callers is
// generic; the cause travels with the error for logging.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// AsHTTP resolves err to an HTTP status and caller-facing message. Internal
// causes are never leaked to the response.
func AsHTTP(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.HTTPStatus(), ae.Msg
	}
	return http.StatusInternalServerError, "internal error"
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
