// Package apperr defines the closed set of error kinds the API surfaces to
// callers. Services return these; the echo error handler maps each kind to an
// HTTP status. Internal causes are logged server-side and never leak into
// responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindUnauthenticated rejects a request before any business logic runs:
	// missing, invalid, or expired token.
	KindUnauthenticated Kind = iota + 1
	// KindForbidden means a role or ownership gate failed.
	KindForbidden
	// KindNotFound means a referenced resource id does not exist.
	KindNotFound
	// KindInvalid covers malformed input, unknown enumeration values,
	// non-positive quantities and duplicate unique keys.
	KindInvalid
	// KindConflict means a lifecycle precondition was violated.
	KindConflict
	// KindInternal covers storage failures and misconfiguration.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, logged but not surfaced
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Unauthenticated(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthenticated, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Internal wraps cause so it can be logged; the caller only sees a generic
// message.
func Internal(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf extracts the kind from err, unwrapping as needed. Errors that are
// not apperr errors are treated as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// Message returns the caller-safe message for err. Internal errors get a
// generic message regardless of their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal server error"
}
