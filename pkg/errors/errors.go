package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the families the HTTP layer understands.
type Kind string

// Error kinds.
const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindNotFound        Kind = "NOT_FOUND"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
	KindInternal        Kind = "INTERNAL"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports kind equality so errors.Is(err, ErrNotFound) matches clones.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a new Error instance.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrBadRequest      = New(KindBadRequest, http.StatusBadRequest, "Bad request")
	ErrUnauthorized    = New(KindUnauthorized, http.StatusUnauthorized, "Unauthorized")
	ErrNotFound        = New(KindNotFound, http.StatusNotFound, "Not found")
	ErrTooManyRequests = New(KindTooManyRequests, http.StatusTooManyRequests, "Too many requests")
	ErrInternal        = New(KindInternal, http.StatusInternalServerError, "Internal server error")
	ErrRouteNotFound   = New(KindNotFound, http.StatusNotFound, "Endpoint not found")
)

// BadRequest returns a 400 error with the given message.
func BadRequest(message string) *Error {
	return Clone(ErrBadRequest, message)
}

// NotFound returns a 404 error with the given message.
func NotFound(message string) *Error {
	return Clone(ErrNotFound, message)
}

// Internal wraps an unexpected failure. The message is kept for logs only.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Kind, ErrInternal.Status, message)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Kind, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// PublicMessage is the message safe to return to clients. Internal failures
// never leak their detail.
func (e *Error) PublicMessage() string {
	if e == nil || e.Kind == KindInternal {
		return ErrInternal.Message
	}
	return e.Message
}
