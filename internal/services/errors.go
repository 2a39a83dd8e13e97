package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds raised by the services. Match them with errors.Is.
var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")

	// ErrMiscellaneous is the catch-all client error; it shares BadRequest's status.
	ErrMiscellaneous = ErrBadRequest
)

// Error is a typed failure carrying a client-facing message and, for
// internal failures, the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func notAuthorized(msg string) error {
	return &Error{Kind: ErrNotAuthorized, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func badRequest(format string, args ...any) error {
	return &Error{Kind: ErrBadRequest, Message: fmt.Sprintf(format, args...)}
}

func internal(msg string, err error) error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}

// StatusCode maps an error to the HTTP status the transport should use.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message of err. Untyped errors never
// leak their text.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return "An error has occurred"
}
