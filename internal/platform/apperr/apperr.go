package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an application error and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindReference
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Error is the error type returned by services. Handlers pass it through
// unchanged and the catch-all error handler renders it.
type Error struct {
	Kind     Kind
	Message  string
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code. References that fail to
// resolve at write time are a client mistake (400); a missing target of an
// update or delete is 404. Uniqueness violations stay 400.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindReference, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(messages ...string) *Error {
	return &Error{Kind: KindValidation, Messages: messages}
}

func Reference(message string) *Error {
	return &Error{Kind: KindReference, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Internal wraps an unexpected failure. message is what clients see; err is
// only exposed outside production.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
