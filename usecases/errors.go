package usecases

import (
	"errors"
	"net/http"
)

// Kind classifies a use-case failure and decides the HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindPermission
	KindNotFound
	KindConflict
)

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every use case. Message is safe to show to clients;
// Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func authError(msg string) error       { return &Error{Kind: KindAuth, Message: msg} }
func notFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func conflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err; errors that did not come from a use case
// are internal.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindInternal
}
