// Package apperr defines the error taxonomy shared by the mutation pipeline.
//
// Every error a service returns to the HTTP layer belongs to one of these kinds,
// so handlers can map failures to distinct statuses (404 vs 409 vs 400) without
// string matching. Internal failures stay untyped and map to a generic 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindVersionConflict
	KindValidation
	KindAuthorizationDenied
	KindDependencyConflict
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches by kind, so errors.Is(err, apperr.ErrVersionConflict) works for any
// wrapped error of the same kind regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrVersionConflict     = &Error{Kind: KindVersionConflict, Message: "version conflict: record was modified by another request"}
	ErrValidation          = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrAuthorizationDenied = &Error{Kind: KindAuthorizationDenied, Message: "permission denied"}
	ErrDependencyConflict  = &Error{Kind: KindDependencyConflict, Message: "record has dependents and cannot be removed"}
)

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a ValidationFailure with a specific reason string.
func Validationf(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// KindOf returns the taxonomy kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to the wire status. VersionConflict and
// DependencyConflict both surface as 409 but with distinct codes in the body.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindVersionConflict, KindDependencyConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorizationDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code for API bodies.
func Code(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return "NOT_FOUND"
	case KindVersionConflict:
		return "VERSION_CONFLICT"
	case KindValidation:
		return "VALIDATION_FAILURE"
	case KindAuthorizationDenied:
		return "FORBIDDEN"
	case KindDependencyConflict:
		return "DEPENDENCY_CONFLICT"
	default:
		return "INTERNAL"
	}
}
