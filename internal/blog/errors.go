package blog

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can map it to a status
// code without inspecting messages.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindPreconditionFailed
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation failed"
	case KindUnauthenticated:
		return "authentication required"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindPreconditionFailed:
		return "precondition failed"
	}
	return "unknown error"
}

// Error is the error type returned by Service methods for every expected
// failure. Anything else reaching the boundary is an internal fault.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps input field names to messages for validation failures.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, blog.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Invalid returns a validation error for a single field.
func Invalid(field, message string) error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// Conflictf returns a uniqueness-violation error. Stores use it when the
// database rejects a duplicate.
func Conflictf(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

// Unauthenticatedf returns a failed-authentication error.
func Unauthenticatedf(format string, args ...any) error {
	return newError(KindUnauthenticated, format, args...)
}

// NotFoundf returns a missing-entity error.
func NotFoundf(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

// Forbiddenf returns an authorization failure.
func Forbiddenf(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

// PreconditionFailedf returns an error for a delete blocked by children.
func PreconditionFailedf(format string, args ...any) error {
	return newError(KindPreconditionFailed, format, args...)
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
