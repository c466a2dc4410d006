// Package apperr defines the classified failures produced by services and
// guards. Anything that is not an *Error is treated as internal.
package apperr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the closed set of domain failure reasons.
type Kind int

const (
	NotFound Kind = iota + 1
	ValidationFailed
	Unauthorized
	Forbidden
)

// Code is the machine readable identifier sent to clients.
func (k Kind) Code() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case ValidationFailed:
		return "VALIDATION_FAILED"
	case Unauthorized:
		return "UNAUTHORIZED"
	case Forbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

func (k Kind) String() string {
	return k.Code()
}

// Violation is one failed rule of an input field.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is a classified domain failure.
type Error struct {
	Kind    Kind
	Message string
	Details any
	stack   error
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: NotFound}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// StackTrace returns the formatted call stack recorded when the error was built.
func (e *Error) StackTrace() string {
	if e.stack == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.stack)
}

func newError(kind Kind, message string, details any) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Details: details,
		stack:   pkgerrors.New(message),
	}
}

func NewNotFound(message string, details any) *Error {
	return newError(NotFound, message, details)
}

func NewValidationFailed(message string, details any) *Error {
	return newError(ValidationFailed, message, details)
}

func NewUnauthorized(message string, details any) *Error {
	return newError(Unauthorized, message, details)
}

func NewForbidden(message string, details any) *Error {
	return newError(Forbidden, message, details)
}

// As returns the classified error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err, or zero when err is unclassified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return 0
}
