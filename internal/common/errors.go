package common

import (
	"errors"
	"fmt"
)

// Kind classifies failures so transports can map them without string matching.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindResource     Kind = "resource"
)

// Error carries a Kind, a machine-readable Code and a human message.
type Error struct {
	Kind Kind
	Code string
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

func newError(kind Kind, code, msg string) *Error {
	if code == "" {
		code = string(kind)
	}
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func Unauthorized(msg string) error { return newError(KindUnauthorized, "", msg) }

func Forbidden(msg string) error { return newError(KindForbidden, "", msg) }

func NotFound(msg string) error { return newError(KindNotFound, "", msg) }

// Invalid builds a validation error with a specific code, e.g. "empty_message".
func Invalid(code, msg string) error { return newError(KindValidation, code, msg) }

// ResourceFailure wraps an underlying storage failure.
func ResourceFailure(msg string, err error) error {
	e := newError(KindResource, "", msg)
	e.Err = err
	return e
}

// KindOf returns the Kind of err, or KindResource for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindResource
}

// CodeOf returns the machine-readable code of err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return string(KindResource)
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
