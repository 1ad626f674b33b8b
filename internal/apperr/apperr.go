package apperr

import (
	"errors"
	"fmt"
)

// Kind is the coarse error class exposed to API clients.
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindBadInput        Kind = "BAD_USER_INPUT"
	KindInternal        Kind = "INTERNAL"
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Message is the client-safe text, without the wrapped cause.
func (e *Error) Message() string { return e.msg }

// Extensions satisfies the GraphQL extended-error hook so the kind travels
// to clients as extensions.code.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.kind)}
}

// KindOf reports the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
