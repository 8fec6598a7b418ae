package services

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is(err, services.ErrCapacity).
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrCapacity   = errors.New("no capacity")
	ErrAuth       = errors.New("unauthenticated")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a domain failure whose message is safe to show to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the caller-facing message of a domain error, or "" for
// anything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
