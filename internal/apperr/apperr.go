// Package apperr classifies failures returned by the core so presentation
// layers can report them without inspecting storage errors.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Validation Kind = iota + 1
	// NotFound also covers records owned by another user. The two cases are
	// reported identically.
	NotFound
	Conflict
	Expired
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Expired:
		return "expired"
	case Persistence:
		return "persistence"
	}
	return "unknown"
}

// Error is a classified failure. Message is safe to show to the user; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

func Missing(what string) *Error {
	return &Error{Kind: NotFound, Message: what + " not found or access denied"}
}

func Conflicting(format string, args ...any) *Error {
	return &Error{Kind: Conflict, Message: fmt.Sprintf(format, args...)}
}

func Expiredf(format string, args ...any) *Error {
	return &Error{Kind: Expired, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a storage failure behind a generic message.
func Storage(message string, cause error) *Error {
	return &Error{Kind: Persistence, Message: message, Err: cause}
}

// KindOf returns the Kind of err, or Persistence for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Persistence
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Message returns the user-facing text for err. Unclassified errors never
// leak their detail.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
