package marketplace

import (
    "errors"
    "fmt"
)

// Kind classifies an operation failure. Every caller-visible failure from
// this package carries exactly one of these, so the HTTP layer can map it
// to a status once instead of every handler inventing its own.
type Kind string

const (
    KindNotFound     Kind = "not_found"
    KindUnauthorized Kind = "unauthorized"
    KindInvalidState Kind = "invalid_state"
    KindConflict     Kind = "conflict"
    KindValidation   Kind = "validation"
)

// Error is a typed operation failure with a message specific enough to
// render to the user as-is.
type Error struct {
    Kind    Kind   `json:"kind"`
    Message string `json:"message"`
}

func (e *Error) Error() string {
    return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func notFoundf(format string, args ...any) error {
    return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func unauthorizedf(format string, args ...any) error {
    return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func invalidStatef(format string, args ...any) error {
    return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
    return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
    return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrKind extracts the Kind from err, or "" for untyped (internal) errors.
func ErrKind(err error) Kind {
    var e *Error
    if errors.As(err, &e) {
        return e.Kind
    }
    return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
    return ErrKind(err) == k
}
