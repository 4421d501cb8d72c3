package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error so handlers can translate it into an HTTP status
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
	KindUpstream
)

// Error carries a kind plus a caller-facing message. The wrapped cause, if
// any, is kept for logs only and never serialized to clients.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that a referenced entity does not exist.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden reports that the caller is not the owner/author the action requires.
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Conflict reports a violated uniqueness invariant or workflow precondition.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Validation reports malformed input.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// Upstream reports that the authoritative store or blob storage failed.
func Upstream(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message of err. Untyped errors fall
// back to a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
