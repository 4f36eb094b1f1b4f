package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the outcomes a caller can act on.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidInput
)

// Forbidden reason codes surfaced to the request layer.
const (
	ReasonPrivateUser = "PRIVATE_USER"
	ReasonBlockedUser = "BLOCKED_USER"
)

// Error carries a kind, an optional machine-readable reason and a message.
type Error struct {
	Kind    Kind
	Reason  string
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

// NotFound reports that the record or edge required for the requested
// transition does not exist.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict reports a transition attempted from a state that already satisfies
// or forbids it.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Forbidden reports a visibility or block rule violation.
func Forbidden(reason, msg string) error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: msg}
}

// InvalidInput reports malformed identifiers or out-of-range values.
func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// Internal wraps a store or transactional failure. The wrapped error is kept
// for logs but never shown to callers.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Classify passes an already-classified error through unchanged and wraps
// anything else as Internal, so store internals never leak past a service
// boundary.
func Classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(msg, err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the safe, caller-facing message of err. Unclassified errors
// get a generic message instead of their raw text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// ReasonOf returns the reason code of err, if any.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
