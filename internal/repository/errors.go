package repository

import (
	"errors"
	"fmt"
)

// Kind classifies repository failures so callers can switch on them
// instead of comparing error strings.
type Kind int

const (
	// KindInternal covers every failure the repository does not recognise
	// (driver errors, malformed ids, cancelled contexts).
	KindInternal Kind = iota
	// KindIllegalArgument is a caller contract violation: missing record,
	// missing id.
	KindIllegalArgument
	// KindNotFound means the referenced id does not exist.
	KindNotFound
	// KindValidation is a schema or uniqueness violation.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindIllegalArgument:
		return "IllegalArgument"
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	default:
		return "Internal"
	}
}

// FieldError describes one invalid field of a validation failure.
type FieldError struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Value   any    `json:"value,omitempty"`
}

// Error is the error type returned by Repository operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details map[string]FieldError
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind, so errors.Is(err, ErrNotFound)
// holds for every not-found Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Details != nil {
		return false
	}
	return t.Kind == e.Kind && t.Message == sentinelMessage(e.Kind)
}

var (
	ErrIllegalArgument = &Error{Kind: KindIllegalArgument, Message: sentinelMessage(KindIllegalArgument)}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: sentinelMessage(KindNotFound)}
	ErrValidation      = &Error{Kind: KindValidation, Message: sentinelMessage(KindValidation)}
)

func sentinelMessage(k Kind) string {
	switch k {
	case KindIllegalArgument:
		return "illegal argument"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation failed"
	}
	return ""
}

// KindOf returns the kind of err, or KindInternal when err is not a
// repository Error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// DetailsOf returns the field errors attached to err, if any.
func DetailsOf(err error) map[string]FieldError {
	var re *Error
	if errors.As(err, &re) {
		return re.Details
	}
	return nil
}

func IsIllegalArgument(err error) bool { return KindOf(err) == KindIllegalArgument }
func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool      { return KindOf(err) == KindValidation }

func illegalArgument(op, msg string) error {
	return &Error{Kind: KindIllegalArgument, Op: op, Message: msg}
}

func notFound(op, resource string, cause error) error {
	return &Error{Kind: KindNotFound, Op: op, Message: resource + " not found", Err: cause}
}

func validationFailed(op, resource string, details map[string]FieldError, cause error) error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: validationMessage(resource, details),
		Details: details,
		Err:     cause,
	}
}
