// Package objerr holds the error type shared by the root objstore
// package and its subpackages (partsize, internal/engine).
// It exists so those subpackages can construct the same error type the
// public API returns without creating an import cycle back to the root
// package; objstore re-exports everything here under its own names.
package objerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an engine operation failed (spec.md §7).
type Kind int

const (
	KindConfigInvalid Kind = iota
	KindLogic
	KindRemote
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindLogic:
		return "Logic"
	case KindRemote:
		return "Remote"
	case KindTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every exported operation in this
// module.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func ConfigInvalidf(format string, args ...interface{}) *Error {
	return New(KindConfigInvalid, nil, format, args...)
}

func Logicf(format string, args ...interface{}) *Error {
	return New(KindLogic, nil, format, args...)
}

func Remotef(cause error, format string, args ...interface{}) *Error {
	return New(KindRemote, cause, format, args...)
}

func Transientf(cause error, format string, args ...interface{}) *Error {
	return New(KindTransient, cause, format, args...)
}

// Is reports whether err is an *Error of the given Kind, unwrapping
// along the way.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
