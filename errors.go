package objstore

import "github.com/nimbusdb/objstore/internal/objerr"

// Kind classifies why an engine operation failed (spec.md §1/§7).
type Kind = objerr.Kind

const (
	// KindConfigInvalid means the policy cannot be satisfied for this input.
	KindConfigInvalid = objerr.KindConfigInvalid
	// KindLogic means the caller violated the engine's contract.
	KindLogic = objerr.KindLogic
	// KindRemote means the object store rejected or failed the request.
	KindRemote = objerr.KindRemote
	// KindTransient means a retried-away condition (phantom NoSuchKey)
	// that should never reach the caller; seeing it escape is a bug.
	KindTransient = objerr.KindTransient
)

// Error is the error type returned by every exported operation in this
// module. Use errors.As to recover it and inspect Kind.
type Error = objerr.Error

func configInvalidf(format string, args ...interface{}) *Error {
	return objerr.ConfigInvalidf(format, args...)
}

func logicf(format string, args ...interface{}) *Error {
	return objerr.Logicf(format, args...)
}

func remotef(cause error, format string, args ...interface{}) *Error {
	return objerr.Remotef(cause, format, args...)
}

// IsKind reports whether err is an *Error of the given Kind, unwrapping
// along the way.
func IsKind(err error, kind Kind) bool {
	return objerr.Is(err, kind)
}
