package types

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindUnsupported ErrKind = iota + 1 // unknown container/codec kind, encryption, legacy variants
	ErrKindMalformed                      // truncated header, inconsistent tables, bad chunk length
	ErrKindIO                             // stream read/seek/write failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindUnsupported:
		return "unsupported format"
	case ErrKindMalformed:
		return "malformed data"
	case ErrKindIO:
		return "i/o failure"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is one of the kind sentinels below and shares
// e's kind. This lets errors.Is(err, ErrMalformed) match any malformed error
// regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	if t == e {
		return true
	}
	return t.Err == nil && t.Msg == t.Kind.String() && t.Kind == e.Kind
}

// Sentinels commonly returned by implementations. Compare with errors.Is.
var (
	// ErrUnsupported indicates a recognized but unsupported variant or codec.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: ErrKindUnsupported.String()}
	// ErrMalformed indicates the data is truncated or internally inconsistent.
	ErrMalformed = &Error{Kind: ErrKindMalformed, Msg: ErrKindMalformed.String()}
	// ErrIO indicates the underlying stream failed.
	ErrIO = &Error{Kind: ErrKindIO, Msg: ErrKindIO.String()}
)

// Unsupported builds an ErrKindUnsupported error.
func Unsupported(format string, args ...any) error {
	return &Error{Kind: ErrKindUnsupported, Msg: fmt.Sprintf(format, args...)}
}

// Malformed builds an ErrKindMalformed error.
func Malformed(format string, args ...any) error {
	return &Error{Kind: ErrKindMalformed, Msg: fmt.Sprintf(format, args...)}
}

// MalformedCause builds an ErrKindMalformed error wrapping cause.
func MalformedCause(cause error, format string, args ...any) error {
	return &Error{Kind: ErrKindMalformed, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// IOFailure wraps a stream error as ErrKindIO.
func IOFailure(cause error, format string, args ...any) error {
	return &Error{Kind: ErrKindIO, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
