package session

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure.
type Kind int

const (
	KindPrecondition Kind = iota // invalid settings or no images
	KindDecode                   // an input image failed to decode
	KindCapability               // no usable encoder could be negotiated
	KindSink                     // the encoder sink failed mid-generation
	KindInternal                 // a defect, e.g. unresolvable timeline state
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindDecode:
		return "decode"
	case KindCapability:
		return "capability"
	case KindSink:
		return "sink"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Error is the typed failure a session surfaces to its caller.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain, defaulting to
// KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
