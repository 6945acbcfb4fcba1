// Package fault defines the error kinds that cross component boundaries in texclip.
//
// Components wrap their causes in an *Error carrying a Kind so the dispatcher can
// map any failure to a status string without knowing which package produced it.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Unknown is reported for errors that carry no Kind.
	Unknown Kind = iota
	// NoImage means the clipboard holds no raster image.
	NoImage
	// Persistence means the captured image could not be written to disk.
	Persistence
	// Transport means the recognition endpoint was unreachable, failed or timed out.
	Transport
	// Recognition means the remote service reported failure or a recognizer produced nothing.
	Recognition
	// Encoding means the byte encoding step produced nothing.
	Encoding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case NoImage:
		return "no_image"
	case Persistence:
		return "persistence"
	case Transport:
		return "transport"
	case Recognition:
		return "recognition"
	case Encoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "persist" or "recognize".
	Op  string
	Err error
}

// New creates a classified error. A nil cause is allowed.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates a classified error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, fault.Transport) match on the kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}
