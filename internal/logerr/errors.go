// Package logerr provides the error taxonomy of the commit log.
//
// Every error produced by the commit log carries a Kind. Callers check the kind with errors.Is against the sentinel
// values (ErrNotFound, ErrClosed, ...) and access the structured context with errors.As on *Error.
package logerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error of the commit log.
type Kind int

const (
	KindIo Kind = iota + 1 // We do not start at 0 to detect missing values.
	KindInvalidFormat
	KindChecksumMismatch
	KindNotFound
	KindClosed
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindIo:
		return "io"
	case KindInvalidFormat:
		return "invalid format"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindNotFound:
		return "not found"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sentinel errors to match against with errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrIo               = errors.New("commit log I/O failure")
	ErrInvalidFormat    = errors.New("invalid commit log record format")
	ErrChecksumMismatch = errors.New("commit log record checksum mismatch")
	ErrNotFound         = errors.New("commit log offset not found")
	ErrClosed           = errors.New("commit log is closed")

	// ErrCorruption is matched by errors which stop the commit log from starting up, because a sealed segment is not
	// internally complete.
	ErrCorruption = errors.New("commit log is corrupted")
)

// Error is the structured error returned by the commit log.
type Error struct {
	// Kind classifies the error.
	Kind Kind

	// Op names the operation which failed, like "append", "read" or "recover".
	Op string

	// Segment is the identifier of the segment involved, if HasSegment is set.
	Segment    uint64
	HasSegment bool

	// Position is the byte position inside the segment, or -1 when not applicable.
	Position int64

	// Offset is the logical offset involved, if HasOffset is set.
	Offset    uint64
	HasOffset bool

	// Expected and Actual carry the compared values for format and checksum violations.
	Expected uint64
	Actual   uint64

	// Fatal is set for corruption which prevents the commit log from becoming ready.
	Fatal bool

	// Err is the underlying cause. Can be nil.
	Err error
}

// New creates an error of the given kind for the given operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind:     kind,
		Op:       op,
		Position: -1,
		Err:      err,
	}
}

// Io wraps an error of the underlying storage.
func Io(op string, err error) *Error {
	return New(KindIo, op, err)
}

// InvalidFormat creates a format violation with the given description.
func InvalidFormat(op string, format string, args ...any) *Error {
	return New(KindInvalidFormat, op, fmt.Errorf(format, args...))
}

// NotFound creates a not found error for the given offset.
func NotFound(op string, offset uint64) *Error {
	return New(KindNotFound, op, nil).WithOffset(offset)
}

// Closed creates an error for an operation on a closed commit log.
func Closed(op string) *Error {
	return New(KindClosed, op, nil)
}

// WithSegment returns the error with the segment set.
func (e *Error) WithSegment(segment uint64) *Error {
	e.Segment = segment
	e.HasSegment = true
	return e
}

// WithPosition returns the error with the byte position set.
func (e *Error) WithPosition(position int64) *Error {
	e.Position = position
	return e
}

// WithOffset returns the error with the logical offset set.
func (e *Error) WithOffset(offset uint64) *Error {
	e.Offset = offset
	e.HasOffset = true
	return e
}

// WithValues returns the error with the expected and actual values set.
func (e *Error) WithValues(expected uint64, actual uint64) *Error {
	e.Expected = expected
	e.Actual = actual
	return e
}

// AsFatal returns the error marked as fatal corruption.
func (e *Error) AsFatal() *Error {
	e.Fatal = true
	return e
}

func (e *Error) Error() string {
	var builder strings.Builder
	if e.Op != "" {
		builder.WriteString(e.Op)
		builder.WriteString(": ")
	}
	if e.Fatal {
		builder.WriteString("fatal corruption: ")
	}
	builder.WriteString(e.Kind.String())
	if e.HasSegment {
		fmt.Fprintf(&builder, " in segment %d", e.Segment)
	}
	if e.Position >= 0 {
		fmt.Fprintf(&builder, " at position %d", e.Position)
	}
	if e.HasOffset {
		fmt.Fprintf(&builder, " for offset %d", e.Offset)
	}
	if e.Kind == KindChecksumMismatch {
		fmt.Fprintf(&builder, " (expected 0x%08X, got 0x%08X)", e.Expected, e.Actual)
	}
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target is the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIo:
		return e.Kind == KindIo
	case ErrInvalidFormat:
		return e.Kind == KindInvalidFormat
	case ErrChecksumMismatch:
		return e.Kind == KindChecksumMismatch
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrClosed:
		return e.Kind == KindClosed
	case ErrCorruption:
		return e.Fatal
	default:
		return false
	}
}

// KindOf returns the kind of the first *Error in the chain of err, or 0 if there is none.
func KindOf(err error) Kind {
	var logErr *Error
	if errors.As(err, &logErr) {
		return logErr.Kind
	}
	return 0
}

// IsFrameInvalid reports whether err rejects a single frame: either a format violation or a checksum mismatch.
func IsFrameInvalid(err error) bool {
	kind := KindOf(err)
	return kind == KindInvalidFormat || kind == KindChecksumMismatch
}
