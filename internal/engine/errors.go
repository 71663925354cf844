package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/framekb/internal/ir"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a frame, slot or procedure does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvariantViolation indicates a rejected mutation or malformed
	// input. State is left unchanged.
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeDepthExceeded indicates demons nested deeper than MaxDepth.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// Error is the single error type returned by FrameBase operations.
//
// NoValue and an empty query result are not errors; they are reported
// through return values.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the public operation that failed.
	Op ir.OpName

	// Frame and Slot locate the failure when known.
	Frame string
	Slot  string

	// Message is a human-readable description.
	Message string

	// Err is an underlying cause, such as a condition parse error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(" ")
	}
	switch {
	case e.Frame != "" && e.Slot != "":
		fmt.Fprintf(&b, "%s.%s: ", e.Frame, e.Slot)
	case e.Frame != "":
		fmt.Fprintf(&b, "%s: ", e.Frame)
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, op ir.OpName, frame, slot, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Frame:   frame,
		Slot:    slot,
		Message: fmt.Sprintf(format, args...),
	}
}

func errNotFound(op ir.OpName, frame, slot, format string, args ...any) *Error {
	return newError(ErrCodeNotFound, op, frame, slot, format, args...)
}

func errInvariant(op ir.OpName, frame, slot, format string, args ...any) *Error {
	return newError(ErrCodeInvariantViolation, op, frame, slot, format, args...)
}

// Code returns the ErrorCode of err, or "" if err is not an engine error.
// Uses errors.As to handle wrapped errors.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND engine error.
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}

// IsInvariantViolation reports whether err is an INVARIANT_VIOLATION engine error.
func IsInvariantViolation(err error) bool {
	return Code(err) == ErrCodeInvariantViolation
}

// IsDepthExceeded reports whether err is a DEPTH_EXCEEDED engine error.
func IsDepthExceeded(err error) bool {
	return Code(err) == ErrCodeDepthExceeded
}
