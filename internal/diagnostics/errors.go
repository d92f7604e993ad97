package diagnostics

import (
	"errors"
	"fmt"
)

// Kind classifies a semantic-analysis failure. Analysis aborts on the first
// error of any kind; there is no recovery.
type Kind int

const (
	// NameError: a referenced local, ivar, constant, class or method
	// does not exist.
	NameError Kind = iota
	// TypeError: types fail a required equality or conformance check.
	TypeError
	// ProgramError: a structurally valid but forbidden program, such as
	// assigning a Void value or reassigning a write-once binding.
	ProgramError
)

func (k Kind) String() string {
	switch k {
	case NameError:
		return "NameError"
	case TypeError:
		return "TypeError"
	case ProgramError:
		return "ProgramError"
	}
	return "Error"
}

// Error is the single error kind surfaced to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Namef builds a NameError.
func Namef(format string, args ...any) *Error {
	return &Error{Kind: NameError, Message: fmt.Sprintf(format, args...)}
}

// Typef builds a TypeError.
func Typef(format string, args ...any) *Error {
	return &Error{Kind: TypeError, Message: fmt.Sprintf(format, args...)}
}

// Programf builds a ProgramError.
func Programf(format string, args ...any) *Error {
	return &Error{Kind: ProgramError, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
