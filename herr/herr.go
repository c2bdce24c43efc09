// Package herr defines the error taxonomy shared by every stage of the
// compile pipeline (lexer, parser, resolver, elaborator, simulator, test
// runner and VHDL emitter).
package herr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error into one of the taxonomy entries.
type Kind int

// Error kinds, per the taxonomy.
const (
	LexError Kind = iota
	ParseError
	UnknownChip
	RedefinedChip
	UnknownPort
	WidthConflict
	UnassignedWidth
	OutOfRangeSlice
	ArityMismatch
	CyclicDefinition
	CombinationalLoop
	Undriven
	MultipleDrivers
	PrimitiveMisuse
	TestMismatch
	IoError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case UnknownChip:
		return "UnknownChip"
	case RedefinedChip:
		return "RedefinedChip"
	case UnknownPort:
		return "UnknownPort"
	case WidthConflict:
		return "WidthConflict"
	case UnassignedWidth:
		return "UnassignedWidth"
	case OutOfRangeSlice:
		return "OutOfRangeSlice"
	case ArityMismatch:
		return "ArityMismatch"
	case CyclicDefinition:
		return "CyclicDefinition"
	case CombinationalLoop:
		return "CombinationalLoop"
	case Undriven:
		return "Undriven"
	case MultipleDrivers:
		return "MultipleDrivers"
	case PrimitiveMisuse:
		return "PrimitiveMisuse"
	case TestMismatch:
		return "TestMismatch"
	case IoError:
		return "IoError"
	}
	return "UnknownError"
}

// Pos is a source position: file name plus 1-based line/column.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// IsZero reports whether p carries no position information.
func (p Pos) IsZero() bool { return p.File == "" && p.Line == 0 && p.Col == 0 }

// Error is the concrete error type surfaced by every package in this
// module. It carries a Kind, an optional source Pos and an optional chip
// elaboration stack (chip name with its generic binding, innermost last).
type Error struct {
	Kind  Kind
	Pos   Pos
	Stack []string
	msg   string
	cause error
}

func (e *Error) Error() string {
	var s string
	if !e.Pos.IsZero() {
		s = e.Pos.String() + ": "
	}
	s += e.Kind.String() + ": " + e.msg
	for _, f := range e.Stack {
		s += "\n\tin " + f
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Cause implements the github.com/pkg/errors Causer interface.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports errors.Is/As from the standard library.
func (e *Error) Unwrap() error { return e.cause }

// New creates a new *Error of the given kind at pos with the given message.
func New(kind Kind, pos Pos, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, pos Pos, format string, args ...interface{}) *Error {
	return New(kind, pos, fmt.Sprintf(format, args...))
}

// Wrap annotates err (which need not be a *Error) with a kind, position and
// message, keeping err as the cause.
func Wrap(err error, kind Kind, pos Pos, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, msg: msg, cause: err}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(err error, kind Kind, pos Pos, format string, args ...interface{}) *Error {
	return Wrap(err, kind, pos, fmt.Sprintf(format, args...))
}

// PushFrame prepends a chip-stack frame (used while unwinding recursive
// elaboration so the final error reads top-down: outermost chip first).
func PushFrame(err error, frame string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Stack = append([]string{frame}, e.Stack...)
		return e
	}
	return Wrap(err, PrimitiveMisuse, Pos{}, frame)
}

// KindOf extracts the Kind of err, or a zero Kind-less false if err is not
// (or does not wrap) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
