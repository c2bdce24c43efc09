// Package tscript implements the lexer, parser and AST for the
// Nand2Tetris-compatible test-script dialect.
package tscript

import "github.com/db47h/hdlsim/herr"

// Script is a parsed test script: a flat command sequence.
type Script struct {
	Commands []Command
}

// Command is one test-script command.
type Command interface {
	cmd()
	Pos() herr.Pos
}

type base struct{ At herr.Pos }

func (base) cmd()            {}
func (b base) Pos() herr.Pos { return b.At }

// Load is `load<generics>? FILE`.
type Load struct {
	base
	Generics []int
	File     string
}

// OutputFile is `output-file NAME`.
type OutputFile struct {
	base
	Name string
}

// CompareTo is `compare-to NAME`.
type CompareTo struct {
	base
	Name string
}

// OutputSpec is one `name%fmt<space-before>.<columns>.<space-after>`
// entry: SpaceBefore and SpaceAfter are literal padding spaces, and
// Columns is the field width the value itself is right-justified into.
type OutputSpec struct {
	Name        string
	Fmt         byte // 'B', 'D' or 'X'
	SpaceBefore int
	Columns     int
	SpaceAfter  int
}

// OutputList is `output-list spec,...`.
type OutputList struct {
	base
	Specs []OutputSpec
}

// Set is `set IDENT VALUE`.
type Set struct {
	base
	Ident string
	Index *int // non-nil for `set bus[i] value`
	Value int64
}

// Eval is `eval`.
type Eval struct{ base }

// Tick is `tick`.
type Tick struct{ base }

// Tock is `tock`.
type Tock struct{ base }

// Output is `output`.
type Output struct{ base }
