// Package hdl implements the lexer, parser and AST for the chip-definition
// language: CHIP files with generic bus widths and structural
// FOR…GENERATE loops.
package hdl

import "github.com/db47h/hdlsim/herr"

// Expr is an arithmetic expression over integer literals and generic
// identifiers, as used in port widths, slice bounds and generate bounds.
type Expr interface {
	// Eval evaluates the expression given a binding of generic names to
	// concrete positive integers.
	Eval(env map[string]int) (int, error)
	Pos() herr.Pos
}

// ConstExpr is an integer literal.
type ConstExpr struct {
	Value int
	At    herr.Pos
}

func (e *ConstExpr) Eval(map[string]int) (int, error) { return e.Value, nil }
func (e *ConstExpr) Pos() herr.Pos                     { return e.At }

// IdentExpr is a reference to a generic parameter (or, inside a GENERATE
// body, the loop variable).
type IdentExpr struct {
	Name string
	At   herr.Pos
}

func (e *IdentExpr) Eval(env map[string]int) (int, error) {
	v, ok := env[e.Name]
	if !ok {
		return 0, herr.Newf(herr.UnassignedWidth, e.At, "undefined generic %q", e.Name)
	}
	return v, nil
}
func (e *IdentExpr) Pos() herr.Pos { return e.At }

// BinExpr is a simple arithmetic expression: L Op R, Op in {'+', '-'}.
type BinExpr struct {
	Op   byte
	L, R Expr
	At   herr.Pos
}

func (e *BinExpr) Eval(env map[string]int) (int, error) {
	l, err := e.L.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := e.R.Eval(env)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	}
	return 0, herr.Newf(herr.ParseError, e.At, "unsupported operator %q", e.Op)
}
func (e *BinExpr) Pos() herr.Pos { return e.At }

// Port is a single input or output port declaration: a name plus an
// optional width expression (nil means width 1).
type Port struct {
	Name  string
	Width Expr // nil => 1
	At    herr.Pos
}

// Slice is a `[lo..hi]` or `[i]` bus range. For a single index, Lo == Hi.
type Slice struct {
	Lo, Hi Expr
	At     herr.Pos
}

// SigExpr is a signal expression appearing on either side of a mapping.
type SigExpr struct {
	// Ident is the bus name; empty for constants.
	Ident string
	// Slice is non-nil if the reference is sliced or indexed.
	Slice *Slice
	// IsConst/ConstValue/IsLiteral describe `true`/`false`/integer literals.
	IsConst    bool
	ConstValue bool
	IsLiteral  bool
	LiteralVal int
	At         herr.Pos
}

// Mapping is one `port[slice]=sigexpr` entry in a part instantiation.
type Mapping struct {
	Port      string
	PortSlice *Slice
	Sig       SigExpr
	At        herr.Pos
}

// Part is a single part (chip or primitive) instantiation.
type Part struct {
	Name        string
	GenericArgs []Expr
	Mappings    []Mapping
	At          herr.Pos
}

// Generate is a structural FOR…GENERATE loop.
type Generate struct {
	Var      string
	From, To Expr
	Body     []BodyItem
	At       herr.Pos
}

// BodyItem is either a *Part or a *Generate.
type BodyItem interface {
	bodyItem()
}

func (*Part) bodyItem()     {}
func (*Generate) bodyItem() {}

// ChipDef is a parsed chip definition.
type ChipDef struct {
	Name     string
	Generics []string
	Inputs   []Port
	Outputs  []Port
	Body     []BodyItem
	At       herr.Pos
	// File is the source file this chip was parsed from (empty for
	// synthetic/embedded definitions supplied directly as AST).
	File string
}
