// Package primitives implements the three Go-native primitive chips
// (Nand, DFF, RAM) and bundles the standard-chip HDL library resolved
// the same way as any user chip.
package primitives

import "github.com/db47h/hdlsim/herr"

// Trit is a ternary net value: Zero, One or Unknown.
type Trit int8

const (
	Zero Trit = iota
	One
	Unknown
)

func (t Trit) String() string {
	switch t {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "X"
	}
}

// And implements Kleene three-valued conjunction: a zero on either input
// dominates, otherwise an unknown on either input propagates.
func And(a, b Trit) Trit {
	if a == Zero || b == Zero {
		return Zero
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return One
}

// Or is the dual of And: a one on either input dominates.
func Or(a, b Trit) Trit {
	if a == One || b == One {
		return One
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return Zero
}

// Not inverts a Trit; Unknown stays Unknown.
func Not(a Trit) Trit {
	switch a {
	case Zero:
		return One
	case One:
		return Zero
	default:
		return Unknown
	}
}

// Nand is the sole combinational Go-native primitive; every bundled gate in
// the standard chip library is, ultimately, built from it.
func Nand(a, b Trit) Trit { return Not(And(a, b)) }

// Name identifies one of the three Go-native primitive chips.
type Name string

// The primitive chip names. No .hdl source backs these; the resolver
// recognizes them by name instead of searching the file system for them.
const (
	NandName Name = "Nand"
	DFFName  Name = "DFF"
	RAMName  Name = "RAM"
)

// IsPrimitive reports whether name identifies a Go-native primitive chip
// rather than an HDL-defined one.
func IsPrimitive(name string) bool {
	switch Name(name) {
	case NandName, DFFName, RAMName:
		return true
	}
	return false
}

// Ports returns the input and output port names (and, for generic
// primitives, the expected generic arity) of a primitive chip.
func Ports(name string) (ins, outs []string, generics []string, err error) {
	switch Name(name) {
	case NandName:
		return []string{"a", "b"}, []string{"out"}, nil, nil
	case DFFName:
		return []string{"in", "load"}, []string{"out"}, nil, nil
	case RAMName:
		return []string{"in", "load", "address"}, []string{"out"}, []string{"a", "w"}, nil
	}
	return nil, nil, nil, herr.Newf(herr.UnknownChip, herr.Pos{}, "%q is not a primitive chip", name)
}
