// Package netlist defines the post-elaboration intermediate
// representation: a flat set of primitive-chip instances wired together
// by single-bit nets. Every invariant
// (single driver, no undriven net, no combinational cycle) is enforced
// during construction by the elaborate package; this package only
// stores and queries the result.
package netlist

import "github.com/db47h/hdlsim/primitives"

// Net is one bit of wiring. Nets are identified by their index into
// Netlist.Nets; Net itself only carries diagnostic information.
type Net struct {
	// Name is a human-readable label built from the elaboration path
	// (e.g. "a[0]" for a top-level input bit, "And.nandOut[0]" for an
	// internal signal), used in error messages. It plays no role in
	// simulation, and VHDL signals are named by net index instead.
	Name string
}

// PinRef identifies one pin (input or output) of one instance.
type PinRef struct {
	Instance int
	Pin      int
}

// Instance is one primitive-chip instantiation: a Nand, a DFF, or a RAM.
// Nand and DFF are always single-bit; RAM carries its address and data
// width in Generics.
type Instance struct {
	Chip     primitives.Name
	Generics []int // RAM: [addrWidth, dataWidth]; empty for Nand/DFF
	Inputs   []int // net index per input pin, in primitives.Ports() order
	Outputs  []int // net index per output pin, in primitives.Ports() order

	// Path is the elaboration path to this instance (chip stack with
	// generic bindings, innermost last), used in diagnostics.
	Path string
}

// Port is one bit of a top-level input or output port.
type Port struct {
	Name string // port name, without bit index
	Bit  int    // bit position within the port's bus (0 = LSB)
	Net  int    // net index
}

// Netlist is the fully elaborated, flattened circuit for one top-level
// chip (at one generic binding).
type Netlist struct {
	ChipName string
	Generics []int

	Nets      []Net
	Instances []Instance

	Inputs  []Port
	Outputs []Port

	// Driver maps a net index to the PinRef that drives it,
	// for nets driven by a primitive output. Nets not present here are
	// either top-level inputs or constants.
	Driver map[int]PinRef

	// Const records nets tied directly to a literal 0/1 rather than
	// driven by an instance or a top-level input.
	Const map[int]primitives.Trit
}

// New creates an empty Netlist under construction.
func New(chipName string, generics []int) *Netlist {
	return &Netlist{
		ChipName: chipName,
		Generics: generics,
		Driver:   map[int]PinRef{},
		Const:    map[int]primitives.Trit{},
	}
}

// AddNet allocates a new net and returns its index.
func (n *Netlist) AddNet(name string) int {
	n.Nets = append(n.Nets, Net{Name: name})
	return len(n.Nets) - 1
}

// AddInstance appends inst and records its outputs as driven nets. inst
// must already have its Inputs/Outputs net indices assigned.
func (n *Netlist) AddInstance(inst Instance) int {
	idx := len(n.Instances)
	n.Instances = append(n.Instances, inst)
	for pin, net := range inst.Outputs {
		n.Driver[net] = PinRef{Instance: idx, Pin: pin}
	}
	return idx
}

// InputPorts returns the distinct top-level input port names, in
// first-seen (declaration) order.
func (n *Netlist) InputPorts() []string { return portNames(n.Inputs) }

// OutputPorts returns the distinct top-level output port names, in
// first-seen (declaration) order.
func (n *Netlist) OutputPorts() []string { return portNames(n.Outputs) }

func portNames(ports []Port) []string {
	var names []string
	seen := map[string]bool{}
	for _, p := range ports {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	return names
}

// Width returns the bit width of the named input or output port.
func (n *Netlist) Width(name string) int {
	w := 0
	for _, p := range n.Inputs {
		if p.Name == name && p.Bit+1 > w {
			w = p.Bit + 1
		}
	}
	for _, p := range n.Outputs {
		if p.Name == name && p.Bit+1 > w {
			w = p.Bit + 1
		}
	}
	return w
}

// NetOf returns the net index backing bit b of the named input or
// output port, and whether that port/bit exists.
func (n *Netlist) NetOf(name string, bit int) (int, bool) {
	for _, p := range n.Inputs {
		if p.Name == name && p.Bit == bit {
			return p.Net, true
		}
	}
	for _, p := range n.Outputs {
		if p.Name == name && p.Bit == bit {
			return p.Net, true
		}
	}
	return 0, false
}

// Sequential reports whether inst is a stateful primitive (DFF or RAM)
// rather than purely combinational (Nand).
func (i Instance) Sequential() bool {
	return i.Chip == primitives.DFFName || i.Chip == primitives.RAMName
}

// IsSequential reports whether the netlist contains at least one
// stateful primitive instance.
func (n *Netlist) IsSequential() bool {
	for _, inst := range n.Instances {
		if inst.Sequential() {
			return true
		}
	}
	return false
}
