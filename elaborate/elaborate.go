// Package elaborate flattens a parsed chip hierarchy into a netlist.Netlist:
// generics are bound, FOR...GENERATE loops are unrolled, composite parts are
// inlined recursively, and every net is checked for exactly one driver and
// no purely combinational cycle.
package elaborate

import (
	"fmt"
	"strings"

	"github.com/db47h/hdlsim/hdl"
	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/primitives"
	"github.com/db47h/hdlsim/resolver"
)

// Elaborate flattens the chip named top, bound to genericArgs, into a
// Netlist.
//
// This generalizes a wire-chain-merging approach (a map of nodes linked
// by input/output references, collapsed after the fact into a single
// driver per pin) from single-bit sockets to width-solved buses: instead
// of merging node chains once the whole body has been walked, each
// signal name is bound, on first use, to a concrete net index that is
// threaded by reference through every nested part instantiation, so the
// hierarchy flattens eagerly as the body is processed rather than in a
// later pass.
func Elaborate(res *resolver.Resolver, top string, genericArgs []int) (*netlist.Netlist, error) {
	if res.IsPrimitive(top) {
		return nil, herr.Newf(herr.PrimitiveMisuse, herr.Pos{}, "%q is a primitive chip, not a top-level circuit", top)
	}
	def, err := res.Resolve(top)
	if err != nil {
		return nil, err
	}

	generics, err := bindGenerics(def.Generics, genericArgs, def.At)
	if err != nil {
		return nil, err
	}

	nl := netlist.New(top, genericArgs)
	e := &elaborator{
		res:           res,
		nl:            nl,
		primaryInputs: map[int]bool{},
	}
	e.zero = nl.AddNet("$false")
	e.one = nl.AddNet("$true")
	nl.Const[e.zero] = primitives.Zero
	nl.Const[e.one] = primitives.One

	f := newFrame(nl, generics, top)
	if err := e.elaborateTop(f, def, genericArgs); err != nil {
		return nil, err
	}
	for net := range nl.Nets {
		if _, ok := nl.Driver[net]; ok {
			continue
		}
		if _, ok := nl.Const[net]; ok || e.primaryInputs[net] {
			continue
		}
		return nil, herr.Newf(herr.Undriven, herr.Pos{}, "net %s is never driven", nl.Nets[net].Name)
	}
	if err := e.checkCombinationalAcyclic(); err != nil {
		return nil, err
	}
	return nl, nil
}

type elaborator struct {
	res           *resolver.Resolver
	nl            *netlist.Netlist
	zero, one     int
	primaryInputs map[int]bool
	stack         []string
}

// frame carries the signal-name environment of one chip body being
// elaborated: its generic bindings (including any enclosing GENERATE loop
// variables) and the name/bit -> net index table. A GENERATE loop body
// shares its parent's nets and nl but extends generics with the loop
// variable; an inlined part's body gets a fresh nets table seeded with its
// port bindings.
type frame struct {
	nl       *netlist.Netlist
	generics map[string]int
	nets     map[string]map[int]int
	widths   map[string]int
	path     string
}

func newFrame(nl *netlist.Netlist, generics map[string]int, path string) *frame {
	return &frame{nl: nl, generics: generics, nets: map[string]map[int]int{}, widths: map[string]int{}, path: path}
}

// checkWidth records name's first-seen bus width (from a whole-bus,
// unsliced reference) and rejects any later whole-bus reference to the
// same name that demands a different width.
func (f *frame) checkWidth(name string, width int, pos herr.Pos) error {
	if canon, ok := f.widths[name]; ok {
		if canon != width {
			return herr.Newf(herr.WidthConflict, pos, "%s has width %d, but is used here with width %d", name, canon, width)
		}
		return nil
	}
	f.widths[name] = width
	return nil
}

func (f *frame) getNet(name string, bit int) int {
	bits, ok := f.nets[name]
	if !ok {
		bits = map[int]int{}
		f.nets[name] = bits
	}
	if net, ok := bits[bit]; ok {
		return net
	}
	net := f.nl.AddNet(fmt.Sprintf("%s.%s[%d]", f.path, name, bit))
	bits[bit] = net
	return net
}

func (f *frame) bindNet(name string, bit, net int) {
	bits, ok := f.nets[name]
	if !ok {
		bits = map[int]int{}
		f.nets[name] = bits
	}
	bits[bit] = net
}

func (f *frame) lookupNet(name string, bit int) (int, bool) {
	bits, ok := f.nets[name]
	if !ok {
		return 0, false
	}
	net, ok := bits[bit]
	return net, ok
}

func bindGenerics(names []string, args []int, pos herr.Pos) (map[string]int, error) {
	if len(names) != len(args) {
		return nil, herr.Newf(herr.ArityMismatch, pos, "expected %d generic argument(s), got %d", len(names), len(args))
	}
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = args[i]
	}
	return m, nil
}

func evalExpr(ex hdl.Expr, generics map[string]int) (int, error) {
	return ex.Eval(generics)
}

func evalWidth(w hdl.Expr, generics map[string]int) (int, error) {
	if w == nil {
		return 1, nil
	}
	return evalExpr(w, generics)
}

func stackKey(name string, vals []int) string {
	if len(vals) == 0 {
		return name
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return name + "<" + strings.Join(parts, ",") + ">"
}

func (e *elaborator) elaborateTop(f *frame, def *hdl.ChipDef, genericArgs []int) error {
	for _, port := range def.Inputs {
		w, err := evalWidth(port.Width, f.generics)
		if err != nil {
			return err
		}
		f.widths[port.Name] = w
		for bit := 0; bit < w; bit++ {
			net := f.nl.AddNet(fmt.Sprintf("%s[%d]", port.Name, bit))
			f.bindNet(port.Name, bit, net)
			e.primaryInputs[net] = true
			f.nl.Inputs = append(f.nl.Inputs, netlist.Port{Name: port.Name, Bit: bit, Net: net})
		}
	}

	for _, port := range def.Outputs {
		w, err := evalWidth(port.Width, f.generics)
		if err != nil {
			return err
		}
		f.widths[port.Name] = w
	}

	key := stackKey(def.Name, genericArgs)
	e.stack = append(e.stack, key)
	err := e.processBody(f, def.Body)
	e.stack = e.stack[:len(e.stack)-1]
	if err != nil {
		return herr.PushFrame(err, key)
	}

	for _, port := range def.Outputs {
		w, err := evalWidth(port.Width, f.generics)
		if err != nil {
			return err
		}
		for bit := 0; bit < w; bit++ {
			net, ok := f.lookupNet(port.Name, bit)
			if !ok {
				return herr.Newf(herr.Undriven, def.At, "output %s[%d] of %s is never wired", port.Name, bit, def.Name)
			}
			if _, ok := f.nl.Driver[net]; !ok {
				return herr.Newf(herr.Undriven, def.At, "output %s[%d] of %s is never driven", port.Name, bit, def.Name)
			}
			f.nl.Outputs = append(f.nl.Outputs, netlist.Port{Name: port.Name, Bit: bit, Net: net})
		}
	}
	return nil
}

func (e *elaborator) processBody(f *frame, items []hdl.BodyItem) error {
	for _, it := range items {
		switch v := it.(type) {
		case *hdl.Part:
			if err := e.processPart(f, v); err != nil {
				return err
			}
		case *hdl.Generate:
			if err := e.processGenerate(f, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *elaborator) processGenerate(f *frame, g *hdl.Generate) error {
	from, err := evalExpr(g.From, f.generics)
	if err != nil {
		return err
	}
	to, err := evalExpr(g.To, f.generics)
	if err != nil {
		return err
	}
	for i := from; i <= to; i++ {
		child := &frame{nl: f.nl, generics: withVar(f.generics, g.Var, i), nets: f.nets, widths: f.widths, path: f.path}
		if err := e.processBody(child, g.Body); err != nil {
			return err
		}
	}
	return nil
}

func withVar(generics map[string]int, name string, v int) map[string]int {
	out := make(map[string]int, len(generics)+1)
	for k, val := range generics {
		out[k] = val
	}
	out[name] = v
	return out
}

func (e *elaborator) processPart(f *frame, p *hdl.Part) error {
	if e.res.IsPrimitive(p.Name) {
		return e.instantiatePrimitive(f, p)
	}
	return e.instantiateChip(f, p)
}

// portSpec is the port table of whatever a Part instantiates: a primitive
// chip (a fixed name/width table, generics resolved to concrete ints ahead
// of time) or a composite chip (widths computed from its own generics).
type portSpec struct {
	width              map[string]int
	isInput            map[string]bool
	insOrder, outsOrder []string
}

func primitivePortSpec(name primitives.Name, genVals []int) *portSpec {
	ins, outs, _, _ := primitives.Ports(string(name))
	spec := &portSpec{width: map[string]int{}, isInput: map[string]bool{}, insOrder: ins, outsOrder: outs}
	switch name {
	case primitives.NandName:
		spec.width["a"], spec.width["b"], spec.width["out"] = 1, 1, 1
	case primitives.DFFName:
		spec.width["in"], spec.width["load"], spec.width["out"] = 1, 1, 1
	case primitives.RAMName:
		addrW, dataW := genVals[0], genVals[1]
		spec.width["in"] = dataW
		spec.width["load"] = 1
		spec.width["address"] = addrW
		spec.width["out"] = dataW
	}
	for _, n := range ins {
		spec.isInput[n] = true
	}
	return spec
}

func chipPortSpec(def *hdl.ChipDef, generics map[string]int) (*portSpec, error) {
	spec := &portSpec{width: map[string]int{}, isInput: map[string]bool{}}
	for _, p := range def.Inputs {
		w, err := evalWidth(p.Width, generics)
		if err != nil {
			return nil, err
		}
		spec.width[p.Name] = w
		spec.isInput[p.Name] = true
		spec.insOrder = append(spec.insOrder, p.Name)
	}
	for _, p := range def.Outputs {
		w, err := evalWidth(p.Width, generics)
		if err != nil {
			return nil, err
		}
		spec.width[p.Name] = w
		spec.outsOrder = append(spec.outsOrder, p.Name)
	}
	return spec, nil
}

func flatten(order []string, m map[string][]int) []int {
	var out []int
	for _, name := range order {
		out = append(out, m[name]...)
	}
	return out
}

// gatherNets resolves every mapping of p against spec, returning the net
// index bound to each input and output pin bit. Every pin bit must be
// mapped exactly once.
func (e *elaborator) gatherNets(f *frame, p *hdl.Part, spec *portSpec) (ins, outs map[string][]int, err error) {
	ins = map[string][]int{}
	outs = map[string][]int{}
	for name, w := range spec.width {
		arr := make([]int, w)
		for i := range arr {
			arr[i] = -1
		}
		if spec.isInput[name] {
			ins[name] = arr
		} else {
			outs[name] = arr
		}
	}

	for _, m := range p.Mappings {
		w, ok := spec.width[m.Port]
		if !ok {
			return nil, nil, herr.Newf(herr.UnknownPort, m.At, "%s has no port %q", p.Name, m.Port)
		}
		lo, hi := 0, w-1
		if m.PortSlice != nil {
			lo, err = evalExpr(m.PortSlice.Lo, f.generics)
			if err != nil {
				return nil, nil, err
			}
			hi, err = evalExpr(m.PortSlice.Hi, f.generics)
			if err != nil {
				return nil, nil, err
			}
			if lo < 0 || hi >= w || lo > hi {
				return nil, nil, herr.Newf(herr.OutOfRangeSlice, m.At, "slice [%d..%d] out of range for %s (width %d)", lo, hi, m.Port, w)
			}
		}
		sigNets, err := e.resolveSig(f, m.Sig, hi-lo+1)
		if err != nil {
			return nil, nil, err
		}
		target := ins[m.Port]
		if target == nil {
			target = outs[m.Port]
		}
		for i, net := range sigNets {
			bit := lo + i
			if target[bit] != -1 {
				return nil, nil, herr.Newf(herr.MultipleDrivers, m.At, "%s[%d] of %s mapped more than once", m.Port, bit, p.Name)
			}
			target[bit] = net
		}
	}

	for name, arr := range ins {
		for bit, v := range arr {
			if v == -1 {
				return nil, nil, herr.Newf(herr.Undriven, p.At, "input %s[%d] of %s is not connected", name, bit, p.Name)
			}
		}
	}
	for name, arr := range outs {
		for bit, v := range arr {
			if v == -1 {
				return nil, nil, herr.Newf(herr.Undriven, p.At, "output %s[%d] of %s is not connected", name, bit, p.Name)
			}
		}
	}
	return ins, outs, nil
}

// resolveSig resolves the signal expression on the caller's side of a
// mapping into width net indices, one per bit, low bit first.
func (e *elaborator) resolveSig(f *frame, sig hdl.SigExpr, width int) ([]int, error) {
	if sig.IsConst {
		net := e.zero
		if sig.ConstValue {
			net = e.one
		}
		nets := make([]int, width)
		for i := range nets {
			nets[i] = net
		}
		return nets, nil
	}
	if sig.IsLiteral {
		nets := make([]int, width)
		for i := range nets {
			if (sig.LiteralVal>>uint(i))&1 == 1 {
				nets[i] = e.one
			} else {
				nets[i] = e.zero
			}
		}
		return nets, nil
	}
	if sig.Slice != nil {
		lo, err := evalExpr(sig.Slice.Lo, f.generics)
		if err != nil {
			return nil, err
		}
		hi, err := evalExpr(sig.Slice.Hi, f.generics)
		if err != nil {
			return nil, err
		}
		if hi-lo+1 != width {
			return nil, herr.Newf(herr.WidthConflict, sig.At, "slice %s[%d..%d] has width %d, expected %d", sig.Ident, lo, hi, hi-lo+1, width)
		}
		nets := make([]int, width)
		for i := range nets {
			nets[i] = f.getNet(sig.Ident, lo+i)
		}
		return nets, nil
	}
	if err := f.checkWidth(sig.Ident, width, sig.At); err != nil {
		return nil, err
	}
	nets := make([]int, width)
	for i := range nets {
		nets[i] = f.getNet(sig.Ident, i)
	}
	return nets, nil
}

func (e *elaborator) claimDriver(net int, pos herr.Pos) error {
	if e.primaryInputs[net] {
		return herr.Newf(herr.MultipleDrivers, pos, "a primary input cannot be driven internally")
	}
	if _, ok := e.nl.Driver[net]; ok {
		return herr.Newf(herr.MultipleDrivers, pos, "net is driven by more than one source")
	}
	return nil
}

func (e *elaborator) instantiatePrimitive(f *frame, p *hdl.Part) error {
	name := primitives.Name(p.Name)
	var genVals []int
	switch name {
	case primitives.RAMName:
		if len(p.GenericArgs) != 2 {
			return herr.Newf(herr.ArityMismatch, p.At, "RAM requires 2 generic arguments <a,w>, got %d", len(p.GenericArgs))
		}
		genVals = make([]int, 2)
		for i, ge := range p.GenericArgs {
			v, err := evalExpr(ge, f.generics)
			if err != nil {
				return err
			}
			genVals[i] = v
		}
	default:
		if len(p.GenericArgs) != 0 {
			return herr.Newf(herr.ArityMismatch, p.At, "%s takes no generic arguments", p.Name)
		}
	}

	spec := primitivePortSpec(name, genVals)
	ins, outs, err := e.gatherNets(f, p, spec)
	if err != nil {
		return err
	}

	inNets := flatten(spec.insOrder, ins)
	outNets := flatten(spec.outsOrder, outs)
	for _, net := range outNets {
		if err := e.claimDriver(net, p.At); err != nil {
			return err
		}
	}

	e.nl.AddInstance(netlist.Instance{
		Chip:     name,
		Generics: genVals,
		Inputs:   inNets,
		Outputs:  outNets,
		Path:     f.path,
	})
	return nil
}

func (e *elaborator) instantiateChip(f *frame, p *hdl.Part) error {
	def, err := e.res.Resolve(p.Name)
	if err != nil {
		return err
	}
	if len(p.GenericArgs) != len(def.Generics) {
		return herr.Newf(herr.ArityMismatch, p.At, "%s takes %d generic argument(s), got %d", p.Name, len(def.Generics), len(p.GenericArgs))
	}
	genVals := make([]int, len(p.GenericArgs))
	for i, ge := range p.GenericArgs {
		v, err := evalExpr(ge, f.generics)
		if err != nil {
			return err
		}
		genVals[i] = v
	}
	childGenerics := make(map[string]int, len(def.Generics))
	for i, g := range def.Generics {
		childGenerics[g] = genVals[i]
	}

	key := stackKey(p.Name, genVals)
	for _, s := range e.stack {
		if s == key {
			return herr.Newf(herr.CyclicDefinition, p.At, "%s recursively instantiates itself", key)
		}
	}

	spec, err := chipPortSpec(def, childGenerics)
	if err != nil {
		return err
	}
	ins, outs, err := e.gatherNets(f, p, spec)
	if err != nil {
		return err
	}

	child := newFrame(e.nl, childGenerics, f.path+"."+key)
	for name, w := range spec.width {
		child.widths[name] = w
	}
	for name, arr := range ins {
		for bit, net := range arr {
			child.bindNet(name, bit, net)
		}
	}
	for name, arr := range outs {
		for bit, net := range arr {
			child.bindNet(name, bit, net)
		}
	}

	e.stack = append(e.stack, key)
	err = e.processBody(child, def.Body)
	e.stack = e.stack[:len(e.stack)-1]
	if err != nil {
		return herr.PushFrame(err, key)
	}

	for _, name := range spec.outsOrder {
		for bit := 0; bit < spec.width[name]; bit++ {
			net := outs[name][bit]
			if _, ok := e.nl.Driver[net]; !ok {
				return herr.PushFrame(herr.Newf(herr.Undriven, def.At, "output %s[%d] of %s is never driven", name, bit, def.Name), key)
			}
		}
	}
	return nil
}

// checkCombinationalAcyclic rejects a feedback path through purely
// combinational (Nand) instances. A DFF or RAM absorbs feedback through
// its state, so the dependency graph here only follows a net back to its
// driver when that driver is itself a Nand.
func (e *elaborator) checkCombinationalAcyclic() error {
	nl := e.nl
	n := len(nl.Instances)
	adj := make([][]int, n)
	for i, inst := range nl.Instances {
		if inst.Chip != primitives.NandName {
			continue
		}
		for _, in := range inst.Inputs {
			drv, ok := nl.Driver[in]
			if !ok || nl.Instances[drv.Instance].Chip != primitives.NandName {
				continue
			}
			adj[drv.Instance] = append(adj[drv.Instance], i)
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make([]int, n)
	var path []int

	var visit func(i int) []int
	visit = func(i int) []int {
		color[i] = gray
		path = append(path, i)
		for _, j := range adj[i] {
			if color[j] == gray {
				idx := 0
				for k, v := range path {
					if v == j {
						idx = k
						break
					}
				}
				cycle := append([]int{}, path[idx:]...)
				return append(cycle, j)
			}
			if color[j] == white {
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		color[i] = black
		return nil
	}

	for i := 0; i < n; i++ {
		if nl.Instances[i].Chip != primitives.NandName || color[i] != white {
			continue
		}
		if cycle := visit(i); cycle != nil {
			names := make([]string, len(cycle))
			for k, idx := range cycle {
				names[k] = nl.Instances[idx].Path
			}
			return herr.Newf(herr.CombinationalLoop, herr.Pos{}, "combinational loop: %s", strings.Join(names, " -> "))
		}
	}
	return nil
}
