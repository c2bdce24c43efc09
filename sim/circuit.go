// Package sim runs an elaborated netlist.Netlist as a ternary-valued
// circuit simulation: worker-pool gate stepping, clocked Tick/Tock
// semantics, and exhaustive truth-table generation.
package sim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/primitives"
)

// Component is one gate update, run once per simulation step.
type Component func(c *Circuit)

// Circuit is a runnable simulation of one elaborated netlist.
//
// Net state is double-buffered (s0 is the state as of the start of the
// current step, s1 accumulates the next one): instead of topologically
// sorting the (already acyclic, per elaborate's combinational-loop
// check) Nand dependency graph, each step only propagates one
// gate-level of logic, and repeated stepping lets a deep combinational
// chain settle the same way repeated clock phases do — stepsPerCycle
// just needs to be at least as large as the longest combinational path
// for Tick/Tock to observe a stable result.
type Circuit struct {
	nl *netlist.Netlist

	s0, s1 []primitives.Trit
	cs     []Component
	tpc    uint
	tick   uint
	clk    bool

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a runnable Circuit from an elaborated netlist.
//
// workers is the number of goroutines used to step gates each cycle; if
// <= 0, runtime.GOMAXPROCS(-1) is used. stepsPerCycle is rounded up to
// the next power of two (minimum 2), so AtTick/AtTock can be computed
// with a bit mask instead of a modulo.
//
// Callers must call Dispose once the Circuit is no longer needed, to
// stop the worker goroutines.
func NewCircuit(nl *netlist.Netlist, workers int, stepsPerCycle uint) (*Circuit, error) {
	if nl == nil {
		return nil, errors.New("sim: nil netlist")
	}

	if stepsPerCycle < 2 {
		stepsPerCycle = 2
	}
	stepsPerCycle--
	stepsPerCycle |= stepsPerCycle >> 1
	stepsPerCycle |= stepsPerCycle >> 2
	stepsPerCycle |= stepsPerCycle >> 4
	stepsPerCycle |= stepsPerCycle >> 8
	stepsPerCycle |= stepsPerCycle >> 16
	stepsPerCycle |= stepsPerCycle >> 32
	stepsPerCycle++

	c := &Circuit{nl: nl, tpc: stepsPerCycle, clk: true}
	c.s0 = make([]primitives.Trit, len(nl.Nets))
	c.s1 = make([]primitives.Trit, len(nl.Nets))
	for i := range c.s0 {
		c.s0[i] = primitives.Unknown
		c.s1[i] = primitives.Unknown
	}
	for net, v := range nl.Const {
		c.s0[net] = v
		c.s1[net] = v
	}

	c.cs = buildComponents(nl)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	cs := c.cs
	size := (len(cs) + workers - 1) / workers
	if size < 1 {
		size = 1
	}
	for len(cs) > 0 {
		if size > len(cs) {
			size = len(cs)
		}
		wc := make(chan struct{}, 1)
		c.wc = append(c.wc, wc)
		go worker(c, cs[:size], wc)
		cs = cs[size:]
	}

	return c, nil
}

// buildComponents compiles each netlist.Instance into one closure that
// reads the previous-step state and writes the next one. DFF and RAM
// instances own their own state.Step, consulted on every call; they only
// latch when c.AtTick() is true, exactly as the Go-native primitives
// define.
func buildComponents(nl *netlist.Netlist) []Component {
	cs := make([]Component, 0, len(nl.Instances))
	for _, inst := range nl.Instances {
		inst := inst
		switch inst.Chip {
		case primitives.NandName:
			a, b, out := inst.Inputs[0], inst.Inputs[1], inst.Outputs[0]
			cs = append(cs, func(c *Circuit) {
				c.s1[out] = primitives.Nand(c.s0[a], c.s0[b])
			})
		case primitives.DFFName:
			in, load, out := inst.Inputs[0], inst.Inputs[1], inst.Outputs[0]
			state := primitives.NewDFFState(1)
			cs = append(cs, func(c *Circuit) {
				r := state.Step(c.AtTick(), []primitives.Trit{c.s0[in]}, c.s0[load])
				c.s1[out] = r[0]
			})
		case primitives.RAMName:
			addrW, dataW := inst.Generics[0], inst.Generics[1]
			inNets := inst.Inputs[:dataW]
			loadNet := inst.Inputs[dataW]
			addrNets := inst.Inputs[dataW+1:]
			outNets := inst.Outputs
			state := primitives.NewRAMState(addrW, dataW)
			cs = append(cs, func(c *Circuit) {
				in := make([]primitives.Trit, dataW)
				for i, n := range inNets {
					in[i] = c.s0[n]
				}
				addr := make([]primitives.Trit, addrW)
				for i, n := range addrNets {
					addr[i] = c.s0[n]
				}
				out := state.Step(c.AtTick(), in, addr, c.s0[loadNet])
				for i, n := range outNets {
					c.s1[n] = out[i]
				}
			})
		}
	}
	return cs
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// Dispose stops the worker goroutines. The Circuit must not be used
// afterward.
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
}

// Step advances the simulation by one gate-level.
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}
	c.wg.Wait()
	c.tick++
	switch {
	case c.tick&(c.tpc-1) == 0:
		c.clk = true
	case c.tick&(c.tpc/2-1) == 0:
		c.clk = false
	}
	c.s0, c.s1 = c.s1, c.s0
}

// Settle steps the simulation enough times for any combinational chain
// to stabilize without advancing the clock's notion of phase, by running
// one full step per instance in the netlist (an upper bound on the
// longest Nand dependency chain, since elaborate already rejects
// combinational cycles). These steps are not counted by Steps, and no
// clocked component latches during them.
func (c *Circuit) Settle() {
	n := len(c.nl.Instances) + 1
	saved := c.tick
	if c.AtTick() {
		c.tick++ // step off the rising edge so DFF/RAM only hold
	}
	for i := 0; i < n; i++ {
		c.wg.Add(len(c.wc))
		for _, wc := range c.wc {
			wc <- struct{}{}
		}
		c.wg.Wait()
		c.s0, c.s1 = c.s1, c.s0
	}
	c.tick = saved
}

// AtTick reports whether the current step is the rising edge of the
// simulated clock.
func (c *Circuit) AtTick() bool { return c.tick&(c.tpc-1) == 0 }

// AtTock reports whether the current step is the falling edge (the
// midpoint of the clock cycle).
func (c *Circuit) AtTock() bool { return (c.tick+c.tpc/2)&(c.tpc-1) == 0 }

// Tick runs the simulation until the beginning of the next half clock
// cycle (the falling edge).
func (c *Circuit) Tick() {
	for c.clk {
		c.Step()
	}
}

// Tock runs the simulation until the beginning of the next full clock
// cycle (the rising edge); once Tock returns, clocked component outputs
// have stabilized.
func (c *Circuit) Tock() {
	for !c.clk {
		c.Step()
	}
}

// TickTock runs one full clock cycle.
func (c *Circuit) TickTock() {
	c.Tick()
	c.Tock()
}

// Steps returns the number of simulation steps run so far.
func (c *Circuit) Steps() uint { return c.tick }

// Get returns the current state of net.
func (c *Circuit) Get(net int) primitives.Trit { return c.s0[net] }

// Set drives net to v, effective from the next Step. The value is written
// to both state buffers so that it persists across steps.
func (c *Circuit) Set(net int, v primitives.Trit) {
	c.s0[net] = v
	c.s1[net] = v
}

// GetPort returns the current state of bit bit of the named input or
// output port.
func (c *Circuit) GetPort(name string, bit int) (primitives.Trit, bool) {
	net, ok := c.nl.NetOf(name, bit)
	if !ok {
		return primitives.Unknown, false
	}
	return c.Get(net), true
}

// SetPort drives bit bit of the named input port to v.
func (c *Circuit) SetPort(name string, bit int, v primitives.Trit) bool {
	net, ok := c.nl.NetOf(name, bit)
	if !ok {
		return false
	}
	c.Set(net, v)
	return true
}

// Netlist returns the netlist this Circuit was built from.
func (c *Circuit) Netlist() *netlist.Netlist { return c.nl }
