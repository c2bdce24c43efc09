// Package hwtest provides comparison helpers for testing circuits: two
// chips (or two differently-structured implementations of the same
// chip) are considered equivalent when their exhaustive truth tables
// agree bit-for-bit over the ternary value domain.
package hwtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/primitives"
	"github.com/db47h/hdlsim/sim"
)

// ComparePart elaborates both netlists' full truth tables and fails t
// with the first differing row if they disagree. Both netlists must
// declare the same input and output port names in the same order and
// be purely combinational.
func ComparePart(t *testing.T, nl1, nl2 *netlist.Netlist) {
	t.Helper()

	if got, want := nl1.InputPorts(), nl2.InputPorts(); !sameNames(got, want) {
		t.Fatalf("input ports differ: %v != %v", got, want)
	}
	if got, want := nl1.OutputPorts(), nl2.OutputPorts(); !sameNames(got, want) {
		t.Fatalf("output ports differ: %v != %v", got, want)
	}

	rows1, err := sim.FullTable(nl1, 0)
	if err != nil {
		t.Fatalf("truth table for %s: %v", nl1.ChipName, err)
	}
	rows2, err := sim.FullTable(nl2, 0)
	if err != nil {
		t.Fatalf("truth table for %s: %v", nl2.ChipName, err)
	}

	CompareTruthTable(t, nl1.InputPorts(), nl1.OutputPorts(), rows1, rows2)
}

// CompareTruthTable fails t at the first row where got and want disagree
// on any output bit, reporting the offending input assignment.
func CompareTruthTable(t *testing.T, inNames, outNames []string, got, want []sim.Row) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("row count differs: %d != %d", len(got), len(want))
	}
	for i := range got {
		for b := range got[i].Outputs {
			if got[i].Outputs[b] != want[i].Outputs[b] {
				t.Fatalf("row %d (%s): output %s differs: got %v, want %v",
					i, describeInputs(inNames, got[i].Inputs), outNames[b],
					got[i].Outputs[b], want[i].Outputs[b])
			}
		}
	}
}

func describeInputs(names []string, bits []primitives.Trit) string {
	var b strings.Builder
	for i, v := range bits {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		name := fmt.Sprintf("bit%d", i)
		if i < len(names) {
			name = names[i]
		}
		fmt.Fprintf(&b, "%s=%v", name, v)
	}
	return b.String()
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
