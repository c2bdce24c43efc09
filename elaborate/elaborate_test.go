package elaborate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/resolver"
)

func TestElaborate_And(t *testing.T) {
	r := resolver.New(nil)
	nl, err := Elaborate(r, "And", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(nl.Inputs) != 2 {
		t.Fatalf("expected 2 input bits, got %d", len(nl.Inputs))
	}
	if len(nl.Outputs) != 1 {
		t.Fatalf("expected 1 output bit, got %d", len(nl.Outputs))
	}
	if len(nl.Instances) != 2 {
		t.Fatalf("expected 2 flattened Nand instances, got %d", len(nl.Instances))
	}
	if nl.IsSequential() {
		t.Fatal("And should be purely combinational")
	}
	out, ok := nl.NetOf("out", 0)
	if !ok {
		t.Fatal("missing out[0]")
	}
	if _, ok := nl.Driver[out]; !ok {
		t.Fatal("out[0] has no driver")
	}
}

func TestElaborate_Not16_unrollsGenerate(t *testing.T) {
	r := resolver.New(nil)
	nl, err := Elaborate(r, "Not16", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(nl.Instances) != 16 {
		t.Fatalf("expected 16 unrolled Nand instances, got %d", len(nl.Instances))
	}
	if nl.Width("in") != 16 || nl.Width("out") != 16 {
		t.Fatalf("bad port widths: in=%d out=%d", nl.Width("in"), nl.Width("out"))
	}
}

func TestElaborate_DMux_multipleOutputs(t *testing.T) {
	r := resolver.New(nil)
	nl, err := Elaborate(r, "DMux", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(nl.OutputPorts()) != 2 {
		t.Fatalf("expected 2 distinct output ports, got %v", nl.OutputPorts())
	}
	for _, p := range nl.Outputs {
		if _, ok := nl.Driver[p.Net]; !ok {
			t.Fatalf("output %s[%d] has no driver", p.Name, p.Bit)
		}
	}
}

func TestElaborate_primitiveTopLevelRejected(t *testing.T) {
	r := resolver.New(nil)
	_, err := Elaborate(r, "RAM", []int{4, 8})
	if k, ok := herr.KindOf(err); !ok || k != herr.PrimitiveMisuse {
		t.Fatalf("expected PrimitiveMisuse, got %v (ok=%v)", k, ok)
	}
}

func writeChip(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".hdl"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestElaborate_undrivenOutput(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Bad", `
CHIP Bad {
    IN a;
    OUT out, extra;
    PARTS:
    Not(in=a, out=out);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "Bad", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.Undriven {
		t.Fatalf("expected Undriven, got %v (ok=%v)", k, ok)
	}
}

func TestElaborate_primaryInputCannotBeDriven(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Bad2", `
CHIP Bad2 {
    IN a;
    OUT out;
    PARTS:
    Not(in=a, out=a);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "Bad2", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.MultipleDrivers {
		t.Fatalf("expected MultipleDrivers, got %v (ok=%v)", k, ok)
	}
}

func TestElaborate_combinationalLoop(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Loop", `
CHIP Loop {
    IN a;
    OUT out;
    PARTS:
    Nand(a=a, b=w2, out=w1);
    Nand(a=w1, b=a, out=w2);
    Not(in=w1, out=out);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "Loop", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.CombinationalLoop {
		t.Fatalf("expected CombinationalLoop, got %v (ok=%v)", k, ok)
	}
}

func TestElaborate_cyclicDefinition(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Foo", `
CHIP Foo {
    IN a;
    OUT out;
    PARTS:
    Bar(a=a, out=out);
}
`)
	writeChip(t, dir, "Bar", `
CHIP Bar {
    IN a;
    OUT out;
    PARTS:
    Foo(a=a, out=out);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "Foo", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.CyclicDefinition {
		t.Fatalf("expected CyclicDefinition, got %v (ok=%v)", k, ok)
	}
}

func TestElaborate_sequentialChipNotCombinational(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Latch", `
CHIP Latch {
    IN in, load;
    OUT out;
    PARTS:
    DFF(in=in, load=load, out=out);
}
`)
	r := resolver.New([]string{dir})
	nl, err := Elaborate(r, "Latch", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !nl.IsSequential() {
		t.Fatal("expected Latch to be sequential")
	}
}

func TestElaborate_busWidthConflict_narrowerIntoWider(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Wide4", `
CHIP Wide4 {
    IN in[4];
    OUT out[4];
    PARTS:
    FOR i IN 0 TO 3 GENERATE {
        Not(in=in[i], out=out[i]);
    }
}
`)
	writeChip(t, dir, "Bad", `
CHIP Bad {
    IN a[3];
    OUT out[4];
    PARTS:
    Wide4(in=a, out=out);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "Bad", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.WidthConflict {
		t.Fatalf("expected WidthConflict, got %v (ok=%v, err=%v)", k, ok, err)
	}
}

func TestElaborate_busWidthConflict_widerIntoNarrower(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Narrow3", `
CHIP Narrow3 {
    IN in[3];
    OUT out[3];
    PARTS:
    FOR i IN 0 TO 2 GENERATE {
        Not(in=in[i], out=out[i]);
    }
}
`)
	writeChip(t, dir, "Bad3", `
CHIP Bad3 {
    IN a[4];
    OUT out[3];
    PARTS:
    Narrow3(in=a, out=out);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "Bad3", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.WidthConflict {
		t.Fatalf("expected WidthConflict, got %v (ok=%v, err=%v)", k, ok, err)
	}
}

func TestElaborate_gapInPartPortMappingIsUndriven(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "GapIn", `
CHIP GapIn {
    IN in[16];
    OUT out[16];
    PARTS:
    Not16(in[0..7]=in[0..7], out=out);
}
`)
	r := resolver.New([]string{dir})
	_, err := Elaborate(r, "GapIn", nil)
	if k, ok := herr.KindOf(err); !ok || k != herr.Undriven {
		t.Fatalf("expected Undriven for the unconnected in[8..15] gap, got %v (ok=%v, err=%v)", k, ok, err)
	}
}

func TestElaborate_ramGenerics(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "Mem", `
CHIP Mem {
    IN in[8], load, address[4];
    OUT out[8];
    PARTS:
    RAM<4,8>(in=in, load=load, address=address, out=out);
}
`)
	r := resolver.New([]string{dir})
	nl, err := Elaborate(r, "Mem", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(nl.Instances) != 1 || nl.Instances[0].Chip != "RAM" {
		t.Fatalf("expected a single RAM instance, got %+v", nl.Instances)
	}
	if got := nl.Instances[0].Generics; len(got) != 2 || got[0] != 4 || got[1] != 8 {
		t.Fatalf("expected RAM generics [4 8], got %v", got)
	}
}
