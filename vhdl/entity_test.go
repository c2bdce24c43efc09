package vhdl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/resolver"
)

func TestEmit_And(t *testing.T) {
	r := resolver.New(nil)
	nl, err := elaborate.Elaborate(r, "And", nil)
	if err != nil {
		t.Fatal(err)
	}
	src, err := Emit(nl)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "entity NAND_GATE is") {
		t.Fatal("expected a NAND_GATE entity")
	}
	if !strings.Contains(src, "entity And_n2v is") {
		t.Fatalf("expected a top-level And entity, mangled to And_n2v (VHDL identifiers are case-insensitive, so And collides with and), got:\n%s", src)
	}
	if strings.Contains(src, "clk") {
		t.Fatal("And is purely combinational and should carry no clk port")
	}
}

func TestEmit_MangledReservedName(t *testing.T) {
	dir := t.TempDir()
	writeChip(t, dir, "loop", `
CHIP loop {
    IN in;
    OUT out;
    PARTS:
    Not(in=in, out=out);
}
`)
	r := resolver.New([]string{dir})
	nl, err := elaborate.Elaborate(r, "loop", nil)
	if err != nil {
		t.Fatal(err)
	}
	src, err := Emit(nl)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "entity loop_n2v is") {
		t.Fatalf("expected mangled entity name loop_n2v, got:\n%s", src)
	}
}

func TestEmit_SequentialChipGetsClockPort(t *testing.T) {
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
	nl, err := elaborate.Elaborate(r, "Latch", nil)
	if err != nil {
		t.Fatal(err)
	}
	src, err := Emit(nl)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "entity DFF_CELL is") {
		t.Fatal("expected a DFF_CELL entity")
	}
	if !strings.Contains(src, "clk : in std_logic") {
		t.Fatal("expected a clk port on the sequential top-level entity")
	}
}

func TestEmit_RAMDistinctGenerics(t *testing.T) {
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
	nl, err := elaborate.Elaborate(r, "Mem", nil)
	if err != nil {
		t.Fatal(err)
	}
	src, err := Emit(nl)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "entity RAM_CELL_4X8 is") {
		t.Fatalf("expected a RAM_CELL_4X8 entity, got:\n%s", src)
	}
}

func writeChip(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".hdl"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}
