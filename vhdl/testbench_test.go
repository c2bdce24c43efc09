package vhdl

import (
	"strings"
	"testing"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/resolver"
	"github.com/db47h/hdlsim/tscript"
)

func TestTestbench_And(t *testing.T) {
	r := resolver.New(nil)
	nl, err := elaborate.Elaborate(r, "And", nil)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := tscript.Parse("and.tst", `
load And.hdl,
output-list a%B0.1.0, b%B0.1.0, out%B0.1.0;

set a 0, set b 0, eval, output;
set a 1, set b 1, eval, output;
`)
	if err != nil {
		t.Fatal(err)
	}
	golden := []string{"|0|0|0|", "|1|1|1|"}
	src, err := Testbench(nl, sc, "And", golden)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "entity And_n2v_tb is") {
		t.Fatalf("expected an And_n2v_tb entity (And is mangled), got:\n%s", src)
	}
	if !strings.Contains(src, "dut : entity work.And_n2v port map") {
		t.Fatal("expected a DUT instantiation of the mangled And_n2v entity")
	}
	if strings.Contains(src, "clk <= not clk") {
		t.Fatal("And is combinational, testbench should not drive a clock")
	}
	if !strings.Contains(src, `assert (a = "0") report "a mismatch at step 1" severity error;`) {
		t.Fatalf("expected an assert for port a at step 1, got:\n%s", src)
	}
	if !strings.Contains(src, `assert (out_n2v = "1") report "out mismatch at step 2" severity error;`) {
		t.Fatalf("expected an assert for port out at step 2, got:\n%s", src)
	}
}

func TestTestbench_SkipsUnknownGoldenColumn(t *testing.T) {
	r := resolver.New(nil)
	nl, err := elaborate.Elaborate(r, "And", nil)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := tscript.Parse("and.tst", `
load And.hdl,
output-list a%B0.1.0, b%B0.1.0, out%B0.1.0;

set a 0, set b 0, eval, output;
`)
	if err != nil {
		t.Fatal(err)
	}
	golden := []string{"|0|0|x|"}
	src, err := Testbench(nl, sc, "And", golden)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(src, `"out mismatch`) {
		t.Fatalf("expected no assert for unknown golden column, got:\n%s", src)
	}
	if !strings.Contains(src, `assert (a = "0") report "a mismatch at step 1" severity error;`) {
		t.Fatalf("expected an assert for port a, got:\n%s", src)
	}
}

func TestScaffold_RendersAllFiles(t *testing.T) {
	files, err := Scaffold(ScaffoldParams{
		Project:   "And",
		VHDLFiles: []string{"And.vhd"},
		Testbench: "And_tb.vhd",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(files.QuartusProjectTCL, "project_new And") {
		t.Fatalf("bad quartus project tcl:\n%s", files.QuartusProjectTCL)
	}
	if !strings.Contains(files.QuartusSettings, "TOP_LEVEL_ENTITY And") {
		t.Fatalf("bad quartus settings:\n%s", files.QuartusSettings)
	}
	if !strings.Contains(files.ModelsimDo, "vcom -2008 And.vhd") {
		t.Fatalf("bad modelsim script:\n%s", files.ModelsimDo)
	}
}
