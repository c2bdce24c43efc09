package testscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/resolver"
	"github.com/db47h/hdlsim/tscript"
)

func TestRun_AndCombinational(t *testing.T) {
	dir := t.TempDir()
	script := `
load And.hdl,
output-file And.out,
compare-to And.cmp,
output-list a%B0.1.0, b%B0.1.0, out%B0.1.1;

set a 0, set b 0, eval, output;
set a 0, set b 1, eval, output;
set a 1, set b 0, eval, output;
set a 1, set b 1, eval, output;
`
	cmp := "|0|0|0 |\n|0|1|0 |\n|1|0|0 |\n|1|1|1 |\n"
	if err := os.WriteFile(filepath.Join(dir, "And.cmp"), []byte(cmp), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := tscript.Parse("t.tst", script)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(nil)
	result, err := Run(r, sc, dir, 1, 4)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected pass, first diff at line %d", result.FirstDiffLine)
	}
	if len(result.Lines) != 4 {
		t.Fatalf("expected 4 output lines, got %d", len(result.Lines))
	}
	got, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != cmp {
		t.Fatalf("output file mismatch:\ngot:  %q\nwant: %q", got, cmp)
	}
}

func TestRun_MismatchReportsFirstDiffLine(t *testing.T) {
	dir := t.TempDir()
	script := `
load And.hdl,
output-file And.out,
compare-to And.cmp,
output-list out%B0.1.1;

set a 0, set b 0, eval, output;
set a 1, set b 1, eval, output;
`
	cmp := "|0 |\n|0 |\n"
	if err := os.WriteFile(filepath.Join(dir, "And.cmp"), []byte(cmp), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := tscript.Parse("t.tst", script)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(nil)
	result, err := Run(r, sc, dir, 1, 4)
	if err == nil {
		t.Fatal("expected a TestMismatch error")
	}
	if k, ok := herr.KindOf(err); !ok || k != herr.TestMismatch {
		t.Fatalf("expected TestMismatch, got %v (ok=%v)", k, ok)
	}
	if result.Passed || result.FirstDiffLine != 2 {
		t.Fatalf("expected failure at line 2, got passed=%v line=%d", result.Passed, result.FirstDiffLine)
	}
}

func TestRun_DFFLoadGatedTick(t *testing.T) {
	dir := t.TempDir()
	chip := `
CHIP Latch {
    IN in, load;
    OUT out;
    PARTS:
    DFF(in=in, load=load, out=out);
}
`
	if err := os.WriteFile(filepath.Join(dir, "Latch.hdl"), []byte(chip), 0o644); err != nil {
		t.Fatal(err)
	}
	script := `
load Latch.hdl,
output-file Latch.out,
compare-to Latch.cmp,
output-list in%B0.1.0, load%B0.1.0, out%B0.1.1;

set in 1, set load 1, tick, tock, output;
set in 0, set load 0, tick, tock, output;
set load 1, tick, tock, output;
`
	cmp := "|1|1|1 |\n|0|0|1 |\n|0|1|0 |\n"
	if err := os.WriteFile(filepath.Join(dir, "Latch.cmp"), []byte(cmp), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := tscript.Parse("t.tst", script)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New([]string{dir})
	result, err := Run(r, sc, dir, 1, 4)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected pass, first diff at line %d", result.FirstDiffLine)
	}
}

func TestRun_UnknownSignalInSet(t *testing.T) {
	dir := t.TempDir()
	script := `
load And.hdl,
output-list out%B0.1.1;
set nope 1, eval, output;
`
	sc, err := tscript.Parse("t.tst", script)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(nil)
	_, err = Run(r, sc, dir, 1, 4)
	if k, ok := herr.KindOf(err); !ok || k != herr.UnknownPort {
		t.Fatalf("expected UnknownPort, got %v (ok=%v)", k, ok)
	}
}
