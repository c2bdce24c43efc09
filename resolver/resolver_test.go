package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/hdlsim/herr"
)

func TestResolve_stdlibFallback(t *testing.T) {
	r := New(nil)
	def, err := r.Resolve("And")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "And" {
		t.Fatalf("got %q", def.Name)
	}
}

func TestResolve_unknownChip(t *testing.T) {
	r := New(nil)
	_, err := r.Resolve("NoSuchChip")
	if k, ok := herr.KindOf(err); !ok || k != herr.UnknownChip {
		t.Fatalf("expected UnknownChip, got %v (ok=%v)", k, ok)
	}
}

func TestResolve_searchPathShadowsStdlib(t *testing.T) {
	dir := t.TempDir()
	src := `
CHIP And {
    IN a, b, c;
    OUT out;
    PARTS:
    Nand(a=a, b=b, out=out);
}
`
	if err := os.WriteFile(filepath.Join(dir, "And.hdl"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New([]string{dir})
	def, err := r.Resolve("And")
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Inputs) != 3 {
		t.Fatalf("expected the user-provided 3-input And, got %d inputs", len(def.Inputs))
	}
}

func TestResolve_redefinedChip(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	src := "CHIP Foo { IN a; OUT out; PARTS: Not(in=a, out=out); }"
	for _, d := range []string{dir1, dir2} {
		if err := os.WriteFile(filepath.Join(d, "Foo.hdl"), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	r := New([]string{dir1, dir2})
	_, err := r.Resolve("Foo")
	if k, ok := herr.KindOf(err); !ok || k != herr.RedefinedChip {
		t.Fatalf("expected RedefinedChip, got %v (ok=%v)", k, ok)
	}
}

func TestClosure_excludesPrimitivesAndDedupsDiamonds(t *testing.T) {
	r := New(nil)
	defs, err := r.Closure("Xor")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]int{}
	for _, d := range defs {
		names[d.Name]++
	}
	if names["Xor"] != 1 || names["Not"] != 1 || names["And"] != 1 || names["Or"] != 1 {
		t.Fatalf("expected exactly one of each dependency, got %v", names)
	}
	if _, ok := names["Nand"]; ok {
		t.Fatal("Nand is a primitive and should not appear in the closure")
	}
}

func TestClosure_primitiveTop(t *testing.T) {
	r := New(nil)
	defs, err := r.Closure("Nand")
	if err != nil {
		t.Fatal(err)
	}
	if defs != nil {
		t.Fatalf("expected a nil closure for a primitive top-level chip, got %v", defs)
	}
}
