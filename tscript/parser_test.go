package tscript

import "testing"

func TestParse_basic(t *testing.T) {
	src := `
load And.hdl,
output-file And.out,
compare-to And.cmp,
output-list a%B1.1.0, b%B1.1.0, out%B1.1.0;

set a 0, set b 0, eval, output;
set a 0, set b 1, eval, output;
set a 1, set b 1, eval, output;
`
	s, err := Parse("and.tst", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Commands) == 0 {
		t.Fatal("expected at least one command")
	}
	load, ok := s.Commands[0].(*Load)
	if !ok {
		t.Fatalf("commands[0] is not *Load: %T", s.Commands[0])
	}
	if load.File != "And.hdl" {
		t.Fatalf("bad load file: %q", load.File)
	}
	ol, ok := s.Commands[3].(*OutputList)
	if !ok {
		t.Fatalf("commands[3] is not *OutputList: %T", s.Commands[3])
	}
	if len(ol.Specs) != 3 {
		t.Fatalf("expected 3 output specs, got %d", len(ol.Specs))
	}
	if ol.Specs[0].Name != "a" || ol.Specs[0].Fmt != 'B' || ol.Specs[0].SpaceBefore != 1 || ol.Specs[0].Columns != 1 || ol.Specs[0].SpaceAfter != 0 {
		t.Fatalf("bad spec[0]: %+v", ol.Specs[0])
	}
}

func TestParse_generics(t *testing.T) {
	s, err := Parse("mux.tst", `load<8,4> Mux16.hdl;`)
	if err != nil {
		t.Fatal(err)
	}
	load := s.Commands[0].(*Load)
	if len(load.Generics) != 2 || load.Generics[0] != 8 || load.Generics[1] != 4 {
		t.Fatalf("bad generics: %+v", load.Generics)
	}
	if load.File != "Mux16.hdl" {
		t.Fatalf("bad file: %q", load.File)
	}
}

func TestParse_setHexAndBusIndex(t *testing.T) {
	s, err := Parse("ram.tst", `set address[3] 1, set in 0x1F, tick, tock;`)
	if err != nil {
		t.Fatal(err)
	}
	set0 := s.Commands[0].(*Set)
	if set0.Ident != "address" || set0.Index == nil || *set0.Index != 3 || set0.Value != 1 {
		t.Fatalf("bad set[0]: %+v", set0)
	}
	set1 := s.Commands[1].(*Set)
	if set1.Ident != "in" || set1.Value != 0x1F {
		t.Fatalf("bad set[1]: %+v", set1)
	}
	if _, ok := s.Commands[2].(*Tick); !ok {
		t.Fatalf("commands[2] is not *Tick: %T", s.Commands[2])
	}
	if _, ok := s.Commands[3].(*Tock); !ok {
		t.Fatalf("commands[3] is not *Tock: %T", s.Commands[3])
	}
}

func TestParse_unknownCommand(t *testing.T) {
	if _, err := Parse("bad.tst", `frobnicate;`); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}
