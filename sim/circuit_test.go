package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/primitives"
	"github.com/db47h/hdlsim/resolver"
)

func TestCircuit_AndTruthTable(t *testing.T) {
	r := resolver.New(nil)
	nl, err := elaborate.Elaborate(r, "And", nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewCircuit(nl, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	cases := []struct {
		a, b, want primitives.Trit
	}{
		{primitives.Zero, primitives.Zero, primitives.Zero},
		{primitives.Zero, primitives.One, primitives.Zero},
		{primitives.One, primitives.Zero, primitives.Zero},
		{primitives.One, primitives.One, primitives.One},
	}
	for _, tc := range cases {
		if !c.SetPort("a", 0, tc.a) || !c.SetPort("b", 0, tc.b) {
			t.Fatal("missing input port")
		}
		c.Settle()
		got, ok := c.GetPort("out", 0)
		if !ok {
			t.Fatal("missing output port")
		}
		if got != tc.want {
			t.Errorf("And(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFullTable_Xor(t *testing.T) {
	r := resolver.New(nil)
	nl, err := elaborate.Elaborate(r, "Xor", nil)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := FullTable(nl, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for _, row := range rows {
		a, b := row.Inputs[0], row.Inputs[1]
		want := primitives.Zero
		if (a == primitives.One) != (b == primitives.One) {
			want = primitives.One
		}
		if row.Outputs[0] != want {
			t.Errorf("Xor(%v, %v) = %v, want %v", a, b, row.Outputs[0], want)
		}
	}
}

func TestFullTable_acceptsCombinational(t *testing.T) {
	r := resolver.New(nil)
	// FullTable's sequential guard is nl.IsSequential(), which elaborate's
	// own sequential test covers; here we check the guard on a stdlib
	// chip that is itself combinational, confirming no false positive.
	nl, err := elaborate.Elaborate(r, "Or", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FullTable(nl, 1); err != nil {
		t.Fatalf("Or is combinational, FullTable should succeed: %v", err)
	}
}

func TestCircuit_DFFLatchesOnTick(t *testing.T) {
	dir := t.TempDir()
	src := `
CHIP Latch {
    IN in, load;
    OUT out;
    PARTS:
    DFF(in=in, load=load, out=out);
}
`
	if err := os.WriteFile(filepath.Join(dir, "Latch.hdl"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	r := resolver.New([]string{dir})
	nl, err := elaborate.Elaborate(r, "Latch", nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewCircuit(nl, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	if got, ok := c.GetPort("out", 0); !ok || got != primitives.Unknown {
		t.Fatalf("expected Unknown before any tick, got %v (ok=%v)", got, ok)
	}

	c.SetPort("in", 0, primitives.One)
	c.SetPort("load", 0, primitives.One)
	c.TickTock()
	if got, _ := c.GetPort("out", 0); got != primitives.One {
		t.Fatalf("expected latched 1 after a clock cycle, got %v", got)
	}

	c.SetPort("in", 0, primitives.Zero)
	c.SetPort("load", 0, primitives.Zero)
	c.TickTock()
	if got, _ := c.GetPort("out", 0); got != primitives.One {
		t.Fatalf("expected load=0 to hold the previous value, got %v", got)
	}

	c.SetPort("load", 0, primitives.One)
	c.TickTock()
	if got, _ := c.GetPort("out", 0); got != primitives.Zero {
		t.Fatalf("expected latched 0 once load is asserted again, got %v", got)
	}
}
