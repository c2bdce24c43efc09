package sim

import (
	"runtime"
	"sync"

	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/primitives"
)

// Row is one row of an exhaustively enumerated truth table.
type Row struct {
	Inputs  []primitives.Trit
	Outputs []primitives.Trit
}

// MaxTruthTableInputs bounds FullTable to chips with at most this many
// input bits: beyond it, 2^n rows stop being a useful table and start
// being a way to hang the process on a wide bus.
const MaxTruthTableInputs = 20

// FullTable exhaustively simulates nl over every combination of its input
// bits, sharding the 2^n rows deterministically across workers goroutines
// (one private Circuit per worker, so no state is shared across rows).
// nl must be purely combinational; truth tables are undefined for a
// netlist containing a DFF or RAM.
func FullTable(nl *netlist.Netlist, workers int) ([]Row, error) {
	if nl.IsSequential() {
		return nil, herr.Newf(herr.PrimitiveMisuse, herr.Pos{}, "%s is sequential: truth tables require a purely combinational netlist", nl.ChipName)
	}

	n := len(nl.Inputs)
	if n > MaxTruthTableInputs {
		return nil, herr.Newf(herr.PrimitiveMisuse, herr.Pos{}, "%s has %d input bits: truth tables are capped at %d", nl.ChipName, n, MaxTruthTableInputs)
	}
	total := 1 << uint(n)
	rows := make([]Row, total)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > total {
			hi = total
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fullTableShard(nl, lo, hi, rows)
		}(lo, hi)
	}
	wg.Wait()
	return rows, nil
}

func fullTableShard(nl *netlist.Netlist, lo, hi int, rows []Row) {
	c, err := NewCircuit(nl, 1, 2)
	if err != nil {
		return
	}
	defer c.Dispose()

	for row := lo; row < hi; row++ {
		in := make([]primitives.Trit, len(nl.Inputs))
		for bit, p := range nl.Inputs {
			v := primitives.Zero
			if row&(1<<uint(bit)) != 0 {
				v = primitives.One
			}
			in[bit] = v
			c.Set(p.Net, v)
		}
		c.Settle()
		out := make([]primitives.Trit, len(nl.Outputs))
		for bit, p := range nl.Outputs {
			out[bit] = c.Get(p.Net)
		}
		rows[row] = Row{Inputs: in, Outputs: out}
	}
}
