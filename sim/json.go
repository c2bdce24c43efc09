package sim

import (
	"encoding/json"

	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/primitives"
)

// FullTableJSON renders FullTable's result in the wire shape of a
// full_table(source) → json API: a pair of port names and rows, each
// row holding one array of bit values per port, LSB first, with an
// unknown bit serialized as JSON null.
func FullTableJSON(nl *netlist.Netlist, workers int) ([]byte, error) {
	rows, err := FullTable(nl, workers)
	if err != nil {
		return nil, err
	}

	names := append(append([]string{}, nl.InputPorts()...), nl.OutputPorts()...)
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cols := make([]interface{}, 0, len(names))
		for _, name := range nl.InputPorts() {
			cols = append(cols, bitsForPort(nl, nl.Inputs, name, row.Inputs))
		}
		for _, name := range nl.OutputPorts() {
			cols = append(cols, bitsForPort(nl, nl.Outputs, name, row.Outputs))
		}
		out[i] = cols
	}

	return json.Marshal([2]interface{}{names, out})
}

func bitsForPort(nl *netlist.Netlist, ports []netlist.Port, name string, values []primitives.Trit) []interface{} {
	width := nl.Width(name)
	bits := make([]interface{}, width)
	for i := range bits {
		bits[i] = nil
	}
	for i, p := range ports {
		if p.Name == name {
			bits[p.Bit] = jsonBit(values[i])
		}
	}
	return bits
}

func jsonBit(t primitives.Trit) interface{} {
	switch t {
	case primitives.Zero:
		return 0
	case primitives.One:
		return 1
	default:
		return nil
	}
}
