package vhdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/tscript"
)

// Testbench renders a Modelsim testbench for nl that replays script:
// each set/tick/tock command becomes a stimulus statement, and each
// output command becomes an assert per output-list port against the
// corresponding line of golden (the parsed compare-to file, one entry
// per output event, in the same pipe-delimited shape the test runner
// writes). A golden column that is unknown ('x') or wildcarded ('*')
// is skipped, since there is nothing concrete to assert against.
func Testbench(nl *netlist.Netlist, script *tscript.Script, entityName string, golden []string) (string, error) {
	entityName = Mangle(entityName)
	var b strings.Builder

	var specs []tscript.OutputSpec
	for _, cmd := range script.Commands {
		if ol, ok := cmd.(*tscript.OutputList); ok {
			specs = ol.Specs
		}
	}

	b.WriteString("-- GENERATED FILE, DO NOT EDIT\n")
	b.WriteString("library ieee;\n")
	b.WriteString("use ieee.std_logic_1164.all;\n\n")
	fmt.Fprintf(&b, "entity %s_tb is\nend entity %s_tb;\n\n", entityName, entityName)
	fmt.Fprintf(&b, "architecture sim of %s_tb is\n", entityName)

	for _, name := range nl.InputPorts() {
		fmt.Fprintf(&b, "  signal %s : std_logic_vector(%d downto 0) := (others => '0');\n", Mangle(name), width1(nl, name))
	}
	for _, name := range nl.OutputPorts() {
		fmt.Fprintf(&b, "  signal %s : std_logic_vector(%d downto 0);\n", Mangle(name), width1(nl, name))
	}
	if nl.IsSequential() {
		b.WriteString("  signal clk : std_logic := '0';\n")
	}
	b.WriteString("begin\n")

	portMaps := make([]string, 0, len(nl.InputPorts())+len(nl.OutputPorts())+1)
	for _, name := range nl.InputPorts() {
		portMaps = append(portMaps, fmt.Sprintf("%s => %s", Mangle(name), Mangle(name)))
	}
	for _, name := range nl.OutputPorts() {
		portMaps = append(portMaps, fmt.Sprintf("%s => %s", Mangle(name), Mangle(name)))
	}
	if nl.IsSequential() {
		portMaps = append(portMaps, "clk => clk")
	}
	fmt.Fprintf(&b, "  dut : entity work.%s port map (%s);\n\n", entityName, strings.Join(portMaps, ", "))

	if nl.IsSequential() {
		b.WriteString("  clk <= not clk after 5 ns;\n\n")
	}

	b.WriteString("  process\n")
	b.WriteString("  begin\n")
	step := 0
	for _, cmd := range script.Commands {
		switch v := cmd.(type) {
		case *tscript.Set:
			writeSet(&b, nl, v)
		case *tscript.Tick:
			if nl.IsSequential() {
				b.WriteString("    wait until rising_edge(clk);\n")
			}
		case *tscript.Tock:
			if nl.IsSequential() {
				b.WriteString("    wait until falling_edge(clk);\n")
			}
		case *tscript.Eval:
			b.WriteString("    wait for 1 ns;\n")
		case *tscript.Output:
			step++
			if step <= len(golden) {
				writeAssert(&b, nl, specs, golden[step-1], step)
			}
		}
	}
	b.WriteString("    report \"test script replay complete\";\n")
	b.WriteString("    wait;\n")
	b.WriteString("  end process;\n")
	b.WriteString("end architecture sim;\n")

	return b.String(), nil
}

// writeAssert emits one assert statement per output-list port, comparing
// the DUT's current signal value against the corresponding column of a
// golden-file row (the pipe-delimited text the test runner produces,
// e.g. "|0|1|0 |"). A column holding an unknown ('x') or wildcard ('*')
// value is skipped.
func writeAssert(b *strings.Builder, nl *netlist.Netlist, specs []tscript.OutputSpec, row string, step int) {
	cols := strings.Split(strings.Trim(row, "|"), "|")
	for i, spec := range specs {
		if i >= len(cols) {
			break
		}
		width := nl.Width(spec.Name)
		bits, ok := cmpValue(cols[i], spec, width)
		if !ok {
			continue
		}
		name := Mangle(spec.Name)
		fmt.Fprintf(b, "    assert (%s = \"%s\") report \"%s mismatch at step %d\" severity error;\n",
			name, bits, spec.Name, step)
	}
}

// cmpValue parses one golden-file column (already split on "|", still
// carrying its literal padding spaces) into a width-bit binary digit
// string, MSB first, suitable for a VHDL string literal. ok is false
// when the column holds an unknown ('x') or wildcard ('*') value, since
// neither has a concrete bit pattern to assert against.
func cmpValue(s string, spec tscript.OutputSpec, width int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "x*") {
		return "", false
	}

	var v uint64
	switch spec.Fmt {
	case 'B':
		if len(s) != width {
			return "", false
		}
		v = 0
		for i := 0; i < width; i++ {
			if s[width-1-i] == '1' {
				v |= 1 << uint(i)
			}
		}
	case 'X':
		n, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return "", false
		}
		v = n
	default: // 'D'
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", false
		}
		v = uint64(n) & (1<<uint(width) - 1)
	}

	bits := make([]byte, width)
	for i := 0; i < width; i++ {
		ch := byte('0')
		if v&(1<<uint(i)) != 0 {
			ch = '1'
		}
		bits[width-1-i] = ch
	}
	return string(bits), true
}

func width1(nl *netlist.Netlist, name string) int {
	w := nl.Width(name)
	if w <= 1 {
		return 0
	}
	return w - 1
}

func writeSet(b *strings.Builder, nl *netlist.Netlist, v *tscript.Set) {
	width := nl.Width(v.Ident)
	name := Mangle(v.Ident)
	if v.Index != nil {
		bit := 0
		if v.Value != 0 {
			bit = 1
		}
		fmt.Fprintf(b, "    %s(%d) <= '%d';\n", name, *v.Index, bit)
		return
	}
	fmt.Fprintf(b, "    %s <= std_logic_vector(to_unsigned(%d, %d));\n", name, uint64(v.Value), width)
}
