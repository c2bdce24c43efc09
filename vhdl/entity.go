// Package vhdl translates an elaborated netlist.Netlist into VHDL
// entities and architectures, plus a Modelsim testbench and a
// Quartus/TCL project scaffold.
//
// The elaborator flattens every structural instantiation down to the
// three Go-native primitives before a netlist ever reaches this
// package, so "one entity per unique (chip, generic binding)" here
// means one entity for the top-level chip plus one entity for each
// distinct primitive-and-generic-binding pair the top level actually
// instantiates (a single NAND_GATE and DFF_CELL, and one RAM_CELL per
// distinct (address width, data width) pair used by a RAM instance).
package vhdl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/db47h/hdlsim/netlist"
	"github.com/db47h/hdlsim/primitives"
)

// Emit renders the VHDL source implementing nl: a library preamble, one
// component entity per primitive kind/generic binding the netlist
// instantiates, and the top-level entity and architecture wiring them
// together.
func Emit(nl *netlist.Netlist) (string, error) {
	var b strings.Builder

	b.WriteString("-- GENERATED FILE, DO NOT EDIT\n")
	b.WriteString("library ieee;\n")
	b.WriteString("use ieee.std_logic_1164.all;\n\n")

	ramGenerics := distinctRAMGenerics(nl)

	hasNand, hasDFF := false, false
	for _, inst := range nl.Instances {
		switch inst.Chip {
		case primitives.NandName:
			hasNand = true
		case primitives.DFFName:
			hasDFF = true
		}
	}
	if hasNand {
		b.WriteString(nandEntity())
		b.WriteString("\n")
	}
	if hasDFF {
		b.WriteString(dffEntity())
		b.WriteString("\n")
	}
	for _, g := range ramGenerics {
		b.WriteString(ramEntity(g[0], g[1]))
		b.WriteString("\n")
	}

	top, err := topEntity(nl)
	if err != nil {
		return "", err
	}
	b.WriteString(top)

	return b.String(), nil
}

func distinctRAMGenerics(nl *netlist.Netlist) [][2]int {
	seen := map[[2]int]bool{}
	var out [][2]int
	for _, inst := range nl.Instances {
		if inst.Chip != primitives.RAMName {
			continue
		}
		g := [2]int{inst.Generics[0], inst.Generics[1]}
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

func nandEntity() string {
	return `entity NAND_GATE is
  port (
    a, b : in  std_logic;
    y    : out std_logic
  );
end entity NAND_GATE;

architecture rtl of NAND_GATE is
begin
  y <= a nand b;
end architecture rtl;
`
}

func dffEntity() string {
	return `entity DFF_CELL is
  port (
    clk  : in  std_logic;
    d    : in  std_logic;
    load : in  std_logic;
    q    : out std_logic
  );
end entity DFF_CELL;

architecture rtl of DFF_CELL is
begin
  process (clk)
  begin
    if rising_edge(clk) then
      if load = '1' then
        q <= d;
      end if;
    end if;
  end process;
end architecture rtl;
`
}

func ramName(addrW, dataW int) string {
	return fmt.Sprintf("RAM_CELL_%dX%d", addrW, dataW)
}

func ramEntity(addrW, dataW int) string {
	name := ramName(addrW, dataW)
	return fmt.Sprintf(`entity %s is
  port (
    clk     : in  std_logic;
    load    : in  std_logic;
    address : in  std_logic_vector(%d downto 0);
    din     : in  std_logic_vector(%d downto 0);
    dout    : out std_logic_vector(%d downto 0)
  );
end entity %s;

architecture rtl of %s is
  type mem_t is array (0 to %d) of std_logic_vector(%d downto 0);
  signal mem : mem_t := (others => (others => '0'));
begin
  dout <= mem(to_integer(unsigned(address)));
  process (clk)
  begin
    if rising_edge(clk) then
      if load = '1' then
        mem(to_integer(unsigned(address))) <= din;
      end if;
    end if;
  end process;
end architecture rtl;
`, name, addrW-1, dataW-1, dataW-1, name, name, (1<<uint(addrW))-1, dataW-1)
}

func topEntity(nl *netlist.Netlist) (string, error) {
	entityName := Mangle(nl.ChipName)
	var b strings.Builder

	fmt.Fprintf(&b, "entity %s is\n  port (\n", entityName)
	var ports []string
	for _, name := range nl.InputPorts() {
		ports = append(ports, portDecl(name, nl.Width(name), "in"))
	}
	for _, name := range nl.OutputPorts() {
		ports = append(ports, portDecl(name, nl.Width(name), "out"))
	}
	if hasSequential(nl) {
		ports = append(ports, "clk : in std_logic")
	}
	b.WriteString("    " + strings.Join(ports, ";\n    ") + "\n")
	b.WriteString("  );\n")
	fmt.Fprintf(&b, "end entity %s;\n\n", entityName)

	fmt.Fprintf(&b, "architecture rtl of %s is\n", entityName)
	for i := range nl.Nets {
		fmt.Fprintf(&b, "  signal %s : std_logic;\n", netSignal(nl, i))
	}
	for idx, inst := range nl.Instances {
		if inst.Chip == primitives.RAMName {
			dataW := inst.Generics[1]
			fmt.Fprintf(&b, "  signal i%d_dout : std_logic_vector(%d downto 0);\n", idx, dataW-1)
		}
	}
	b.WriteString("begin\n")

	for _, port := range nl.Inputs {
		fmt.Fprintf(&b, "  %s <= %s(%d);\n", netSignal(nl, port.Net), Mangle(port.Name), port.Bit)
	}
	constNets := make([]int, 0, len(nl.Const))
	for net := range nl.Const {
		constNets = append(constNets, net)
	}
	sort.Ints(constNets)
	for _, net := range constNets {
		fmt.Fprintf(&b, "  %s <= '%s';\n", netSignal(nl, net), constBit(nl.Const[net]))
	}

	for idx, inst := range nl.Instances {
		s, err := instStatement(nl, idx, inst)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}

	for _, port := range nl.Outputs {
		fmt.Fprintf(&b, "  %s(%d) <= %s;\n", Mangle(port.Name), port.Bit, netSignal(nl, port.Net))
	}

	b.WriteString("end architecture rtl;\n")
	return b.String(), nil
}

func portDecl(name string, width int, dir string) string {
	if width <= 1 {
		return fmt.Sprintf("%s : %s std_logic_vector(0 downto 0)", Mangle(name), dir)
	}
	return fmt.Sprintf("%s : %s std_logic_vector(%d downto 0)", Mangle(name), dir, width-1)
}

func hasSequential(nl *netlist.Netlist) bool { return nl.IsSequential() }

func netSignal(nl *netlist.Netlist, net int) string {
	return fmt.Sprintf("net_%d", net)
}

func constBit(v primitives.Trit) string {
	if v == primitives.One {
		return "1"
	}
	return "0"
}

func instStatement(nl *netlist.Netlist, idx int, inst netlist.Instance) (string, error) {
	label := fmt.Sprintf("i%d", idx)
	switch inst.Chip {
	case primitives.NandName:
		return fmt.Sprintf("  %s : entity work.NAND_GATE port map (a => %s, b => %s, y => %s);\n",
			label, netSignal(nl, inst.Inputs[0]), netSignal(nl, inst.Inputs[1]), netSignal(nl, inst.Outputs[0])), nil
	case primitives.DFFName:
		return fmt.Sprintf("  %s : entity work.DFF_CELL port map (clk => clk, d => %s, load => %s, q => %s);\n",
			label, netSignal(nl, inst.Inputs[0]), netSignal(nl, inst.Inputs[1]), netSignal(nl, inst.Outputs[0])), nil
	case primitives.RAMName:
		addrW, dataW := inst.Generics[0], inst.Generics[1]
		name := ramName(addrW, dataW)
		din := busAggregate(nl, inst.Inputs[:dataW])
		addr := busAggregate(nl, inst.Inputs[dataW+1:])
		load := netSignal(nl, inst.Inputs[dataW])
		dout := busSlices(nl, inst.Outputs, label)
		var b strings.Builder
		fmt.Fprintf(&b, "  %s : entity work.%s port map (clk => clk, load => %s, address => %s, din => %s, dout => %s_dout);\n",
			label, name, load, addr, din, label)
		b.WriteString(dout)
		return b.String(), nil
	}
	return "", fmt.Errorf("vhdl: unknown primitive chip %q", inst.Chip)
}

func busAggregate(nl *netlist.Netlist, nets []int) string {
	parts := make([]string, len(nets))
	for i, n := range nets {
		parts[len(nets)-1-i] = netSignal(nl, n)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func busSlices(nl *netlist.Netlist, nets []int, label string) string {
	var b strings.Builder
	for i, n := range nets {
		fmt.Fprintf(&b, "  %s <= %s_dout(%d);\n", netSignal(nl, n), label, i)
	}
	return b.String()
}
