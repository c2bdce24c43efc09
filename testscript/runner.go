// Package testscript interprets the Nand2Tetris-compatible test-script
// dialect against an elaborated circuit, producing a formatted output
// file and, when asked, diffing it against a golden compare-to file.
package testscript

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/primitives"
	"github.com/db47h/hdlsim/resolver"
	"github.com/db47h/hdlsim/sim"
	"github.com/db47h/hdlsim/tscript"
)

// Result is the outcome of running a test script.
type Result struct {
	OutputPath  string
	ComparePath string
	Lines       []string
	Passed      bool
	// FirstDiffLine is the 1-based line number of the first mismatch
	// against ComparePath. Zero if Passed, or if no compare-to was given.
	FirstDiffLine int
}

// Run interprets script against res (used to resolve any `load` target),
// writing the output-file and diffing against compare-to (if present)
// relative to dir. workers and stepsPerCycle configure every sim.Circuit
// the script loads.
func Run(res *resolver.Resolver, script *tscript.Script, dir string, workers int, stepsPerCycle uint) (*Result, error) {
	var (
		c           *sim.Circuit
		specs       []tscript.OutputSpec
		lines       []string
		outputName  string
		compareName string
	)
	defer func() {
		if c != nil {
			c.Dispose()
		}
	}()

	for _, cmd := range script.Commands {
		switch v := cmd.(type) {
		case *tscript.Load:
			name := strings.TrimSuffix(filepath.Base(v.File), filepath.Ext(v.File))
			nl, err := elaborate.Elaborate(res, name, v.Generics)
			if err != nil {
				return nil, err
			}
			if c != nil {
				c.Dispose()
			}
			c, err = sim.NewCircuit(nl, workers, stepsPerCycle)
			if err != nil {
				return nil, err
			}
		case *tscript.OutputFile:
			outputName = v.Name
		case *tscript.CompareTo:
			compareName = v.Name
		case *tscript.OutputList:
			specs = v.Specs
		case *tscript.Set:
			if c == nil {
				return nil, herr.Newf(herr.PrimitiveMisuse, v.Pos(), "set before load")
			}
			if err := applySet(c, v); err != nil {
				return nil, err
			}
		case *tscript.Eval:
			if c == nil {
				return nil, herr.Newf(herr.PrimitiveMisuse, v.Pos(), "eval before load")
			}
			c.Settle()
		case *tscript.Tick:
			if c == nil {
				return nil, herr.Newf(herr.PrimitiveMisuse, v.Pos(), "tick before load")
			}
			c.Tick()
		case *tscript.Tock:
			if c == nil {
				return nil, herr.Newf(herr.PrimitiveMisuse, v.Pos(), "tock before load")
			}
			c.Tock()
		case *tscript.Output:
			if c == nil {
				return nil, herr.Newf(herr.PrimitiveMisuse, v.Pos(), "output before load")
			}
			lines = append(lines, formatRow(c, specs))
		}
	}

	result := &Result{Lines: lines}

	if outputName != "" {
		result.OutputPath = filepath.Join(dir, outputName)
		content := strings.Join(lines, "\n")
		if len(lines) > 0 {
			content += "\n"
		}
		if err := os.WriteFile(result.OutputPath, []byte(content), 0o644); err != nil {
			return nil, herr.Wrapf(err, herr.IoError, herr.Pos{}, "writing %s", result.OutputPath)
		}
	}

	if compareName == "" {
		result.Passed = true
		return result, nil
	}

	result.ComparePath = filepath.Join(dir, compareName)
	golden, err := os.ReadFile(result.ComparePath)
	if err != nil {
		return nil, herr.Wrapf(err, herr.IoError, herr.Pos{}, "reading %s", result.ComparePath)
	}

	line, ok := diffLines(lines, splitLines(string(golden)))
	result.Passed = ok
	result.FirstDiffLine = line
	if !ok {
		return result, herr.Newf(herr.TestMismatch, herr.Pos{}, "output differs from %s at line %d", compareName, line)
	}
	return result, nil
}

func splitLines(s string) []string {
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// diffLines compares got against want ignoring trailing whitespace on
// each line, returning the 1-based line number of the first mismatch.
func diffLines(got, want []string) (int, bool) {
	n := len(got)
	if len(want) > n {
		n = len(want)
	}
	for i := 0; i < n; i++ {
		var g, w string
		if i < len(got) {
			g = strings.TrimRight(got[i], " \t")
		}
		if i < len(want) {
			w = strings.TrimRight(want[i], " \t")
		}
		if g != w {
			return i + 1, false
		}
	}
	return 0, true
}

func applySet(c *sim.Circuit, v *tscript.Set) error {
	nl := c.Netlist()
	width := nl.Width(v.Ident)
	if width == 0 {
		return herr.Newf(herr.UnknownPort, v.Pos(), "unknown signal %q", v.Ident)
	}
	if v.Index != nil {
		bit := *v.Index
		if bit < 0 || bit >= width {
			return herr.Newf(herr.OutOfRangeSlice, v.Pos(), "bit index %d out of range for %s (width %d)", bit, v.Ident, width)
		}
		t := primitives.Zero
		if v.Value != 0 {
			t = primitives.One
		}
		c.SetPort(v.Ident, bit, t)
		return nil
	}
	for bit, t := range intToBits(v.Value, width) {
		c.SetPort(v.Ident, bit, t)
	}
	return nil
}

func formatRow(c *sim.Circuit, specs []tscript.OutputSpec) string {
	nl := c.Netlist()
	cols := make([]string, len(specs))
	for i, spec := range specs {
		width := nl.Width(spec.Name)
		bits := make([]primitives.Trit, width)
		for b := 0; b < width; b++ {
			bits[b], _ = c.GetPort(spec.Name, b)
		}
		cols[i] = formatValue(bits, spec)
	}
	return "|" + strings.Join(cols, "|") + "|"
}
