// Command hdlc is the CLI front end: check, test, synth-vhdl and rom
// subcommands, each a thin FlagSet calling straight into the core
// packages. It carries no logic of its own beyond argument plumbing and
// error reporting.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/herr"
	"github.com/db47h/hdlsim/resolver"
	"github.com/db47h/hdlsim/rom"
	"github.com/db47h/hdlsim/testscript"
	"github.com/db47h/hdlsim/tscript"
	"github.com/db47h/hdlsim/vhdl"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hdlc <check|test|synth-vhdl|rom> ...")
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "check":
		err = runCheck(os.Args[2:])
	case "test":
		err = runTest(os.Args[2:])
	case "synth-vhdl":
		err = runSynthVHDL(os.Args[2:])
	case "rom":
		err = runROM(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chipFromPath(path string) (dir, name string) {
	dir = filepath.Dir(path)
	name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return dir, name
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	topLevel := fs.String("top-level-file", "", "path to the top-level .hdl file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *topLevel == "" {
		return fmt.Errorf("check: --top-level-file is required")
	}
	dir, name := chipFromPath(*topLevel)
	r := resolver.New([]string{dir})
	_, err := elaborate.Elaborate(r, name, nil)
	return err
}

func runTest(args []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	testFile := fs.String("test-file", "", "path to the .tst script")
	workers := fs.Int("workers", 0, "simulation worker goroutines (0 = GOMAXPROCS)")
	stepsPerCycle := fs.Uint("steps-per-cycle", 4, "simulation steps per half clock cycle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *testFile == "" {
		return fmt.Errorf("test: --test-file is required")
	}
	src, err := os.ReadFile(*testFile)
	if err != nil {
		return herr.Wrapf(err, herr.IoError, herr.Pos{}, "reading %s", *testFile)
	}
	sc, err := tscript.Parse(*testFile, string(src))
	if err != nil {
		return err
	}
	dir := filepath.Dir(*testFile)
	r := resolver.New([]string{dir})
	result, err := testscript.Run(r, sc, dir, *workers, uint(*stepsPerCycle))
	if err != nil {
		return err
	}
	if !result.Passed {
		return fmt.Errorf("test: %s differs from %s at line %d", result.OutputPath, result.ComparePath, result.FirstDiffLine)
	}
	return nil
}

func runSynthVHDL(args []string) error {
	fs := flag.NewFlagSet("synth-vhdl", flag.ExitOnError)
	outDir := fs.String("output-dir", "", "output directory for generated VHDL and project scaffold")
	testFile := fs.String("test-file", "", "optional .tst script to replay as testbench stimulus and assertions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	var topLevel string
	switch {
	case *outDir != "" && len(rest) == 1:
		topLevel = rest[0]
	case *outDir == "" && len(rest) == 2:
		topLevel, *outDir = rest[0], rest[1]
	default:
		return fmt.Errorf("synth-vhdl: usage is `synth-vhdl PATH OUTDIR` or `synth-vhdl --output-dir OUTDIR PATH`")
	}

	dir, name := chipFromPath(topLevel)
	r := resolver.New([]string{dir})
	nl, err := elaborate.Elaborate(r, name, nil)
	if err != nil {
		return err
	}

	src, err := vhdl.Emit(nl)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return herr.Wrapf(err, herr.IoError, herr.Pos{}, "creating %s", *outDir)
	}
	vhdlName := name + ".vhd"
	if err := os.WriteFile(filepath.Join(*outDir, vhdlName), []byte(src), 0o644); err != nil {
		return herr.Wrapf(err, herr.IoError, herr.Pos{}, "writing %s", vhdlName)
	}

	script := &tscript.Script{}
	var golden []string
	if *testFile != "" {
		tsrc, err := os.ReadFile(*testFile)
		if err != nil {
			return herr.Wrapf(err, herr.IoError, herr.Pos{}, "reading %s", *testFile)
		}
		script, err = tscript.Parse(*testFile, string(tsrc))
		if err != nil {
			return err
		}
		for _, cmd := range script.Commands {
			if cmp, ok := cmd.(*tscript.CompareTo); ok {
				cmpPath := filepath.Join(filepath.Dir(*testFile), cmp.Name)
				cmpSrc, err := os.ReadFile(cmpPath)
				if err != nil {
					return herr.Wrapf(err, herr.IoError, herr.Pos{}, "reading %s", cmpPath)
				}
				golden = splitCmpLines(string(cmpSrc))
			}
		}
	}

	tbSrc, err := vhdl.Testbench(nl, script, name, golden)
	if err != nil {
		return err
	}
	tbName := name + "_tb.vhd"
	if err := os.WriteFile(filepath.Join(*outDir, tbName), []byte(tbSrc), 0o644); err != nil {
		return herr.Wrapf(err, herr.IoError, herr.Pos{}, "writing %s", tbName)
	}

	files, err := vhdl.Scaffold(vhdl.ScaffoldParams{
		Project:   name,
		VHDLFiles: []string{vhdlName},
		Testbench: tbName,
	})
	if err != nil {
		return err
	}
	for fname, content := range map[string]string{
		name + ".qpf.tcl": files.QuartusProjectTCL,
		name + ".qsf":     files.QuartusSettings,
		"run.do":          files.ModelsimDo,
	} {
		if err := os.WriteFile(filepath.Join(*outDir, fname), []byte(content), 0o644); err != nil {
			return herr.Wrapf(err, herr.IoError, herr.Pos{}, "writing %s", fname)
		}
	}
	return nil
}

// splitCmpLines splits a .cmp file's contents into lines, one per output
// event, after dropping trailing newlines, the same way the test runner
// reads its golden file.
func splitCmpLines(s string) []string {
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func runROM(args []string) error {
	fs := flag.NewFlagSet("rom", flag.ExitOnError)
	offset := fs.Int("offset", rom.DefaultOffset, "byte offset where machine code begins")
	chipName := fs.String("name", "Rom", "generated chip name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("rom: usage is `rom PATH`")
	}
	data, err := os.ReadFile(rest[0])
	if err != nil {
		return herr.Wrapf(err, herr.IoError, herr.Pos{}, "reading %s", rest[0])
	}
	words := rom.WordsFromBinary(data, *offset)
	src, err := rom.Generate(*chipName, words)
	if err != nil {
		return err
	}
	fmt.Print(src)
	return nil
}
