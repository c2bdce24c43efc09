package primitives

import "embed"

// Stdlib is the bundled standard-chip library: the Nand2Tetris-derived
// gate, mux and arithmetic chips built in terms of Nand and each other.
// The resolver searches it last, after every user search-path directory,
// so a project can shadow any of these names with its own definition.
//
//go:embed stdlib/*.hdl
var Stdlib embed.FS
