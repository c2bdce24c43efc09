// Package rom synthesizes a constant instruction ROM as an HDL chip: a
// balanced Mux16 tree selecting among the program's 16-bit words by
// address, since the RAM primitive has no way to preload contents and
// ROM data is fixed at compile time rather than written at run time.
package rom

import (
	"fmt"
	"strings"
)

// DefaultOffset is the byte offset into a thumb-binary file where
// machine code begins, derived from inspecting a representative binary
// with readelf; callers should treat it as configurable, not assumed.
const DefaultOffset = 34

// WordsFromBinary extracts 16-bit little-endian words from data, after
// skipping offset bytes. A trailing odd byte is dropped.
func WordsFromBinary(data []byte, offset int) []uint16 {
	if offset > len(data) {
		offset = len(data)
	}
	data = data[offset:]
	words := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		words = append(words, uint16(data[i])|uint16(data[i+1])<<8)
	}
	return words
}

// Generate renders an HDL chip definition named chipName implementing a
// read-only ROM over words: a 16-bit output selected from the constant
// words by an address input, via a balanced tree of Mux16 instances.
func Generate(chipName string, words []uint16) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("rom: no words to synthesize")
	}
	addrWidth := 0
	for (1 << addrWidth) < len(words) {
		addrWidth++
	}
	size := 1 << addrWidth
	padded := make([]uint16, size)
	copy(padded, words)

	var body strings.Builder
	level := make([]string, size)
	for i, w := range padded {
		level[i] = fmt.Sprintf("%d", w)
	}
	bit := 0
	for len(level) > 1 {
		next := make([]string, len(level)/2)
		for i := 0; i < len(next); i++ {
			out := fmt.Sprintf("rom_l%d_%d", bit, i)
			fmt.Fprintf(&body, "    Mux16(a=%s, b=%s, sel=address[%d], out=%s);\n",
				level[2*i], level[2*i+1], bit, out)
			next[i] = out
		}
		level = next
		bit++
	}

	var chip strings.Builder
	fmt.Fprintf(&chip, "CHIP %s {\n", chipName)
	fmt.Fprintf(&chip, "    IN address[%d];\n", addrWidth)
	chip.WriteString("    OUT out[16];\n")
	chip.WriteString("    PARTS:\n")
	chip.WriteString(body.String())
	fmt.Fprintf(&chip, "    Or16(a=%s, b=%s, out=out);\n", level[0], level[0])
	chip.WriteString("}\n")
	return chip.String(), nil
}
