package testscript

import (
	"strconv"
	"strings"

	"github.com/db47h/hdlsim/primitives"
	"github.com/db47h/hdlsim/tscript"
)

// formatValue renders bits (low bit first) per a
// %fmt<space-before>.<columns>.<space-after> spec: the numeral is
// right-justified into a field Columns characters wide, then that field
// is surrounded by SpaceBefore and SpaceAfter literal spaces. Any
// unknown bit makes a D/X value print as "x"; a B value prints one "x"
// per unknown bit, since the individual bits are still observable.
func formatValue(bits []primitives.Trit, spec tscript.OutputSpec) string {
	var s string
	switch spec.Fmt {
	case 'B':
		s = binaryString(bits)
	case 'X':
		if hasUnknown(bits) {
			s = "x"
		} else {
			s = strconv.FormatUint(unsignedValue(bits), 16)
		}
	default: // 'D'
		if hasUnknown(bits) {
			s = "x"
		} else {
			s = strconv.FormatInt(signedValue(bits), 10)
		}
	}
	if spec.Columns > len(s) {
		s = strings.Repeat(" ", spec.Columns-len(s)) + s
	}
	if spec.SpaceBefore > 0 {
		s = strings.Repeat(" ", spec.SpaceBefore) + s
	}
	if spec.SpaceAfter > 0 {
		s += strings.Repeat(" ", spec.SpaceAfter)
	}
	return s
}

func hasUnknown(bits []primitives.Trit) bool {
	for _, b := range bits {
		if b == primitives.Unknown {
			return true
		}
	}
	return false
}

func binaryString(bits []primitives.Trit) string {
	b := make([]byte, len(bits))
	for i, t := range bits {
		var ch byte
		switch t {
		case primitives.Zero:
			ch = '0'
		case primitives.One:
			ch = '1'
		default:
			ch = 'x'
		}
		b[len(bits)-1-i] = ch
	}
	return string(b)
}

func unsignedValue(bits []primitives.Trit) uint64 {
	var v uint64
	for i, b := range bits {
		if b == primitives.One {
			v |= 1 << uint(i)
		}
	}
	return v
}

func signedValue(bits []primitives.Trit) int64 {
	v := int64(unsignedValue(bits))
	if len(bits) > 0 && len(bits) < 64 && bits[len(bits)-1] == primitives.One {
		v -= 1 << uint(len(bits))
	}
	return v
}

// intToBits expands v (two's complement) to a width-bit vector, low bit
// first.
func intToBits(v int64, width int) []primitives.Trit {
	bits := make([]primitives.Trit, width)
	for i := range bits {
		if v&(1<<uint(i)) != 0 {
			bits[i] = primitives.One
		} else {
			bits[i] = primitives.Zero
		}
	}
	return bits
}
