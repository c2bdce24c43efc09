package primitives

// DFFState holds the stored bits of a width-generic data flip-flop. The
// output always reflects the value latched at the last rising clock edge,
// mirroring the one-tick input delay every clocked DFF exhibits.
type DFFState struct {
	bits []Trit
}

// NewDFFState allocates a DFF register of the given width, reset to
// Unknown (no clock edge has latched a value yet).
func NewDFFState(width int) *DFFState {
	bits := make([]Trit, width)
	for i := range bits {
		bits[i] = Unknown
	}
	return &DFFState{bits: bits}
}

// Step advances the register by one simulation tick. On a rising edge
// (atTick), a one on load latches in, a zero holds the stored value, and
// an unknown load makes the stored value unknown (it is not known
// whether the edge latched or held). The returned value is always the
// (possibly just-updated) stored value.
func (s *DFFState) Step(atTick bool, in []Trit, load Trit) []Trit {
	if atTick {
		switch load {
		case One:
			copy(s.bits, in)
		case Unknown:
			for i := range s.bits {
				s.bits[i] = Unknown
			}
		}
	}
	out := make([]Trit, len(s.bits))
	copy(out, s.bits)
	return out
}
