package binding

// ImpulseBinding renders a pattern's onsets as one-sample unit impulses
// in a scalar control stream, for nodes whose trigger port is an
// ordinary rising-edge input (ad, line, xline, sample_hold) rather than
// a Triggerable sink. Everything between onsets is zero.
type ImpulseBinding struct {
	blockContext
	Pat Pattern
}

func NewImpulseBinding(p Pattern) *ImpulseBinding { return &ImpulseBinding{Pat: p} }

// RenderBlock implements sgraph.BoundSource.
func (b *ImpulseBinding) RenderBlock(n int) []float64 {
	out := make([]float64, n)
	for _, e := range onsetsInBlock(&b.blockContext, b.Pat, n) {
		offset := b.indexOf(e.Part.Begin)
		if offset >= 0 && offset < n {
			out[offset] = 1
		}
	}
	return out
}
