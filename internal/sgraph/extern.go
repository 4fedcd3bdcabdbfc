package sgraph

import "github.com/phonon-lang/phonon/internal/dsp"

// Extern is a control node whose value is poked by the runtime rather
// than computed from the graph: MIDI gates and pitches, CC values, OSC
// control messages. The runtime drains its external-event queue at the
// top of each audio callback and calls Set before any node is evaluated,
// so reads and writes happen on the audio thread in a fixed order and
// need no atomics.
type Extern struct {
	value float64
}

// Set installs the control value subsequent Eval calls return.
func (e *Extern) Set(v float64) { e.value = v }

// Value returns the currently installed control value.
func (e *Extern) Value() float64 { return e.value }

// Eval implements Node.
func (e *Extern) Eval(ctx dsp.Context, ins []float64) (l, r float64) {
	return e.value, e.value
}

// NewPassThrough builds a single-input identity node. The compiler uses
// it two ways: as the alias node behind every `~name` bus declaration
// (kind "bus", whose single Ref input Process copies through in stereo),
// and as the host node a lifted pattern's value binding hangs off (kind
// "patsig").
func NewPassThrough() *FuncNode {
	return &FuncNode{ports: []string{"in"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return ins[0], ins[0]
	}}
}
