// Package sgraph implements the unified signal graph (§4.5): an indexed
// arena of DSP nodes whose parameters are either constants, other nodes'
// outputs, or pattern→signal bindings. The graph may be cyclic provided
// every cycle passes through at least one node carrying delay state;
// legality is checked once at build time with Tarjan's algorithm, and
// per-sample evaluation walks a fixed order computed from that check.
package sgraph

import "github.com/phonon-lang/phonon/internal/dsp"

// NodeId indexes a node within a Graph's arena.
type NodeId int

// Node is a DSP primitive wired into the graph. Eval advances the node's
// own state by exactly one sample given its resolved inputs, in the
// fixed order its Ports were declared, and returns a stereo frame.
type Node interface {
	Eval(ctx dsp.Context, ins []float64) (l, r float64)
}

// DelayNode is implemented by nodes that carry at least one sample of
// delay state (filters, delay lines, envelopes, lag, comb, waveguide,
// pluck). A graph cycle is only legal if at least one of its members
// implements this and reports true.
type DelayNode interface {
	HasDelay() bool
}

// TriggerEvent carries the payload of one pattern onset delivered
// directly to a Triggerable node, bypassing the scalar-input scratch
// array for binding kinds that need more than one number.
type TriggerEvent struct {
	Gain, Pan, Speed float64
	CutGroup         int
	Buffer           *dsp.Buffer // non-nil for sample-binding triggers
}

// Triggerable is implemented by nodes that consume discrete onsets
// directly: the sample player and the per-event envelope retriggers.
type Triggerable interface {
	Trigger(ev TriggerEvent)
}

// BoundSource is satisfied by a pattern→signal binding (internal/binding):
// anything that can render a per-sample control array covering one audio
// block. Kept as a local interface so sgraph does not import binding
// (binding imports sgraph to build TriggerEvents, not the reverse).
type BoundSource interface {
	RenderBlock(n int) []float64
}

// TriggerSource is satisfied by a trigger/sample binding: it delivers
// its block's onsets as (sample offset, event) pairs already resolved to
// TriggerEvent payloads.
type TriggerSource interface {
	RenderTriggers(n int) []ScheduledTrigger
}

// ScheduledTrigger pairs a TriggerEvent with the sample offset within the
// current block at which it fires.
type ScheduledTrigger struct {
	Offset int
	Event  TriggerEvent
}

// InputKind tags which of the three input shapes an Input uses.
type InputKind int

const (
	InputConst InputKind = iota
	InputRef
	InputBound
)

// Input is one resolved parameter of a node: a constant, a reference to
// another node's output, or a pattern binding.
type Input struct {
	Kind  InputKind
	Const float64
	Ref   NodeId
	Bound BoundSource
}

// ConstInput builds a fixed-value Input.
func ConstInput(v float64) Input { return Input{Kind: InputConst, Const: v} }

// RefInput builds an Input that reads another node's current (or, for a
// feedback edge, previous) sample.
func RefInput(id NodeId) Input { return Input{Kind: InputRef, Ref: id} }

// BoundInput builds an Input driven by a pattern→signal binding.
func BoundInput(b BoundSource) Input { return Input{Kind: InputBound, Bound: b} }

// MixPolicy selects how the `out`/`o1`/`o2`/… terms are combined into the
// stereo master per §4.5.
type MixPolicy int

const (
	MixDirect MixPolicy = iota
	MixSoftTanh
	MixHardClip
	MixDivideByN
	MixSqrtN
)

// ParseMixPolicy resolves the outmix: DSL keyword to a MixPolicy.
func ParseMixPolicy(name string) (MixPolicy, bool) {
	switch name {
	case "direct", "":
		return MixDirect, true
	case "soft-tanh":
		return MixSoftTanh, true
	case "hard-clip":
		return MixHardClip, true
	case "divide-by-n":
		return MixDivideByN, true
	case "sqrt-n":
		return MixSqrtN, true
	default:
		return MixDirect, false
	}
}
