// Package dsp implements the node library the signal graph evaluates
// one sample at a time: oscillators, filters, envelopes, dynamics,
// delay/reverb, modulation effects, analysis, and small utility nodes.
// Every node type owns its own state as struct fields and exposes a
// Process method that advances that state by exactly one sample —
// there is no separate "state" object threaded alongside the node, which
// is the idiomatic Go shape for what the node library's process(ctx,
// &mut state) description asks for in a language with mutable receivers.
package dsp

// Context carries the per-block constants every node's Process method
// needs: the engine sample rate:  all per-sample time constants (filter
// coefficients, envelope increments) are derived from it.
type Context struct {
	SampleRate float64
}

// DeltaT returns the sample period in seconds.
func (c Context) DeltaT() float64 { return 1.0 / c.SampleRate }
