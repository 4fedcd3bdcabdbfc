// Package binding implements the pattern→signal binding layer of §4.7:
// the three ways a pattern feeds the signal graph (continuous value,
// discrete gate, one-shot trigger/sample onset), each rendering a whole
// audio block's worth of control data per call. Discrete, gate and
// trigger rendering covers the block with one pattern query; a
// continuous value binding queries once per sample, or once every
// ControlRate samples. The runtime calls SetBlock once per callback
// with the block's cycle-time span; the graph then pulls the rendered
// arrays through the sgraph.BoundSource/TriggerSource interfaces.
package binding

import (
	"math"

	"github.com/phonon-lang/phonon/internal/pattern"
	"github.com/phonon-lang/phonon/internal/rtime"
)

// blockContext is embedded by every binding kind: the span of cycle time
// the current block covers, expressed as a begin time plus a per-sample
// step, set once per callback before any Render* call.
type blockContext struct {
	begin rtime.Time
	step  rtime.Time // cycle-time advance per audio sample = cps/sampleRate
	sr    float64
}

// SetBlock records the cycle-time position of sample 0 of the next block
// and the engine's transport rate. cps may itself vary between blocks
// (tempo changes take effect at a block boundary, never mid-block).
func (c *blockContext) SetBlock(begin rtime.Time, cps, sampleRate float64) {
	c.begin = begin
	c.sr = sampleRate
	if sampleRate > 0 {
		// Divide as rationals rather than converting the quotient: cps
		// and sampleRate are individually exact (0.5, 44100), and the
		// per-sample step must be too or onsets drift off their sample.
		c.step = rtime.FromFloat(cps).Div(rtime.FromFloat(sampleRate))
	} else {
		c.step = rtime.Zero
	}
}

func (c *blockContext) spanEnd(n int) rtime.Time {
	return c.begin.Add(c.step.Mul(rtime.FromInt(int64(n))))
}

func (c *blockContext) sampleTime(i int) rtime.Time {
	return c.begin.Add(c.step.Mul(rtime.FromInt(int64(i))))
}

// indexOf converts a cycle-time position within the block to a sample
// offset. This is the one place pattern-algebra-adjacent code touches
// floating point position math, justified because it is converting to a
// sample clock (§4.1 permits Float64() exactly for this).
func (c *blockContext) indexOf(t rtime.Time) int {
	if c.step.Equal(rtime.Zero) {
		return 0
	}
	return int(math.Round(t.Sub(c.begin).Div(c.step).Float64()))
}

// onePole is a one-pole smoother with a millisecond time constant, used
// to de-zipper pattern-controlled filter parameters per §4.7.
type onePole struct {
	y        float64
	init     bool
	lastCoef float64
	lastMs   float64
	lastSR   float64
}

func (p *onePole) step(x, ms, sampleRate float64) float64 {
	if ms <= 0 {
		p.y = x
		p.init = true
		return x
	}
	if !p.init {
		p.y = x
		p.init = true
	}
	if ms != p.lastMs || sampleRate != p.lastSR {
		p.lastCoef = math.Exp(-1 / (ms / 1000 * sampleRate))
		p.lastMs, p.lastSR = ms, sampleRate
	}
	p.y = p.lastCoef*p.y + (1-p.lastCoef)*x
	return p.y
}

// ValueBinding samples a pattern once per audio sample (or once every
// ControlRate samples when the pattern is continuous and marked
// smooth-ok) for use as a node's scalar parameter. Discrete patterns hold
// their most recent event's value between onsets.
type ValueBinding struct {
	blockContext
	Pat Pattern

	// ControlRate, if > 1, batches continuous-pattern sampling to every
	// ControlRate-th sample (§4.7's K≈32 control-rate sampling),
	// interpolating nothing in between — the value simply holds, same as
	// a discrete pattern's most recent event.
	ControlRate int
	// SmoothMs, if > 0, runs the rendered block through a one-pole
	// smoother with this time constant (§4.7 recommends ≈5ms for
	// pattern-controlled filter cutoffs to avoid zipper noise).
	SmoothMs float64

	last    float64
	smooth  onePole
}

// Pattern is the minimal surface ValueBinding/GateBinding/TriggerBinding
// need from internal/pattern.Pattern, kept as an interface so this
// package does not need to re-export pattern.Event.
type Pattern interface {
	Query(s rtime.Span) []pattern.Event
	IsContinuous() bool
}

// NewValueBinding builds a value binding with no smoothing or control-rate
// batching (both are opt-in per parameter via the compiler).
func NewValueBinding(p Pattern) *ValueBinding {
	return &ValueBinding{Pat: p}
}

// RenderBlock implements sgraph.BoundSource.
func (b *ValueBinding) RenderBlock(n int) []float64 {
	out := make([]float64, n)
	if n == 0 || b.sr <= 0 {
		return out
	}
	if b.Pat.IsContinuous() {
		b.renderContinuous(out)
	} else {
		b.renderDiscrete(out)
	}
	if b.SmoothMs > 0 {
		for i := range out {
			out[i] = b.smooth.step(out[i], b.SmoothMs, b.sr)
		}
	}
	return out
}

func (b *ValueBinding) renderContinuous(out []float64) {
	stride := b.ControlRate
	if stride < 1 {
		stride = 1
	}
	n := len(out)
	for i := 0; i < n; i += stride {
		t := b.sampleTime(i)
		evs := b.Pat.Query(rtime.NewSpan(t, t.Add(rtime.New(1, 1<<30))))
		if len(evs) > 0 {
			b.last = evs[len(evs)-1].Value.AsNum()
		}
		for j := i; j < i+stride && j < n; j++ {
			out[j] = b.last
		}
	}
}

func (b *ValueBinding) renderDiscrete(out []float64) {
	n := len(out)
	end := b.spanEnd(n)
	evs := b.Pat.Query(rtime.NewSpan(b.begin, end))
	sortEventsByOnset(evs)
	ei := 0
	for i := 0; i < n; i++ {
		t := b.sampleTime(i)
		for ei < len(evs) && !t.Less(evs[ei].Part.Begin) {
			b.last = evs[ei].Value.AsNum()
			ei++
		}
		out[i] = b.last
	}
}

// GateBinding renders a sustained 0/1 signal that is high for exactly the
// duration of each event's Whole extent — the shape an ADSR's gate input
// expects when driven directly by a pattern (e.g. `s("bd ~ bd ~")` gating
// an adsr rather than firing one-shot triggers).
type GateBinding struct {
	blockContext
	Pat Pattern
}

func NewGateBinding(p Pattern) *GateBinding { return &GateBinding{Pat: p} }

// RenderBlock implements sgraph.BoundSource.
func (b *GateBinding) RenderBlock(n int) []float64 {
	out := make([]float64, n)
	if n == 0 || b.sr <= 0 {
		return out
	}
	end := b.spanEnd(n)
	evs := b.Pat.Query(rtime.NewSpan(b.begin, end))
	for _, e := range evs {
		if e.Whole == nil {
			continue
		}
		wb, we := e.Whole.Begin, e.Whole.End
		if wb.Less(b.begin) {
			wb = b.begin
		}
		if we.Greater(end) {
			we = end
		}
		if !wb.Less(we) {
			continue
		}
		start := clampIndex(b.indexOf(wb), n)
		stop := clampIndex(b.indexOf(we), n)
		for i := start; i < stop; i++ {
			out[i] = 1
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func sortEventsByOnset(evs []pattern.Event) {
	// Small per-block slices (a handful of onsets at most); insertion
	// sort keeps this allocation-free and avoids pulling in sort.Slice's
	// reflection-based closure for what is almost always < 32 elements.
	for i := 1; i < len(evs); i++ {
		for j := i; j > 0 && evs[j].Part.Begin.Less(evs[j-1].Part.Begin); j-- {
			evs[j], evs[j-1] = evs[j-1], evs[j]
		}
	}
}
