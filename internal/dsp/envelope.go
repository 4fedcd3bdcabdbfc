package dsp

import (
	"math"

	"github.com/fogleman/ease"
)

type envStage int

const (
	envIdle envStage = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// ADSR is a gate-driven attack/decay/sustain/release envelope. Gate
// crossing above 0.5 (re)triggers attack; falling below 0.5 moves to
// release regardless of stage.
type ADSR struct {
	stage    envStage
	level    float64
	pos      float64
	lastGate float64
}

func (e *ADSR) Process(ctx Context, gate, a, d, s, r float64) float64 {
	gateOn := gate >= 0.5
	wasOn := e.lastGate >= 0.5
	e.lastGate = gate

	if gateOn && !wasOn {
		e.stage = envAttack
		e.pos = 0
	} else if !gateOn && wasOn {
		e.stage = envRelease
		e.pos = 0
	}

	dt := ctx.DeltaT()
	switch e.stage {
	case envAttack:
		if a <= 0 {
			e.level = 1
			e.stage = envDecay
			e.pos = 0
		} else {
			e.pos += dt
			e.level = e.pos / a
			if e.level >= 1 {
				e.level = 1
				e.stage = envDecay
				e.pos = 0
			}
		}
	case envDecay:
		if d <= 0 {
			e.level = s
			e.stage = envSustain
		} else {
			e.pos += dt
			e.level = 1 + (s-1)*(e.pos/d)
			if e.pos >= d {
				e.level = s
				e.stage = envSustain
			}
		}
	case envSustain:
		e.level = s
	case envRelease:
		start := e.level
		if r <= 0 {
			e.level = 0
			e.stage = envIdle
		} else {
			e.pos += dt
			e.level = start * (1 - e.pos/r)
			if e.pos >= r {
				e.level = 0
				e.stage = envIdle
			}
		}
	}
	if e.level < 0 {
		e.level = 0
	}
	return e.level
}

// ASR is attack/sustain/release, no decay stage: the attack rises to the
// sustain level s and holds there while the gate is high.
type ASR struct {
	stage    envStage
	level    float64
	pos      float64
	lastGate float64
}

func (e *ASR) Process(ctx Context, gate, a, s, r float64) float64 {
	gateOn := gate >= 0.5
	wasOn := e.lastGate >= 0.5
	e.lastGate = gate
	if gateOn && !wasOn {
		e.stage = envAttack
		e.pos = 0
	} else if !gateOn && wasOn {
		e.stage = envRelease
		e.pos = 0
	}
	dt := ctx.DeltaT()
	switch e.stage {
	case envAttack:
		if a <= 0 {
			e.level = s
			e.stage = envSustain
		} else {
			e.pos += dt
			e.level = s * (e.pos / a)
			if e.pos >= a {
				e.level = s
				e.stage = envSustain
			}
		}
	case envSustain:
		e.level = s
	case envRelease:
		start := e.level
		if r <= 0 {
			e.level = 0
			e.stage = envIdle
		} else {
			e.pos += dt
			e.level = start * (1 - e.pos/r)
			if e.pos >= r {
				e.level = 0
				e.stage = envIdle
			}
		}
	}
	if e.level < 0 {
		e.level = 0
	}
	return e.level
}

// AD is a one-shot attack/decay envelope retriggered on any rising edge
// of its trigger input.
type AD struct {
	stage     envStage
	level     float64
	pos       float64
	lastInput float64
}

func (e *AD) Process(ctx Context, trig, a, d float64) float64 {
	if trig >= 0.5 && e.lastInput < 0.5 {
		e.stage = envAttack
		e.pos = 0
	}
	e.lastInput = trig
	dt := ctx.DeltaT()
	switch e.stage {
	case envAttack:
		if a <= 0 {
			e.level = 1
			e.stage = envDecay
			e.pos = 0
		} else {
			e.pos += dt
			e.level = e.pos / a
			if e.pos >= a {
				e.level = 1
				e.stage = envDecay
				e.pos = 0
			}
		}
	case envDecay:
		if d <= 0 {
			e.level = 0
			e.stage = envIdle
		} else {
			e.pos += dt
			e.level = 1 - e.pos/d
			if e.pos >= d {
				e.level = 0
				e.stage = envIdle
			}
		}
	default:
		e.level = 0
	}
	if e.level < 0 {
		e.level = 0
	}
	return e.level
}

// Line is a one-shot linear ramp from a to b over dur seconds,
// retriggered on a rising edge of trig; holds at b once finished.
type Line struct {
	pos       float64
	lastInput float64
	running   bool
}

func (e *Line) Process(ctx Context, trig, a, b, dur float64) float64 {
	if trig >= 0.5 && e.lastInput < 0.5 {
		e.pos = 0
		e.running = true
	}
	e.lastInput = trig
	if !e.running || dur <= 0 {
		return b
	}
	t := e.pos / dur
	if t >= 1 {
		e.running = false
		return b
	}
	e.pos += ctx.DeltaT()
	return a + (b-a)*t
}

// XLine is Line's exponential-taper counterpart; a and b must share a
// sign and be nonzero.
type XLine struct {
	pos       float64
	lastInput float64
	running   bool
}

func (e *XLine) Process(ctx Context, trig, a, b, dur float64) float64 {
	if trig >= 0.5 && e.lastInput < 0.5 {
		e.pos = 0
		e.running = true
	}
	e.lastInput = trig
	if a == 0 {
		a = 1e-6
	}
	if !e.running || dur <= 0 {
		return b
	}
	t := e.pos / dur
	if t >= 1 {
		e.running = false
		return b
	}
	e.pos += ctx.DeltaT()
	ratio := b / a
	return a * math.Pow(ratio, t)
}

// CurveShape selects the easing function Curve applies, grounded on the
// same fogleman/ease vocabulary the teacher uses for UI animation.
type CurveShape int

const (
	CurveLinear CurveShape = iota
	CurveInQuad
	CurveOutQuad
	CurveInOutQuad
	CurveInCubic
	CurveInExpo
)

func applyEase(shape CurveShape, t float64) float64 {
	switch shape {
	case CurveInQuad:
		return ease.InQuad(t)
	case CurveOutQuad:
		return ease.OutQuad(t)
	case CurveInOutQuad:
		return ease.InOutQuad(t)
	case CurveInCubic:
		return ease.InCubic(t)
	case CurveInExpo:
		return ease.InExpo(t)
	default:
		return t
	}
}

// Curve is a one-shot breakpoint from a to b over dur seconds with a
// configurable concave/convex shape.
type Curve struct {
	pos       float64
	lastInput float64
	running   bool
}

func (e *Curve) Process(ctx Context, trig, a, b, dur float64, shape CurveShape) float64 {
	if trig >= 0.5 && e.lastInput < 0.5 {
		e.pos = 0
		e.running = true
	}
	e.lastInput = trig
	if !e.running || dur <= 0 {
		return b
	}
	t := e.pos / dur
	if t >= 1 {
		e.running = false
		return b
	}
	e.pos += ctx.DeltaT()
	return a + (b-a)*applyEase(shape, t)
}

// Segments plays an arbitrary piecewise-linear breakpoint envelope:
// levels[0]..levels[n-1] connected by times[i] seconds per segment.
type Segments struct {
	pos       float64
	lastInput float64
	running   bool
}

func (e *Segments) Process(ctx Context, trig float64, levels, times []float64) float64 {
	if trig >= 0.5 && e.lastInput < 0.5 {
		e.pos = 0
		e.running = true
	}
	e.lastInput = trig
	if len(levels) == 0 {
		return 0
	}
	if len(levels) == 1 || !e.running {
		return levels[len(levels)-1]
	}
	t := e.pos
	acc := 0.0
	for i := 0; i < len(times) && i+1 < len(levels); i++ {
		segDur := times[i]
		if t < acc+segDur {
			if segDur <= 0 {
				return levels[i+1]
			}
			frac := (t - acc) / segDur
			e.pos += ctx.DeltaT()
			return levels[i]*(1-frac) + levels[i+1]*frac
		}
		acc += segDur
	}
	e.running = false
	return levels[len(levels)-1]
}

// EnvTrig runs an independent ADSR per discrete pattern event: the
// binding layer calls Retrigger on each onset, and Process every sample
// as usual.
type EnvTrig struct {
	adsr ADSR
	gate float64
}

func (e *EnvTrig) Retrigger() { e.gate = 1 }

func (e *EnvTrig) Release() { e.gate = 0 }

func (e *EnvTrig) Process(ctx Context, a, d, s, r float64) float64 {
	return e.adsr.Process(ctx, e.gate, a, d, s, r)
}
