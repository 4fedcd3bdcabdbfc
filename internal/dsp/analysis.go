package dsp

import "math"

// RMS tracks a running root-mean-square level over a sliding exponential
// window of the given length in seconds.
type RMS struct {
	meanSq float64
}

func (n *RMS) Process(ctx Context, x, window float64) (l, r float64) {
	coeff := onePoleCoeff(ctx, window)
	n.meanSq = coeff*n.meanSq + (1-coeff)*x*x
	v := math.Sqrt(n.meanSq)
	return v, v
}

// PeakFollower tracks the input's instantaneous peak with independent
// attack and release time constants.
type PeakFollower struct {
	level float64
}

func (n *PeakFollower) Process(ctx Context, x, attack, release float64) (l, r float64) {
	level := math.Abs(x)
	coeff := onePoleCoeff(ctx, release)
	if level > n.level {
		coeff = onePoleCoeff(ctx, attack)
	}
	n.level = coeff*n.level + (1-coeff)*level
	return n.level, n.level
}

// AmpFollower combines a PeakFollower's envelope shape with RMS-style
// averaging over window seconds.
type AmpFollower struct {
	peak PeakFollower
	rms  RMS
}

func (n *AmpFollower) Process(ctx Context, x, attack, release, window float64) (l, r float64) {
	followed, _ := n.peak.Process(ctx, x, attack, release)
	v, _ := n.rms.Process(ctx, followed, window)
	return v, v
}

// ZeroCrossing counts sign changes within a sliding window and reports
// the rate in crossings per second.
type ZeroCrossing struct {
	lastSign float64
	buf      []bool
	pos      int
}

func (n *ZeroCrossing) Process(ctx Context, x, window float64) (l, r float64) {
	size := int(window * ctx.SampleRate)
	if size < 1 {
		size = 1
	}
	if len(n.buf) != size {
		n.buf = make([]bool, size)
		n.pos = 0
	}
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	crossed := sign != n.lastSign && n.lastSign != 0
	n.lastSign = sign
	n.buf[n.pos] = crossed
	n.pos = (n.pos + 1) % len(n.buf)
	count := 0
	for _, c := range n.buf {
		if c {
			count++
		}
	}
	rate := float64(count) / window
	return rate, rate
}

// Schmidt is a Schmidt trigger: output snaps high above the high
// threshold and stays high until the input falls below low.
type Schmidt struct {
	state bool
}

func (n *Schmidt) Process(ctx Context, x, high, low float64) (l, r float64) {
	if !n.state && x >= high {
		n.state = true
	} else if n.state && x <= low {
		n.state = false
	}
	v := 0.0
	if n.state {
		v = 1
	}
	return v, v
}

// SampleHold latches the input value on each rising edge of trigger and
// holds it between edges.
type SampleHold struct {
	held      float64
	lastInput float64
}

func (n *SampleHold) Process(ctx Context, x, trigger float64) (l, r float64) {
	if trigger >= 0.5 && n.lastInput < 0.5 {
		n.held = x
	}
	n.lastInput = trigger
	return n.held, n.held
}

// Latch is SampleHold with an explicit gate: while gate is high the
// output tracks the input and freezes the moment the gate falls.
type Latch struct {
	held float64
}

func (n *Latch) Process(ctx Context, x, gate float64) (l, r float64) {
	if gate >= 0.5 {
		n.held = x
	}
	return n.held, n.held
}

// Timer measures elapsed seconds since the last rising edge of trigger.
type Timer struct {
	elapsed   float64
	lastInput float64
}

func (n *Timer) Process(ctx Context, trigger float64) (l, r float64) {
	if trigger >= 0.5 && n.lastInput < 0.5 {
		n.elapsed = 0
	}
	n.lastInput = trigger
	v := n.elapsed
	n.elapsed += ctx.DeltaT()
	return v, v
}

// Lag is a simple one-pole smoother with a configurable time constant,
// the same idiom the binding layer uses for pattern-controlled
// parameters, exposed directly as a node.
type Lag struct {
	state float64
	init  bool
}

func (n *Lag) Process(ctx Context, x, time float64) (l, r float64) {
	if !n.init {
		n.state = x
		n.init = true
	}
	coeff := onePoleCoeff(ctx, time)
	n.state = coeff*n.state + (1-coeff)*x
	return n.state, n.state
}
