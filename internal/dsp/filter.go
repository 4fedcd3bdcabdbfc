package dsp

import "math"

// biquadCoeffs holds a standard direct-form-II transposed biquad's
// coefficients, normalized so a0 == 1.
type biquadCoeffs struct{ b0, b1, b2, a1, a2 float64 }

// biquadState is the two-sample history a transposed-direct-form-II
// biquad needs between calls.
type biquadState struct{ z1, z2 float64 }

func (s *biquadState) process(c biquadCoeffs, x float64) float64 {
	y := c.b0*x + s.z1
	s.z1 = c.b1*x - c.a1*y + s.z2
	s.z2 = c.b2*x - c.a2*y
	return y
}

func clampCutoff(ctx Context, cutoff float64) float64 {
	nyquist := ctx.SampleRate * 0.49
	if cutoff < 10 {
		return 10
	}
	if cutoff > nyquist {
		return nyquist
	}
	return cutoff
}

// svfCoeffs computes RBJ-style biquad coefficients for the state-variable
// family (lpf/hpf/bpf/notch) from cutoff and Q.
func svfCoeffs(ctx Context, cutoff, q float64, kind string) biquadCoeffs {
	cutoff = clampCutoff(ctx, cutoff)
	if q <= 0 {
		q = 0.707
	}
	w0 := 2 * math.Pi * cutoff / ctx.SampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)
	alpha := sinw0 / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case "hpf":
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "bpf":
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "notch":
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	default: // lpf
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}
	return biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// SVFilter is a general biquad state-variable filter node backing
// lpf/hpf/bpf/notch; Kind selects the response.
type SVFilter struct {
	Kind  string // "lpf", "hpf", "bpf", "notch"
	state biquadState
}

func (f *SVFilter) Process(ctx Context, x, cutoff, q float64) (l, r float64) {
	c := svfCoeffs(ctx, cutoff, q, f.Kind)
	y := f.state.process(c, x)
	return y, y
}

// peakingCoeffs computes an RBJ peaking-EQ biquad for one band of
// ParametricEQ.
func peakingCoeffs(ctx Context, freq, gainDB, q float64) biquadCoeffs {
	freq = clampCutoff(ctx, freq)
	if q <= 0 {
		q = 0.707
	}
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / ctx.SampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)
	alpha := sinw0 / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosw0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw0
	a2 := 1 - alpha/a
	return biquadCoeffs{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// ParametricEQ cascades three peaking biquads (low, mid, high bands).
type ParametricEQ struct {
	lo, mid, hi biquadState
}

func (eq *ParametricEQ) Process(ctx Context, x float64, fLo, gLo, qLo, fMid, gMid, qMid, fHi, gHi, qHi float64) (l, r float64) {
	y := eq.lo.process(peakingCoeffs(ctx, fLo, gLo, qLo), x)
	y = eq.mid.process(peakingCoeffs(ctx, fMid, gMid, qMid), y)
	y = eq.hi.process(peakingCoeffs(ctx, fHi, gHi, qHi), y)
	return y, y
}

// MoogLadder is a four-pole transistor-ladder lowpass approximation
// using the Stilson/Smith one-pole cascade with resonance feedback.
type MoogLadder struct {
	stage [4]float64
	delay [4]float64
}

func (m *MoogLadder) Process(ctx Context, x, cutoff, resonance float64) (l, r float64) {
	cutoff = clampCutoff(ctx, cutoff)
	if resonance < 0 {
		resonance = 0
	}
	if resonance > 4 {
		resonance = 4
	}
	f := cutoff / (ctx.SampleRate * 0.5)
	fc := f * (1.8 - 0.8*f)
	fb := resonance * (1.0 - 0.15*fc*fc)

	input := x - fb*m.stage[3]
	input = input * 0.35013 * (fc * fc) * (fc * fc)

	m.stage[0] = input + 0.3*m.delay[0] + (1-fc)*m.stage[0]
	m.delay[0] = input
	m.stage[1] = m.stage[0] + 0.3*m.delay[1] + (1-fc)*m.stage[1]
	m.delay[1] = m.stage[0]
	m.stage[2] = m.stage[1] + 0.3*m.delay[2] + (1-fc)*m.stage[2]
	m.delay[2] = m.stage[1]
	m.stage[3] = m.stage[2] + 0.3*m.delay[3] + (1-fc)*m.stage[3]
	m.delay[3] = m.stage[2]

	y := m.stage[3]
	return y, y
}

// Comb is a feedback comb filter: delay(freq) with feedback gain.
type Comb struct {
	buf        []float64
	pos        int
	lastFreq   float64
	lastSR     float64
}

func (c *Comb) Process(ctx Context, x, freq, feedback float64) (l, r float64) {
	if freq <= 0 {
		freq = 100
	}
	delaySamples := int(ctx.SampleRate / freq)
	if delaySamples < 1 {
		delaySamples = 1
	}
	if len(c.buf) != delaySamples {
		c.buf = make([]float64, delaySamples)
		c.pos = 0
	}
	read := c.buf[c.pos]
	c.buf[c.pos] = x + read*feedback
	c.pos = (c.pos + 1) % len(c.buf)
	return read, read
}

// Allpass is a first-order Schroeder allpass filter used as a phase
// diffuser in the reverb/diffuser nodes and exposed directly.
type Allpass struct {
	buf []float64
	pos int
}

func (a *Allpass) Process(ctx Context, x, freq, q float64) (l, r float64) {
	if freq <= 0 {
		freq = 441
	}
	delaySamples := int(ctx.SampleRate / freq)
	if delaySamples < 1 {
		delaySamples = 1
	}
	if len(a.buf) != delaySamples {
		a.buf = make([]float64, delaySamples)
		a.pos = 0
	}
	g := q
	if g <= 0 || g >= 1 {
		g = 0.5
	}
	bufout := a.buf[a.pos]
	y := -g*x + bufout
	a.buf[a.pos] = x + g*y
	a.pos = (a.pos + 1) % len(a.buf)
	return y, y
}
