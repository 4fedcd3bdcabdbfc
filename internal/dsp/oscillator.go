package dsp

import "math"

// phaseInc returns the per-sample phase increment for a given frequency,
// wrapping handled by the caller.
func phaseInc(ctx Context, freq float64) float64 { return freq / ctx.SampleRate }

func wrapPhase(p float64) float64 {
	if p >= 1 {
		return p - math.Floor(p)
	}
	if p < 0 {
		return p - math.Floor(p)
	}
	return p
}

// Sine is a phase-accumulator sine oscillator, center-panned.
type Sine struct{ Phase float64 }

func (o *Sine) Process(ctx Context, freq float64) (l, r float64) {
	v := math.Sin(2 * math.Pi * o.Phase)
	o.Phase = wrapPhase(o.Phase + phaseInc(ctx, freq))
	return v, v
}

// Saw is a band-unlimited (naive) sawtooth; acceptable at the sample
// rates this engine targets per the node library's reference-tone test
// obligation rather than a stricter anti-aliasing requirement.
type Saw struct{ Phase float64 }

func (o *Saw) Process(ctx Context, freq float64) (l, r float64) {
	v := 2*o.Phase - 1
	o.Phase = wrapPhase(o.Phase + phaseInc(ctx, freq))
	return v, v
}

// Square is a 50%-duty square oscillator.
type Square struct{ Phase float64 }

func (o *Square) Process(ctx Context, freq float64) (l, r float64) {
	v := 1.0
	if o.Phase >= 0.5 {
		v = -1.0
	}
	o.Phase = wrapPhase(o.Phase + phaseInc(ctx, freq))
	return v, v
}

// Triangle is a linear triangle oscillator.
type Triangle struct{ Phase float64 }

func (o *Triangle) Process(ctx Context, freq float64) (l, r float64) {
	var v float64
	if o.Phase < 0.5 {
		v = 4*o.Phase - 1
	} else {
		v = 3 - 4*o.Phase
	}
	o.Phase = wrapPhase(o.Phase + phaseInc(ctx, freq))
	return v, v
}

// Pulse is a variable-duty-cycle square oscillator.
type Pulse struct{ Phase float64 }

func (o *Pulse) Process(ctx Context, freq, width float64) (l, r float64) {
	if width <= 0 {
		width = 0.5
	}
	v := 1.0
	if o.Phase >= width {
		v = -1.0
	}
	o.Phase = wrapPhase(o.Phase + phaseInc(ctx, freq))
	return v, v
}

// WaveTable plays back an arbitrary single-cycle waveform by
// interpolated table lookup.
type WaveTable struct {
	Table []float64
	Phase float64
}

func (o *WaveTable) Process(ctx Context, freq float64) (l, r float64) {
	n := len(o.Table)
	if n == 0 {
		return 0, 0
	}
	pos := o.Phase * float64(n)
	i0 := int(pos) % n
	i1 := (i0 + 1) % n
	frac := pos - math.Floor(pos)
	v := o.Table[i0]*(1-frac) + o.Table[i1]*frac
	o.Phase = wrapPhase(o.Phase + phaseInc(ctx, freq))
	return v, v
}

// SuperSaw stacks nVoices detuned Saw oscillators, spreading them across
// the stereo field.
type SuperSaw struct {
	voices []Saw
	init   bool
}

func (o *SuperSaw) Process(ctx Context, freq, detune float64, nVoices int) (l, r float64) {
	if nVoices < 1 {
		nVoices = 1
	}
	if !o.init || len(o.voices) != nVoices {
		o.voices = make([]Saw, nVoices)
		for i := range o.voices {
			o.voices[i].Phase = float64(i) / float64(nVoices)
		}
		o.init = true
	}
	for i := range o.voices {
		spread := 0.0
		if nVoices > 1 {
			spread = (float64(i)/float64(nVoices-1))*2 - 1
		}
		f := freq * (1 + spread*detune)
		v, _ := o.voices[i].Process(ctx, f)
		pan := spread
		gl := (1 - pan) / 2
		gr := (1 + pan) / 2
		l += v * gl / float64(nVoices)
		r += v * gr / float64(nVoices)
	}
	return l, r
}

// SoftSaw is a saw oscillator passed through a single-pole lowpass to
// round off the naive discontinuity, a cheap alternative to full
// band-limited synthesis.
type SoftSaw struct {
	saw   Saw
	state float64
}

func (o *SoftSaw) Process(ctx Context, freq, softness float64) (l, r float64) {
	raw, _ := o.saw.Process(ctx, freq)
	if softness <= 0 {
		softness = 0.2
	}
	a := math.Exp(-2 * math.Pi * (freq * 4) * softness * ctx.DeltaT())
	o.state = a*o.state + (1-a)*raw
	return o.state, o.state
}
