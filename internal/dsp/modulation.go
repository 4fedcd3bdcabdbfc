package dsp

import "math"

// lfoSine is a small shared sine LFO used by the modulation-effect
// family below; it is not exported since each effect owns its own rate.
type lfoSine struct{ phase float64 }

func (o *lfoSine) next(ctx Context, rate float64) float64 {
	v := math.Sin(2 * math.Pi * o.phase)
	o.phase = wrapPhase(o.phase + phaseInc(ctx, rate))
	return v
}

// Chorus modulates a short delay line with a slow sine LFO and mixes the
// modulated signal back with the dry input.
type Chorus struct {
	ring ringBuffer
	lfo  lfoSine
}

func (c *Chorus) Process(ctx Context, x, rate, depthMs, mix float64) (l, r float64) {
	maxDelay := int((depthMs/1000 + 0.02) * ctx.SampleRate)
	c.ring.resize(maxDelay + 2)
	mod := (c.lfo.next(ctx, rate) + 1) / 2
	delaySamples := int((0.005 + mod*depthMs/1000) * ctx.SampleRate)
	wet := c.ring.readDelayed(delaySamples)
	c.ring.write(x)
	y := x*(1-mix) + wet*mix
	return y, y
}

// Flanger is Chorus with a shorter delay range and feedback, producing
// the characteristic comb-filter sweep.
type Flanger struct {
	ring     ringBuffer
	lfo      lfoSine
	feedback float64
}

func (f *Flanger) Process(ctx Context, x, rate, depthMs, feedback, mix float64) (l, r float64) {
	maxDelay := int((depthMs/1000 + 0.002) * ctx.SampleRate)
	f.ring.resize(maxDelay + 2)
	mod := (f.lfo.next(ctx, rate) + 1) / 2
	delaySamples := int((0.0005 + mod*depthMs/1000) * ctx.SampleRate)
	wet := f.ring.readDelayed(delaySamples)
	f.ring.write(x + wet*feedback)
	y := x*(1-mix) + wet*mix
	return y, y
}

// Phaser cascades allpass stages whose center frequency is swept by a
// sine LFO.
type Phaser struct {
	stages [4]Allpass
	lfo    lfoSine
}

func (p *Phaser) Process(ctx Context, x, rate, depth, mix float64) (l, r float64) {
	mod := (p.lfo.next(ctx, rate) + 1) / 2
	freq := 300 + mod*depth
	y := x
	for i := range p.stages {
		y, _ = p.stages[i].Process(ctx, y, freq*float64(i+1), 0.5)
	}
	out := x*(1-mix) + y*mix
	return out, out
}

// Vibrato modulates pitch by reading a short delay line at a
// sine-modulated rate — a pure pitch effect, unlike Chorus/Flanger
// which mix wet with dry.
type Vibrato struct {
	ring ringBuffer
	lfo  lfoSine
}

func (v *Vibrato) Process(ctx Context, x, rate, depthMs float64) (l, r float64) {
	maxDelay := int((depthMs/1000 + 0.01) * ctx.SampleRate)
	v.ring.resize(maxDelay + 2)
	mod := v.lfo.next(ctx, rate)
	delaySamples := int((depthMs/1000)*(mod+1)/2*ctx.SampleRate) + 1
	wet := v.ring.readDelayed(delaySamples)
	v.ring.write(x)
	return wet, wet
}

// Tremolo amplitude-modulates the input by a sine LFO between
// (1-depth) and 1.
type Tremolo struct{ lfo lfoSine }

func (t *Tremolo) Process(ctx Context, x, rate, depth float64) (l, r float64) {
	mod := (t.lfo.next(ctx, rate) + 1) / 2
	gain := 1 - depth*mod
	y := x * gain
	return y, y
}

// RingMod multiplies two signals directly.
func RingMod(x, modulator float64) (l, r float64) { return x * modulator, x * modulator }

// Bitcrush quantizes amplitude to 2^bits levels and holds each sample
// for holdSamples, emulating reduced bit depth and sample rate.
type Bitcrush struct {
	held  float64
	count int
}

func (b *Bitcrush) Process(ctx Context, x, bits, rateDivide float64) (l, r float64) {
	hold := int(rateDivide)
	if hold < 1 {
		hold = 1
	}
	if b.count <= 0 {
		levels := math.Pow(2, math.Max(1, bits))
		b.held = math.Round(x*levels) / levels
		b.count = hold
	}
	b.count--
	return b.held, b.held
}

// Distortion is a soft-clip waveshaper using tanh, with pre-gain drive.
func Distortion(x, drive float64) (l, r float64) {
	y := math.Tanh(x * drive)
	return y, y
}

// PitchShift is a granular pitch shifter: two overlapping read heads
// scan a circular buffer at `ratio` speed, crossfading between them to
// hide the wrap seam.
type PitchShift struct {
	buf      []float64
	writePos int
	readPos  [2]float64
	inited   bool
}

func (p *PitchShift) Process(ctx Context, x, ratio, grainMs float64) (l, r float64) {
	size := int(grainMs / 1000 * ctx.SampleRate * 4)
	if size < 64 {
		size = 64
	}
	if len(p.buf) != size {
		p.buf = make([]float64, size)
		p.writePos = 0
		p.readPos[0] = 0
		p.readPos[1] = float64(size) / 2
		p.inited = true
	}
	p.buf[p.writePos] = x
	n := float64(len(p.buf))
	out := 0.0
	grainLen := grainMs / 1000 * ctx.SampleRate
	for i := range p.readPos {
		rp := p.readPos[i]
		idx := int(rp) % len(p.buf)
		dist := math.Mod(rp-float64(p.writePos)+n, n)
		window := 0.5 - 0.5*math.Cos(2*math.Pi*dist/grainLen)
		if grainLen <= 0 {
			window = 1
		}
		out += p.buf[idx] * window
		p.readPos[i] = math.Mod(rp+ratio+n, n)
	}
	p.writePos = (p.writePos + 1) % len(p.buf)
	return out, out
}

// Formant applies three parallel bandpass resonators centered at
// f1/f2/f3 with bandwidths bw1/bw2/bw3 to impose vowel-like formants on
// a source signal.
type Formant struct {
	r1, r2, r3 biquadState
}

func formantBP(ctx Context, freq, bw float64) biquadCoeffs {
	return svfCoeffs(ctx, freq, freq/math.Max(bw, 1), "bpf")
}

func (f *Formant) Process(ctx Context, x, f1, f2, f3, bw1, bw2, bw3 float64) (l, r float64) {
	y1 := f.r1.process(formantBP(ctx, f1, bw1), x)
	y2 := f.r2.process(formantBP(ctx, f2, bw2), x)
	y3 := f.r3.process(formantBP(ctx, f3, bw3), x)
	y := (y1 + y2 + y3) / 3
	return y, y
}

// Vocoder imposes the spectral envelope of mod onto car using n_bands
// parallel bandpass analysis/synthesis filters.
type Vocoder struct {
	bands []vocoderBand
}

type vocoderBand struct {
	analysis  biquadState
	synthesis biquadState
	envelope  float64
}

func (v *Vocoder) Process(ctx Context, mod, car float64, nBands int) (l, r float64) {
	if nBands < 1 {
		nBands = 1
	}
	if len(v.bands) != nBands {
		v.bands = make([]vocoderBand, nBands)
	}
	lowHz, highHz := 200.0, 5000.0
	ratio := math.Pow(highHz/lowHz, 1/float64(nBands))
	out := 0.0
	for i := range v.bands {
		freq := lowHz * math.Pow(ratio, float64(i)+0.5)
		coeff := svfCoeffs(ctx, freq, 4, "bpf")
		analyzed := v.bands[i].analysis.process(coeff, mod)
		level := math.Abs(analyzed)
		smoothing := onePoleCoeff(ctx, 0.01)
		v.bands[i].envelope = smoothing*v.bands[i].envelope + (1-smoothing)*level
		synthesized := v.bands[i].synthesis.process(coeff, car)
		out += synthesized * v.bands[i].envelope
	}
	out /= float64(nBands)
	return out, out
}

// Granular scans a live input buffer with overlapping grains of
// grainMs length, density grains/sec, each transposed by pitch (a ratio).
type Granular struct {
	buf      []float64
	writePos int
	grains   []grainVoice
}

type grainVoice struct {
	pos    float64
	life   float64
	active bool
}

func (g *Granular) Process(ctx Context, x, grainMs, density, pitch float64) (l, r float64) {
	size := int(grainMs/1000*ctx.SampleRate) * 4
	if size < 64 {
		size = 64
	}
	if len(g.buf) != size {
		g.buf = make([]float64, size)
		g.writePos = 0
	}
	g.buf[g.writePos] = x
	n := len(g.buf)

	if len(g.grains) == 0 {
		g.grains = make([]grainVoice, 8)
	}
	spawnProb := density * ctx.DeltaT()
	for i := range g.grains {
		if !g.grains[i].active && spawnProb > 0 {
			g.grains[i] = grainVoice{pos: float64((g.writePos - size/2 + n) % n), life: 0, active: true}
			spawnProb -= 1
		}
	}

	grainLen := grainMs / 1000 * ctx.SampleRate
	out := 0.0
	for i := range g.grains {
		gr := &g.grains[i]
		if !gr.active {
			continue
		}
		idx := int(gr.pos) % n
		window := 0.5 - 0.5*math.Cos(2*math.Pi*gr.life/grainLen)
		out += g.buf[idx] * window
		gr.pos = math.Mod(gr.pos+pitch+float64(n), float64(n))
		gr.life++
		if gr.life >= grainLen {
			gr.active = false
		}
	}
	g.writePos = (g.writePos + 1) % n
	return out, out
}

// Waveguide is a Karplus-Strong-style digital waveguide: an excitation
// impulse circulates in a delay line with a damping lowpass in the
// feedback path.
type Waveguide struct {
	ring   ringBuffer
	lpf    float64
	pickup float64
}

func (w *Waveguide) Process(ctx Context, excite, freq, damp, pickup float64) (l, r float64) {
	if freq <= 0 {
		freq = 110
	}
	samples := int(ctx.SampleRate / freq)
	w.ring.resize(samples + 1)
	delayed := w.ring.readDelayed(samples)
	w.lpf = w.lpf*damp + delayed*(1-damp)
	w.ring.write(excite + w.lpf*0.995)
	pickupSamples := int(float64(samples) * pickup)
	tap := w.ring.readDelayed(pickupSamples)
	return tap, tap
}

// Pluck is Waveguide seeded with a burst of noise on each trigger
// rising edge, modeling a plucked string.
type Pluck struct {
	wg        Waveguide
	noise     White
	lastInput float64
	burstLeft int
}

func (p *Pluck) Process(ctx Context, trig, freq, damp float64) (l, r float64) {
	if trig >= 0.5 && p.lastInput < 0.5 {
		p.burstLeft = int(ctx.SampleRate / freq)
	}
	p.lastInput = trig
	excite := 0.0
	if p.burstLeft > 0 {
		n, _ := p.noise.Process(ctx)
		excite = n
		p.burstLeft--
	}
	return p.wg.Process(ctx, excite, freq, damp, 0.5)
}

// Freeze holds the spectral magnitude of the input captured at the
// moment its trigger input rises, approximated here with a long,
// heavily-damped comb bank rather than a full FFT freeze — a reasonable
// spectral-freeze substitute at block sizes too short for useful FFT
// windows.
type Freeze struct {
	combs     [8]Comb
	lastInput float64
	frozen    bool
	held      [8]float64
}

var freezeCombFreqs = [8]float64{110, 165, 220, 277, 330, 392, 440, 523}

func (fz *Freeze) Process(ctx Context, x, trig float64) (l, r float64) {
	if trig >= 0.5 && fz.lastInput < 0.5 {
		fz.frozen = true
	}
	fz.lastInput = trig
	input := x
	if fz.frozen {
		input = 0
	}
	out := 0.0
	for i := range fz.combs {
		feedback := 0.0
		if fz.frozen {
			feedback = 0.999
		}
		y, _ := fz.combs[i].Process(ctx, input, freezeCombFreqs[i], feedback)
		out += y
	}
	out /= float64(len(fz.combs))
	return out, out
}
