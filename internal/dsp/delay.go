package dsp

// ringBuffer is a simple power-unconstrained circular buffer shared by
// the delay family.
type ringBuffer struct {
	buf []float64
	pos int
}

func (r *ringBuffer) resize(n int) {
	if n < 1 {
		n = 1
	}
	if len(r.buf) == n {
		return
	}
	r.buf = make([]float64, n)
	r.pos = 0
}

func (r *ringBuffer) write(x float64) {
	r.buf[r.pos] = x
	r.pos = (r.pos + 1) % len(r.buf)
}

// readDelayed returns the sample written `samples` writes ago, read
// before this sample's write: 1 is the previous write, len(buf) the
// oldest one held.
func (r *ringBuffer) readDelayed(samples int) float64 {
	n := len(r.buf)
	if samples < 1 {
		samples = 1
	}
	if samples > n {
		samples = n
	}
	idx := (r.pos - samples + n) % n
	return r.buf[idx]
}

// Delay is a single-tap feedback delay line.
type Delay struct {
	ring ringBuffer
}

func (d *Delay) Process(ctx Context, x, time, feedback float64) (l, r float64) {
	samples := int(time * ctx.SampleRate)
	d.ring.resize(samples + 1)
	wet := d.ring.readDelayed(samples)
	d.ring.write(x + wet*feedback)
	return wet, wet
}

// MultiTap reads several fixed-ratio taps off one delay line and mixes
// them as an equal-weight average.
type MultiTap struct {
	ring ringBuffer
	taps []float64 // tap times as a fraction of the base time
}

func NewMultiTap(taps []float64) *MultiTap { return &MultiTap{taps: taps} }

func (d *MultiTap) Process(ctx Context, x, baseTime, feedback float64) (l, r float64) {
	samples := int(baseTime * ctx.SampleRate)
	d.ring.resize(samples + 1)
	sum := 0.0
	for _, frac := range d.taps {
		s := int(float64(samples) * frac)
		sum += d.ring.readDelayed(s)
	}
	if len(d.taps) > 0 {
		sum /= float64(len(d.taps))
	}
	d.ring.write(x + sum*feedback)
	return sum, sum
}

// PingPong bounces a stereo delay between channels: the left output
// feeds the right delay line's input and vice versa.
type PingPong struct {
	left, right ringBuffer
}

func (d *PingPong) Process(ctx Context, x, time, feedback float64) (l, r float64) {
	samples := int(time * ctx.SampleRate)
	d.left.resize(samples + 1)
	d.right.resize(samples + 1)
	wetL := d.left.readDelayed(samples)
	wetR := d.right.readDelayed(samples)
	d.left.write(x + wetR*feedback)
	d.right.write(wetL * feedback)
	return wetL, wetR
}

// Reverb is a Freeverb-style network: eight parallel combs feeding four
// series allpasses per channel.
type Reverb struct {
	combsL, combsR     [8]Comb
	allpassL, allpassR [4]Allpass
	inited             bool
	combTimes          [8]float64
	allpassTimes       [4]float64
}

var freeverbCombTunings = [8]float64{1557, 1617, 1491, 1422, 1277, 1356, 1188, 1116}
var freeverbAllpassTunings = [4]float64{225, 341, 441, 556}

func (rv *Reverb) ensureInit(ctx Context) {
	if rv.inited {
		return
	}
	for i := range rv.combTimes {
		rv.combTimes[i] = ctx.SampleRate / freeverbCombTunings[i]
	}
	for i := range rv.allpassTimes {
		rv.allpassTimes[i] = ctx.SampleRate / freeverbAllpassTunings[i]
	}
	rv.inited = true
}

func (rv *Reverb) Process(ctx Context, x, room, damp, mix float64) (l, r float64) {
	rv.ensureInit(ctx)
	feedback := 0.7 + 0.28*room
	_ = damp // damping modeled as comb feedback attenuation below

	sumL, sumR := 0.0, 0.0
	for i := range rv.combsL {
		freqL := ctx.SampleRate / freeverbCombTunings[i]
		freqR := ctx.SampleRate / (freeverbCombTunings[i] * 1.01)
		cL, _ := rv.combsL[i].Process(ctx, x, freqL, feedback*(1-0.2*damp))
		cR, _ := rv.combsR[i].Process(ctx, x, freqR, feedback*(1-0.2*damp))
		sumL += cL
		sumR += cR
	}
	wetL, wetR := sumL/float64(len(rv.combsL)), sumR/float64(len(rv.combsR))
	for i := range rv.allpassL {
		freqL := ctx.SampleRate / freeverbAllpassTunings[i]
		freqR := ctx.SampleRate / (freeverbAllpassTunings[i] * 1.01)
		wetL, _ = rv.allpassL[i].Process(ctx, wetL, freqL, 0.5)
		wetR, _ = rv.allpassR[i].Process(ctx, wetR, freqR, 0.5)
	}
	outL := x*(1-mix) + wetL*mix
	outR := x*(1-mix) + wetR*mix
	return outL, outR
}

// Convolve applies a fixed impulse response via direct time-domain
// convolution, suitable for the short IRs this engine's block sizes
// allow without an FFT-based partitioned convolver.
type Convolve struct {
	ir      []float64
	history []float64
	pos     int
}

func NewConvolve(ir []float64) *Convolve {
	return &Convolve{ir: ir, history: make([]float64, len(ir))}
}

func (c *Convolve) Process(ctx Context, x float64) (l, r float64) {
	if len(c.ir) == 0 {
		return x, x
	}
	c.history[c.pos] = x
	sum := 0.0
	n := len(c.ir)
	for i := 0; i < n; i++ {
		idx := (c.pos - i + n) % n
		sum += c.ir[i] * c.history[idx]
	}
	c.pos = (c.pos + 1) % n
	return sum, sum
}

// Diffuser scrambles transients by passing the input through four short
// allpass filters in series, the cheap pre-reverb "smearing" stage many
// reverb designs use ahead of the tail proper. There is no mixing matrix
// between the stages: the signal path is a single mono chain.
type Diffuser struct {
	stages [4]Allpass
	times  [4]float64
}

func NewDiffuser() *Diffuser {
	return &Diffuser{times: [4]float64{1700, 2300, 2900, 3700}}
}

func (d *Diffuser) Process(ctx Context, x, amount float64) (l, r float64) {
	if amount <= 0 {
		amount = 0.5
	}
	y := x
	for i := range d.stages {
		y, _ = d.stages[i].Process(ctx, y, d.times[i], amount)
	}
	return y, y
}
