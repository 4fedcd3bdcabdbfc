package dsp

// Buffer is the decoded form of a sample: interleaved mono or stereo
// float32 frames plus the rate they were recorded at. Decoding itself
// lives outside this package; the sample player only ever reads one.
type Buffer struct {
	Frames     []float32 // interleaved, Channels per frame
	Channels   int
	SampleRate float64
}

func (b *Buffer) frameCount() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Frames) / b.Channels
}

func (b *Buffer) at(frame int) (l, r float32) {
	n := b.frameCount()
	if frame < 0 || frame >= n {
		return 0, 0
	}
	if b.Channels == 1 {
		v := b.Frames[frame]
		return v, v
	}
	idx := frame * b.Channels
	return b.Frames[idx], b.Frames[idx+1]
}

// SampleVoice plays one shot of a Buffer at a patterned speed, with
// linear interpolation between frames the same way WaveTable reads its
// table. A voice reports Done once it has played past the end of the
// buffer, the signal the owning voice manager polls for reclamation.
type SampleVoice struct {
	buf      *Buffer
	pos      float64
	gain     float64
	pan      float64
	playing  bool
	fade     float64
	fadeStep float64
}

// Trigger starts (or restarts) this voice playing buf from frame 0.
func (v *SampleVoice) Trigger(buf *Buffer, gain, pan float64) {
	v.buf = buf
	v.pos = 0
	v.gain = gain
	v.pan = pan
	v.fade = 1
	v.fadeStep = 0
	v.playing = buf != nil && buf.frameCount() > 0
}

// Stop fades the voice out over overSamples samples rather than
// truncating mid-waveform; a cut-group hard stop passes ≈1 ms worth.
func (v *SampleVoice) Stop(overSamples int) {
	if !v.playing {
		return
	}
	if overSamples < 1 {
		v.playing = false
		return
	}
	v.fadeStep = v.fade / float64(overSamples)
}

// Done reports whether the voice has exhausted its buffer.
func (v *SampleVoice) Done() bool { return !v.playing }

// Process advances the voice by one sample at the given playback speed
// (1.0 = recorded pitch) and returns its stereo contribution, already
// panned and gained. The ratio between the buffer's own sample rate and
// ctx.SampleRate is folded into speed so a voice played back on an
// engine running at a different rate than the source stays in tune.
func (v *SampleVoice) Process(ctx Context, speed float64) (l, r float64) {
	if !v.playing || v.buf == nil {
		return 0, 0
	}
	rateRatio := 1.0
	if v.buf.SampleRate > 0 {
		rateRatio = v.buf.SampleRate / ctx.SampleRate
	}
	step := speed * rateRatio

	i0 := int(v.pos)
	frac := v.pos - float64(i0)
	l0, r0 := v.buf.at(i0)
	l1, r1 := v.buf.at(i0 + 1)
	sampL := float64(l0) + (float64(l1)-float64(l0))*frac
	sampR := float64(r0) + (float64(r1)-float64(r0))*frac

	v.pos += step
	if int(v.pos) >= v.buf.frameCount() {
		v.playing = false
	}
	if v.fadeStep > 0 {
		v.fade -= v.fadeStep
		if v.fade <= 0 {
			v.fade = 0
			v.playing = false
		}
	}

	gl, gr := v.gain*v.fade*equalPowerGainL(v.pan), v.gain*v.fade*equalPowerGainR(v.pan)
	return sampL * gl, sampR * gr
}

// SamplePlayer allocates one SampleVoice per trigger onset from a fixed
// pool, the DSP-layer half of the voice-stealing policy: the graph node
// only needs "play this buffer now," the pool and cut-group bookkeeping
// belongs to the voice manager above this package. Once the pool is
// exhausted, voices are stolen in round-robin slot order.
type SamplePlayer struct {
	voices []SampleVoice
	next   int
}

// NewSamplePlayer allocates a player with a fixed polyphony.
func NewSamplePlayer(polyphony int) *SamplePlayer {
	if polyphony < 1 {
		polyphony = 1
	}
	return &SamplePlayer{voices: make([]SampleVoice, polyphony)}
}

// Trigger starts a new voice playing buf, stealing a finished voice if
// one is available and otherwise the slot at a round-robin cursor, which
// is not necessarily the oldest voice.
func (p *SamplePlayer) Trigger(buf *Buffer, gain, pan float64) {
	slot := -1
	for i := range p.voices {
		if p.voices[i].Done() {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = p.next
		p.next = (p.next + 1) % len(p.voices)
	}
	p.voices[slot].Trigger(buf, gain, pan)
}

// Process sums every active voice's output for this sample.
func (p *SamplePlayer) Process(ctx Context, speed float64) (l, r float64) {
	var sumL, sumR float64
	for i := range p.voices {
		vl, vr := p.voices[i].Process(ctx, speed)
		sumL += vl
		sumR += vr
	}
	return sumL, sumR
}
