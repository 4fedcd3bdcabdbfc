package sgraph

import (
	"math"

	"github.com/phonon-lang/phonon/internal/dsp"
	"github.com/phonon-lang/phonon/internal/voice"
)

// FuncNode adapts one dsp node value (or a closure over several) to the
// uniform Node interface, since each dsp.*.Process method has its own
// argument list rather than a shared signature. ports names the inputs
// in the order eval expects them in ins.
type FuncNode struct {
	ports   []string
	delay   bool
	eval    func(ctx dsp.Context, ins []float64) (l, r float64)
	trigger func(ev TriggerEvent)
}

func (f *FuncNode) Ports() []string { return f.ports }
func (f *FuncNode) HasDelay() bool  { return f.delay }

func (f *FuncNode) Eval(ctx dsp.Context, ins []float64) (l, r float64) {
	return f.eval(ctx, ins)
}

func (f *FuncNode) Trigger(ev TriggerEvent) {
	if f.trigger != nil {
		f.trigger(ev)
	}
}

func mono(f func(ctx dsp.Context, ins []float64) float64) func(dsp.Context, []float64) (float64, float64) {
	return func(ctx dsp.Context, ins []float64) (float64, float64) {
		v := f(ctx, ins)
		return v, v
	}
}

// --- Oscillators ---

func NewSine() *FuncNode {
	var o dsp.Sine
	return &FuncNode{ports: []string{"freq"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewSaw() *FuncNode {
	var o dsp.Saw
	return &FuncNode{ports: []string{"freq"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewSquare() *FuncNode {
	var o dsp.Square
	return &FuncNode{ports: []string{"freq"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewTriangle() *FuncNode {
	var o dsp.Triangle
	return &FuncNode{ports: []string{"freq"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewPulse() *FuncNode {
	var o dsp.Pulse
	return &FuncNode{ports: []string{"freq", "width"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

func NewWaveTable(table []float64) *FuncNode {
	o := &dsp.WaveTable{Table: table}
	return &FuncNode{ports: []string{"freq"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewSuperSaw(nVoices int) *FuncNode {
	var o dsp.SuperSaw
	return &FuncNode{ports: []string{"freq", "detune"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], nVoices)
	}}
}

func NewSoftSaw() *FuncNode {
	var o dsp.SoftSaw
	return &FuncNode{ports: []string{"freq", "softness"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

// --- Noise ---

func NewWhite() *FuncNode {
	var o dsp.White
	return &FuncNode{eval: func(ctx dsp.Context, ins []float64) (float64, float64) { return o.Process(ctx) }}
}

func NewPink() *FuncNode {
	var o dsp.Pink
	return &FuncNode{eval: func(ctx dsp.Context, ins []float64) (float64, float64) { return o.Process(ctx) }}
}

func NewBrown() *FuncNode {
	var o dsp.Brown
	return &FuncNode{eval: func(ctx dsp.Context, ins []float64) (float64, float64) { return o.Process(ctx) }}
}

func NewImpulse() *FuncNode {
	var o dsp.Impulse
	return &FuncNode{ports: []string{"rate"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

// --- Filters (all carry ≥1 sample delay: legal inside feedback cycles) ---

func NewSVFilter(kind string) *FuncNode {
	o := &dsp.SVFilter{Kind: kind}
	return &FuncNode{ports: []string{"in", "cutoff", "q"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewMoogLadder() *FuncNode {
	var o dsp.MoogLadder
	return &FuncNode{ports: []string{"in", "cutoff", "res"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewComb() *FuncNode {
	var o dsp.Comb
	return &FuncNode{ports: []string{"in", "freq", "feedback"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewAllpass() *FuncNode {
	var o dsp.Allpass
	return &FuncNode{ports: []string{"in", "freq", "q"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewParametricEQ() *FuncNode {
	var o dsp.ParametricEQ
	return &FuncNode{
		ports: []string{"in", "fLo", "gLo", "qLo", "fMid", "gMid", "qMid", "fHi", "gHi", "qHi"},
		delay: true,
		eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
			return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], ins[4], ins[5], ins[6], ins[7], ins[8], ins[9])
		},
	}
}

// --- Envelopes ---

func NewADSR() *FuncNode {
	var o dsp.ADSR
	return &FuncNode{ports: []string{"gate", "a", "d", "s", "r"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], ins[4])
	})}
}

func NewASR() *FuncNode {
	var o dsp.ASR
	return &FuncNode{ports: []string{"gate", "a", "s", "r"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	})}
}

func NewAD() *FuncNode {
	var o dsp.AD
	return &FuncNode{ports: []string{"trig", "a", "d"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	})}
}

func NewLine() *FuncNode {
	var o dsp.Line
	return &FuncNode{ports: []string{"trig", "a", "b", "dur"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	})}
}

func NewXLine() *FuncNode {
	var o dsp.XLine
	return &FuncNode{ports: []string{"trig", "a", "b", "dur"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	})}
}

func NewCurve(shape dsp.CurveShape) *FuncNode {
	var o dsp.Curve
	return &FuncNode{ports: []string{"trig", "a", "b", "dur"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], shape)
	})}
}

func NewSegments(levels, times []float64) *FuncNode {
	var o dsp.Segments
	return &FuncNode{ports: []string{"trig"}, delay: true, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return o.Process(ctx, ins[0], levels, times)
	})}
}

// NewEnvTrig builds an env_trig node: Triggerable, retriggered once per
// pattern onset rather than driven by a sustained gate.
func NewEnvTrig() *FuncNode {
	var o dsp.EnvTrig
	return &FuncNode{
		ports: []string{"a", "d", "s", "r"},
		delay: true,
		eval: mono(func(ctx dsp.Context, ins []float64) float64 {
			return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
		}),
		trigger: func(ev TriggerEvent) { o.Retrigger() },
	}
}

// --- Dynamics ---

func NewCompressor() *FuncNode {
	var o dsp.Compressor
	return &FuncNode{ports: []string{"in", "th", "ratio", "a", "r"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], ins[4])
	}}
}

func NewLimiter() *FuncNode {
	var o dsp.Limiter
	return &FuncNode{ports: []string{"in", "th"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

func NewAdaptiveCompressor() *FuncNode {
	var o dsp.AdaptiveCompressor
	return &FuncNode{
		ports: []string{"in", "sidechain", "th", "ratio", "a", "r", "adapt"},
		delay: true,
		eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
			return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], ins[4], ins[5], ins[6])
		},
	}
}

// --- Delay / reverb ---

func NewDelay() *FuncNode {
	var o dsp.Delay
	return &FuncNode{ports: []string{"in", "time", "feedback"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewMultiTap(taps []float64) *FuncNode {
	o := dsp.NewMultiTap(taps)
	return &FuncNode{ports: []string{"in", "baseTime", "feedback"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewPingPong() *FuncNode {
	var o dsp.PingPong
	return &FuncNode{ports: []string{"in", "time", "feedback"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewReverb() *FuncNode {
	var o dsp.Reverb
	return &FuncNode{ports: []string{"in", "room", "damp", "mix"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	}}
}

func NewConvolve(ir []float64) *FuncNode {
	o := dsp.NewConvolve(ir)
	return &FuncNode{ports: []string{"in"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewDiffuser() *FuncNode {
	o := dsp.NewDiffuser()
	return &FuncNode{ports: []string{"in", "amount"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

// --- Modulation ---

func NewChorus() *FuncNode {
	var o dsp.Chorus
	return &FuncNode{ports: []string{"in", "rate", "depthMs", "mix"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	}}
}

func NewFlanger() *FuncNode {
	var o dsp.Flanger
	return &FuncNode{ports: []string{"in", "rate", "depthMs", "feedback", "mix"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], ins[4])
	}}
}

func NewPhaser() *FuncNode {
	var o dsp.Phaser
	return &FuncNode{ports: []string{"in", "rate", "depth", "mix"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	}}
}

func NewVibrato() *FuncNode {
	var o dsp.Vibrato
	return &FuncNode{ports: []string{"in", "rate", "depthMs"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewTremolo() *FuncNode {
	var o dsp.Tremolo
	return &FuncNode{ports: []string{"in", "rate", "depth"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewRingMod() *FuncNode {
	return &FuncNode{ports: []string{"a", "b"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return dsp.RingMod(ins[0], ins[1])
	}}
}

func NewBitcrush() *FuncNode {
	var o dsp.Bitcrush
	return &FuncNode{ports: []string{"in", "bits", "rateDivide"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewDistortion(drive float64) *FuncNode {
	return &FuncNode{ports: []string{"in"}, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return dsp.Distortion(ins[0], drive)
	}}
}

func NewPitchShift() *FuncNode {
	var o dsp.PitchShift
	return &FuncNode{ports: []string{"in", "ratio", "grainMs"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewFormant() *FuncNode {
	var o dsp.Formant
	return &FuncNode{
		ports: []string{"in", "f1", "f2", "f3", "bw1", "bw2", "bw3"},
		delay: true,
		eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
			return o.Process(ctx, ins[0], ins[1], ins[2], ins[3], ins[4], ins[5], ins[6])
		},
	}
}

func NewVocoder(nBands int) *FuncNode {
	var o dsp.Vocoder
	return &FuncNode{ports: []string{"mod", "car"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], nBands)
	}}
}

func NewGranular() *FuncNode {
	var o dsp.Granular
	return &FuncNode{ports: []string{"in", "grainMs", "density", "pitch"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	}}
}

func NewWaveguide() *FuncNode {
	var o dsp.Waveguide
	return &FuncNode{ports: []string{"excite", "freq", "damp", "pickup"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	}}
}

func NewPluck() *FuncNode {
	var o dsp.Pluck
	return &FuncNode{ports: []string{"trig", "freq", "damp"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewFreeze() *FuncNode {
	var o dsp.Freeze
	return &FuncNode{ports: []string{"in", "trig"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

// --- Analysis ---

func NewRMS() *FuncNode {
	var o dsp.RMS
	return &FuncNode{ports: []string{"in", "window"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

func NewPeakFollower() *FuncNode {
	var o dsp.PeakFollower
	return &FuncNode{ports: []string{"in", "attack", "release"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewAmpFollower() *FuncNode {
	var o dsp.AmpFollower
	return &FuncNode{ports: []string{"in", "attack", "release", "window"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2], ins[3])
	}}
}

func NewZeroCrossing() *FuncNode {
	var o dsp.ZeroCrossing
	return &FuncNode{ports: []string{"in", "window"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

func NewSchmidt() *FuncNode {
	var o dsp.Schmidt
	return &FuncNode{ports: []string{"in", "high", "low"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1], ins[2])
	}}
}

func NewSampleHold() *FuncNode {
	var o dsp.SampleHold
	return &FuncNode{ports: []string{"in", "trigger"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

func NewLatch() *FuncNode {
	var o dsp.Latch
	return &FuncNode{ports: []string{"in", "gate"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

func NewTimer() *FuncNode {
	var o dsp.Timer
	return &FuncNode{ports: []string{"trigger"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0])
	}}
}

func NewLag() *FuncNode {
	var o dsp.Lag
	return &FuncNode{ports: []string{"in", "time"}, delay: true, eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
		return o.Process(ctx, ins[0], ins[1])
	}}
}

// --- Utilities ---

func NewIf() *FuncNode {
	return &FuncNode{ports: []string{"cond", "a", "b"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return dsp.If(ins[0], ins[1], ins[2])
	})}
}

func NewSelect(n int) *FuncNode {
	ports := make([]string, n+1)
	ports[0] = "idx"
	for i := 0; i < n; i++ {
		ports[i+1] = "x"
	}
	return &FuncNode{ports: ports, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return dsp.Select(ins[0], ins[1:]...)
	})}
}

func NewPan2L() *FuncNode {
	return &FuncNode{ports: []string{"in", "pos"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return dsp.Pan2L(ins[0], ins[1])
	})}
}

func NewPan2R() *FuncNode {
	return &FuncNode{ports: []string{"in", "pos"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return dsp.Pan2R(ins[0], ins[1])
	})}
}

func NewAdd() *FuncNode {
	return &FuncNode{ports: []string{"a", "b"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.Add(ins[0], ins[1]) })}
}

func NewSub() *FuncNode {
	return &FuncNode{ports: []string{"a", "b"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.Sub(ins[0], ins[1]) })}
}

func NewMul() *FuncNode {
	return &FuncNode{ports: []string{"a", "b"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.Mul(ins[0], ins[1]) })}
}

func NewDiv() *FuncNode {
	return &FuncNode{ports: []string{"a", "b"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.Div(ins[0], ins[1]) })}
}

func NewRange() *FuncNode {
	return &FuncNode{ports: []string{"in", "lo", "hi"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return dsp.RangeNode(ins[0], ins[1], ins[2])
	})}
}

func NewUnipolar() *FuncNode {
	return &FuncNode{ports: []string{"in"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.Unipolar(ins[0]) })}
}

func NewBipolar() *FuncNode {
	return &FuncNode{ports: []string{"in"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.Bipolar(ins[0]) })}
}

func NewMin() *FuncNode {
	return &FuncNode{ports: []string{"a", "b"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 { return dsp.MinNode(ins[0], ins[1]) })}
}

func NewClip() *FuncNode {
	return &FuncNode{ports: []string{"in", "lo", "hi"}, eval: mono(func(ctx dsp.Context, ins []float64) float64 {
		return dsp.Clip(ins[0], ins[1], ins[2])
	})}
}

// NewConst builds a zero-input node that always outputs a fixed value;
// used by the compiler for bare numeric literals wired as node outputs.
func NewConst(v float64) *FuncNode {
	return &FuncNode{eval: func(ctx dsp.Context, ins []float64) (float64, float64) { return v, v }}
}

// --- Sample player ---

// NewSamplePlayer builds a Triggerable node: each onset delivered via
// Trigger claims a slot from a voice.Manager (honoring the event's cut
// group — a new voice in group g fades out every older voice in g over
// ≈1 ms) and starts a dsp.SampleVoice playing the event's resolved
// Buffer; Eval mixes every active voice at the node's patterned speed
// input, feeding the manager the levels its quietest-voice steal needs.
func NewSamplePlayer(polyphony int) *FuncNode {
	mgr := voice.NewManager(polyphony)
	voices := make([]dsp.SampleVoice, mgr.Size())
	speeds := make([]float64, mgr.Size())
	sampleRate := 44100.0
	levelTick := 0
	return &FuncNode{
		ports: []string{"speed"},
		delay: true,
		eval: func(ctx dsp.Context, ins []float64) (float64, float64) {
			sampleRate = ctx.SampleRate
			levelTick++
			refreshLevels := levelTick&63 == 0
			var sumL, sumR float64
			for i := range voices {
				if voices[i].Done() {
					mgr.Release(i)
					continue
				}
				speed := ins[0] * speeds[i]
				l, r := voices[i].Process(ctx, speed)
				if refreshLevels {
					mgr.SetLevel(i, math.Abs(l)+math.Abs(r))
				}
				sumL += l
				sumR += r
			}
			return sumL, sumR
		},
		trigger: func(ev TriggerEvent) {
			idx, stopped := mgr.Allocate(ev.CutGroup)
			release := int(sampleRate / 1000)
			for _, s := range stopped {
				if s != idx {
					voices[s].Stop(release)
				}
			}
			speed := ev.Speed
			if speed == 0 {
				speed = 1
			}
			speeds[idx] = speed
			voices[idx].Trigger(ev.Buffer, ev.Gain, ev.Pan)
		},
	}
}
