package compiler

import "github.com/phonon-lang/phonon/internal/sgraph"

// ArgKind classifies how a builtin's positional argument is consumed: as
// a plain control-rate scalar, a sustained gate, a one-shot trigger, or
// (for `s`) a pattern of sample names. The resolver uses this to decide
// whether an argument expression needs lifting through internal/binding
// before it can feed an sgraph input, per §4.8's "infers whether each
// occurrence is a pattern or a signal from its use site".
type ArgKind int

const (
	ArgScalar ArgKind = iota
	ArgGate
	ArgTrigger
	ArgSamplePattern
)

// builtinSpec describes one DSL function name: the sgraph node it
// compiles to, the input ports in call-argument order, and how each
// argument should be bound. Ports omitted from a call keep the
// constructor's zero-value default (const 0, matching sgraph.Input's
// zero value).
type builtinSpec struct {
	kind     string
	ports    []string
	argKinds []ArgKind
	ctor     func() sgraph.Node
}

// builtins is the registry of node-producing DSL functions whose
// constructors take no Go-level arguments. Node kinds that need a
// compile-time constant baked into the constructor (super_saw's voice
// count, distortion's drive, select's width, vocoder's band count,
// curve's shape) are special-cased in resolveCall; the three that need
// literal lists or buffers (wavetable, convolve, segments) have no DSL
// syntax — see DESIGN.md's "deferred builtins" entry; they remain
// reachable from Go code that builds an sgraph.Graph directly.
var builtins = map[string]builtinSpec{
	"sine":     {"sine", []string{"freq"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewSine() }},
	"saw":      {"saw", []string{"freq"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewSaw() }},
	"square":   {"square", []string{"freq"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewSquare() }},
	"triangle": {"triangle", []string{"freq"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewTriangle() }},
	"pulse":    {"pulse", []string{"freq", "width"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPulse() }},

	"white": {"white", nil, nil, func() sgraph.Node { return sgraph.NewWhite() }},
	"pink":  {"pink", nil, nil, func() sgraph.Node { return sgraph.NewPink() }},
	"brown": {"brown", nil, nil, func() sgraph.Node { return sgraph.NewBrown() }},
	"impulse": {"impulse", []string{"rate"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewImpulse() }},

	"lpf": {"lpf", []string{"in", "cutoff", "q"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewSVFilter("lpf") }},
	"hpf": {"hpf", []string{"in", "cutoff", "q"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewSVFilter("hpf") }},
	"bpf": {"bpf", []string{"in", "cutoff", "q"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewSVFilter("bpf") }},
	"moog_ladder": {"moog_ladder", []string{"in", "cutoff", "res"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewMoogLadder() }},
	"comb":    {"comb", []string{"in", "freq", "feedback"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewComb() }},
	"allpass": {"allpass", []string{"in", "freq", "q"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewAllpass() }},

	"adsr": {"adsr", []string{"gate", "a", "d", "s", "r"}, []ArgKind{ArgGate, ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewADSR() }},
	"asr":  {"asr", []string{"gate", "a", "s", "r"}, []ArgKind{ArgGate, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewASR() }},
	"ad":   {"ad", []string{"trig", "a", "d"}, []ArgKind{ArgTrigger, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewAD() }},
	"line":  {"line", []string{"trig", "a", "b", "dur"}, []ArgKind{ArgTrigger, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewLine() }},
	"xline": {"xline", []string{"trig", "a", "b", "dur"}, []ArgKind{ArgTrigger, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewXLine() }},

	"compressor": {"compressor", []string{"in", "th", "ratio", "a", "r"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewCompressor() }},
	"limiter":    {"limiter", []string{"in", "th"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewLimiter() }},

	"delay":    {"delay", []string{"in", "time", "feedback"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewDelay() }},
	"pingpong": {"pingpong", []string{"in", "time", "feedback"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPingPong() }},
	"reverb":   {"reverb", []string{"in", "room", "damp", "mix"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewReverb() }},

	"chorus":  {"chorus", []string{"in", "rate", "depthMs", "mix"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewChorus() }},
	"flanger": {"flanger", []string{"in", "rate", "depthMs", "feedback", "mix"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewFlanger() }},
	"phaser":  {"phaser", []string{"in", "rate", "depth", "mix"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPhaser() }},
	"vibrato": {"vibrato", []string{"in", "rate", "depthMs"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewVibrato() }},
	"tremolo": {"tremolo", []string{"in", "rate", "depth"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewTremolo() }},
	"ring_mod": {"ring_mod", []string{"a", "b"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewRingMod() }},
	"bitcrush": {"bitcrush", []string{"in", "bits", "rateDivide"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewBitcrush() }},

	"rms":           {"rms", []string{"in", "window"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewRMS() }},
	"peak_follower":  {"peak_follower", []string{"in", "attack", "release"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPeakFollower() }},
	"sample_hold":   {"sample_hold", []string{"in", "trigger"}, []ArgKind{ArgScalar, ArgTrigger}, func() sgraph.Node { return sgraph.NewSampleHold() }},
	"latch":         {"latch", []string{"in", "gate"}, []ArgKind{ArgScalar, ArgGate}, func() sgraph.Node { return sgraph.NewLatch() }},
	"lag":           {"lag", []string{"in", "time"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewLag() }},

	"soft_saw": {"soft_saw", []string{"freq", "softness"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewSoftSaw() }},

	"notch": {"notch", []string{"in", "cutoff", "q"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewSVFilter("notch") }},
	"parametric_eq": {"parametric_eq", []string{"in", "fLo", "gLo", "qLo", "fMid", "gMid", "qMid", "fHi", "gHi", "qHi"},
		[]ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar},
		func() sgraph.Node { return sgraph.NewParametricEQ() }},

	"adaptive_compressor": {"adaptive_compressor", []string{"in", "sidechain", "th", "ratio", "a", "r", "adapt"},
		[]ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar},
		func() sgraph.Node { return sgraph.NewAdaptiveCompressor() }},

	"multitap": {"multitap", []string{"in", "baseTime", "feedback"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewMultiTap([]float64{1, 2, 3, 4}) }},
	"diffuser": {"diffuser", []string{"in", "amount"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewDiffuser() }},

	"pitch_shift": {"pitch_shift", []string{"in", "ratio", "grainMs"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPitchShift() }},
	"formant": {"formant", []string{"in", "f1", "f2", "f3", "bw1", "bw2", "bw3"},
		[]ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar, ArgScalar},
		func() sgraph.Node { return sgraph.NewFormant() }},
	"granular":  {"granular", []string{"in", "grainMs", "density", "pitch"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewGranular() }},
	"waveguide": {"waveguide", []string{"excite", "freq", "damp", "pickup"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewWaveguide() }},
	"pluck":     {"pluck", []string{"trig", "freq", "damp"}, []ArgKind{ArgTrigger, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPluck() }},
	"freeze":    {"freeze", []string{"in", "trig"}, []ArgKind{ArgScalar, ArgTrigger}, func() sgraph.Node { return sgraph.NewFreeze() }},

	"amp_follower":  {"amp_follower", []string{"in", "attack", "release", "window"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewAmpFollower() }},
	"zero_crossing": {"zero_crossing", []string{"in", "window"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewZeroCrossing() }},
	"schmidt":       {"schmidt", []string{"in", "high", "low"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewSchmidt() }},
	"timer":         {"timer", []string{"trigger"}, []ArgKind{ArgTrigger}, func() sgraph.Node { return sgraph.NewTimer() }},

	"min": {"min", []string{"a", "b"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewMin() }},

	"cond": {"if", []string{"cond", "a", "b"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewIf() }},
	"pan_l": {"pan2_l", []string{"in", "pos"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPan2L() }},
	"pan_r": {"pan2_r", []string{"in", "pos"}, []ArgKind{ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewPan2R() }},
	"range": {"range", []string{"in", "lo", "hi"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewRange() }},
	"unipolar": {"unipolar", []string{"in"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewUnipolar() }},
	"bipolar":  {"bipolar", []string{"in"}, []ArgKind{ArgScalar}, func() sgraph.Node { return sgraph.NewBipolar() }},
	"clip": {"clip", []string{"in", "lo", "hi"}, []ArgKind{ArgScalar, ArgScalar, ArgScalar}, func() sgraph.Node { return sgraph.NewClip() }},
}

// samplePlayerPolyphony bounds how many overlapping one-shots a single
// `s` node can sustain, matching the voice pool sizes internal/voice
// ships for other polyphonic sources.
const samplePlayerPolyphony = 16
