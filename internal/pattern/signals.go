package pattern

import (
	"math"

	"github.com/phonon-lang/phonon/internal/rtime"
)

// continuousOverSpan builds a continuous signal by sampling f once per
// query span (the binding layer re-queries at control rate, so a single
// sample per call is the right granularity here).
func continuousOverSpan(f func(mid float64) float64) Pattern {
	return newContinuous(func(s rtime.Span) []Event {
		mid := (s.Begin.Float64() + s.End.Float64()) / 2
		return []Event{{Part: s, Value: Num(f(mid))}}
	})
}

func fractional(x float64) float64 {
	return x - math.Floor(x)
}

// Sine is a unipolar [0,1] sine signal with period 1 cycle.
func Sine() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		return (math.Sin(2*math.Pi*t) + 1) / 2
	})
}

// SineBipolar is Sine rescaled to [-1,1].
func SineBipolar() Pattern {
	return continuousOverSpan(func(t float64) float64 { return math.Sin(2 * math.Pi * t) })
}

// Cosine is Sine phase-shifted by a quarter cycle.
func Cosine() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		return (math.Cos(2*math.Pi*t) + 1) / 2
	})
}

// CosineBipolar is Cosine rescaled to [-1,1].
func CosineBipolar() Pattern {
	return continuousOverSpan(func(t float64) float64 { return math.Cos(2 * math.Pi * t) })
}

// Saw is a unipolar rising ramp, resetting every cycle.
func Saw() Pattern {
	return continuousOverSpan(func(t float64) float64 { return fractional(t) })
}

// SawBipolar is Saw rescaled to [-1,1].
func SawBipolar() Pattern {
	return continuousOverSpan(func(t float64) float64 { return fractional(t)*2 - 1 })
}

// Square is a unipolar 50%-duty square wave, 1 for the first half of
// each cycle, 0 for the second.
func Square() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		if fractional(t) < 0.5 {
			return 1
		}
		return 0
	})
}

// SquareBipolar is Square rescaled to [-1,1].
func SquareBipolar() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		if fractional(t) < 0.5 {
			return 1
		}
		return -1
	})
}

// Tri is a unipolar triangle wave.
func Tri() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		f := fractional(t)
		if f < 0.5 {
			return f * 2
		}
		return 2 - f*2
	})
}

// TriBipolar is Tri rescaled to [-1,1].
func TriBipolar() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		f := fractional(t)
		var v float64
		if f < 0.5 {
			v = f * 2
		} else {
			v = 2 - f*2
		}
		return v*2 - 1
	})
}

// perlinGrad returns a deterministic pseudo-gradient in [-1,1] for
// integer lattice point i, hashed the same way event degradation is.
func perlinGrad(i int64) float64 {
	x := xorshift64star(hashSeed(rtime.FromInt(i), 424243))
	return float64(x>>11)/float64(uint64(1)<<53)*2 - 1
}

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Perlin is a smooth unipolar [0,1] noise signal, one octave, period-1
// lattice spacing per cycle.
func Perlin() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		i0 := int64(math.Floor(t))
		frac := t - float64(i0)
		g0, g1 := perlinGrad(i0), perlinGrad(i0+1)
		v := lerp(g0, g1, smoothstep(frac))
		return (v + 1) / 2
	})
}

// PerlinBipolar is Perlin rescaled to [-1,1].
func PerlinBipolar() Pattern {
	return continuousOverSpan(func(t float64) float64 {
		i0 := int64(math.Floor(t))
		frac := t - float64(i0)
		g0, g1 := perlinGrad(i0), perlinGrad(i0+1)
		return lerp(g0, g1, smoothstep(frac))
	})
}
