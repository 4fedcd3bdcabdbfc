package dsp

import "math"

func dbToLin(db float64) float64 { return math.Pow(10, db/20) }
func linToDb(lin float64) float64 {
	if lin <= 1e-9 {
		return -180
	}
	return 20 * math.Log10(lin)
}

func onePoleCoeff(ctx Context, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Exp(-1 / (seconds * ctx.SampleRate))
}

// Compressor is a feedforward peak compressor with exponential
// attack/release smoothing of the gain-reduction envelope.
type Compressor struct {
	envelope float64
}

func (c *Compressor) Process(ctx Context, x, thresholdDB, ratio, attack, release float64) (l, r float64) {
	level := math.Abs(x)
	coeff := onePoleCoeff(ctx, release)
	if level > c.envelope {
		coeff = onePoleCoeff(ctx, attack)
	}
	c.envelope = coeff*c.envelope + (1-coeff)*level

	levelDB := linToDb(c.envelope)
	gainDB := 0.0
	if levelDB > thresholdDB && ratio > 0 {
		over := levelDB - thresholdDB
		gainDB = -over * (1 - 1/ratio)
	}
	gain := dbToLin(gainDB)
	y := x * gain
	return y, y
}

// Limiter is a hard-threshold peak limiter: an infinite-ratio compressor
// with a fast, fixed attack/release pair suitable for guarding a master
// bus against clipping.
type Limiter struct {
	envelope float64
}

func (l *Limiter) Process(ctx Context, x, thresholdDB float64) (ol, or float64) {
	level := math.Abs(x)
	coeff := onePoleCoeff(ctx, 0.1)
	if level > l.envelope {
		coeff = onePoleCoeff(ctx, 0.001)
	}
	l.envelope = coeff*l.envelope + (1-coeff)*level
	threshold := dbToLin(thresholdDB)
	peak := math.Max(l.envelope, level)
	gain := 1.0
	if peak > threshold {
		gain = threshold / peak
	}
	y := x * gain
	return y, y
}

// AdaptiveCompressor is a Compressor whose threshold and ratio are
// modulated by an external sidechain signal's RMS level: louder
// sidechain content pushes the threshold down and the ratio up,
// producing ducking proportional to sidechain energy.
type AdaptiveCompressor struct {
	comp     Compressor
	sideRMS  RMS
}

func (a *AdaptiveCompressor) Process(ctx Context, x, sidechain, thresholdDB, ratio, attack, release, adapt float64) (l, r float64) {
	sideLevel, _ := a.sideRMS.Process(ctx, sidechain, 0.05)
	sideDB := linToDb(sideLevel)
	effectiveThreshold := thresholdDB - adapt*math.Max(0, sideDB+24)
	effectiveRatio := ratio + adapt*math.Max(0, sideDB+24)/6
	return a.comp.Process(ctx, x, effectiveThreshold, effectiveRatio, attack, release)
}
