package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompressorReducesGainAboveThreshold(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var comp Compressor
	var osc Sine
	var peak float64
	for i := 0; i < int(testSR*0.1); i++ {
		in, _ := osc.Process(ctx, 440)
		in *= 0.9
		out, _ := comp.Process(ctx, in, -20, 4, 0.001, 0.05)
		if math.Abs(out) > peak {
			peak = math.Abs(out)
		}
	}
	assert.Less(t, peak, 0.9)
}

func TestCompressorLeavesQuietSignalUnaffected(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var comp Compressor
	for i := 0; i < 2000; i++ {
		comp.Process(ctx, 0.001, -6, 4, 0.01, 0.05)
	}
	out, _ := comp.Process(ctx, 0.001, -6, 4, 0.01, 0.05)
	assert.InDelta(t, 0.001, out, 0.0005)
}

func TestLimiterNeverExceedsThreshold(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var lim Limiter
	var osc Sine
	thresholdLin := dbToLin(-3)
	for i := 0; i < int(testSR*0.2); i++ {
		in, _ := osc.Process(ctx, 440)
		in *= 2.0
		out, _ := lim.Process(ctx, in, -3)
		assert.LessOrEqual(t, math.Abs(out), thresholdLin+1e-6)
	}
}

func TestAdaptiveCompressorDucksWithSidechain(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var ac AdaptiveCompressor
	var carrierOsc, sideOsc Sine
	var quietSideOut, loudSideOut float64
	for i := 0; i < int(testSR*0.1); i++ {
		c, _ := carrierOsc.Process(ctx, 300)
		quietSideOut, _ = ac.Process(ctx, c, 0.0, -18, 4, 0.01, 0.05, 1.0)
	}
	ac = AdaptiveCompressor{}
	for i := 0; i < int(testSR*0.1); i++ {
		c, _ := carrierOsc.Process(ctx, 300)
		s, _ := sideOsc.Process(ctx, 300)
		loudSideOut, _ = ac.Process(ctx, c, s, -18, 4, 0.01, 0.05, 1.0)
	}
	assert.GreaterOrEqual(t, math.Abs(quietSideOut), math.Abs(loudSideOut)-1e-3)
}

func TestDbLinRoundTrip(t *testing.T) {
	for _, db := range []float64{-40, -12, -6, 0, 6} {
		lin := dbToLin(db)
		back := linToDb(lin)
		assert.InDelta(t, db, back, 1e-6)
	}
}
