package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMSTracksConstantAmplitude(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var rms RMS
	var osc Sine
	var v float64
	for i := 0; i < int(testSR*0.2); i++ {
		in, _ := osc.Process(ctx, 440)
		v, _ = rms.Process(ctx, in*0.5, 0.05)
	}
	assert.InDelta(t, 0.5/math.Sqrt2, v, 0.05)
}

func TestPeakFollowerTracksMaxMagnitude(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var pf PeakFollower
	var level float64
	for i := 0; i < 100; i++ {
		level, _ = pf.Process(ctx, 0.9, 0.0001, 0.1)
	}
	assert.InDelta(t, 0.9, level, 0.05)
}

func TestZeroCrossingCountsSignFlips(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var zc ZeroCrossing
	var osc Square
	var rate float64
	for i := 0; i < int(testSR*0.5); i++ {
		in, _ := osc.Process(ctx, 100)
		rate, _ = zc.Process(ctx, in, 0.5)
	}
	assert.InDelta(t, 200, rate, 20)
}

func TestSchmidtHasHysteresis(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var s Schmidt
	v, _ := s.Process(ctx, 0.0, 0.6, 0.4)
	assert.Equal(t, 0.0, v)
	v, _ = s.Process(ctx, 0.7, 0.6, 0.4)
	assert.Equal(t, 1.0, v)
	v, _ = s.Process(ctx, 0.5, 0.6, 0.4)
	assert.Equal(t, 1.0, v, "should stay high until below the low threshold")
	v, _ = s.Process(ctx, 0.3, 0.6, 0.4)
	assert.Equal(t, 0.0, v)
}

func TestSampleHoldLatchesOnRisingEdge(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var sh SampleHold
	v, _ := sh.Process(ctx, 0.25, 1)
	assert.Equal(t, 0.25, v)
	v, _ = sh.Process(ctx, 0.9, 1)
	assert.Equal(t, 0.25, v, "should hold until next rising edge")
	v, _ = sh.Process(ctx, 0.9, 0)
	v, _ = sh.Process(ctx, 0.9, 1)
	assert.Equal(t, 0.9, v)
}

func TestLatchTracksWhileGateHigh(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var l Latch
	v, _ := l.Process(ctx, 0.1, 1)
	assert.Equal(t, 0.1, v)
	v, _ = l.Process(ctx, 0.7, 1)
	assert.Equal(t, 0.7, v)
	v, _ = l.Process(ctx, 0.9, 0)
	assert.Equal(t, 0.7, v, "frozen once gate falls")
}

func TestTimerMeasuresElapsedSinceTrigger(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var tm Timer
	tm.Process(ctx, 1)
	var v float64
	for i := 0; i < int(testSR*0.1); i++ {
		v, _ = tm.Process(ctx, 0)
	}
	assert.InDelta(t, 0.1, v, 0.001)
}

func TestLagSmoothsStepChange(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var lag Lag
	first, _ := lag.Process(ctx, 1.0, 0.01)
	assert.Equal(t, 1.0, first, "first sample initializes state to input")
	v, _ := lag.Process(ctx, 0.0, 0.01)
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 1.0)
}
