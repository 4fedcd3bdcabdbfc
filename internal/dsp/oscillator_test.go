package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSR = 44100.0

func TestSineMatchesReferenceTone(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc Sine
	for i := 0; i < 100; i++ {
		l, r := osc.Process(ctx, 440)
		expected := math.Sin(2 * math.Pi * 440 * float64(i) / testSR)
		assert.InDelta(t, expected, l, 1e-9)
		assert.Equal(t, l, r)
	}
}

func TestSawRangeAndRamp(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc Saw
	prev := -2.0
	wrapped := false
	for i := 0; i < 200; i++ {
		v, _ := osc.Process(ctx, 440)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
		if v < prev {
			wrapped = true
		}
		prev = v
	}
	assert.True(t, wrapped, "saw should wrap at least once over 200 samples at 440Hz/44100")
}

func TestSquareAlternatesSign(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc Square
	v, _ := osc.Process(ctx, 100)
	assert.Equal(t, 1.0, v)
	for i := 1; i <= 221; i++ {
		v, _ = osc.Process(ctx, 100)
	}
	assert.Equal(t, -1.0, v)
}

func TestTriangleStaysBounded(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc Triangle
	for i := 0; i < 500; i++ {
		v, _ := osc.Process(ctx, 220)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestPulseWidthShapesDutyCycle(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc Pulse
	highCount := 0
	const n = 4410
	for i := 0; i < n; i++ {
		v, _ := osc.Process(ctx, 100, 0.25)
		if v > 0 {
			highCount++
		}
	}
	ratio := float64(highCount) / n
	assert.InDelta(t, 0.25, ratio, 0.05)
}

func TestWaveTableInterpolatesAndWraps(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	osc := WaveTable{Table: []float64{0, 1, 0, -1}}
	var last float64
	for i := 0; i < int(testSR/100)+1; i++ {
		v, _ := osc.Process(ctx, 100)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
		last = v
	}
	_ = last
}

func TestWaveTableEmptyIsSilent(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc WaveTable
	l, r := osc.Process(ctx, 440)
	assert.Zero(t, l)
	assert.Zero(t, r)
}

func TestSuperSawSpreadsAcrossStereoField(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var osc SuperSaw
	var sumL, sumR float64
	for i := 0; i < 1000; i++ {
		l, r := osc.Process(ctx, 220, 0.02, 4)
		sumL += math.Abs(l)
		sumR += math.Abs(r)
	}
	assert.Greater(t, sumL, 0.0)
	assert.Greater(t, sumR, 0.0)
}

func TestSoftSawSmoothsDiscontinuity(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var soft SoftSaw
	var raw Saw
	maxJumpSoft, maxJumpRaw := 0.0, 0.0
	prevSoft, prevRaw := 0.0, 0.0
	for i := 0; i < 2000; i++ {
		vs, _ := soft.Process(ctx, 440, 0.2)
		vr, _ := raw.Process(ctx, 440)
		if i > 0 {
			if d := math.Abs(vs - prevSoft); d > maxJumpSoft {
				maxJumpSoft = d
			}
			if d := math.Abs(vr - prevRaw); d > maxJumpRaw {
				maxJumpRaw = d
			}
		}
		prevSoft, prevRaw = vs, vr
	}
	assert.Less(t, maxJumpSoft, maxJumpRaw)
}
