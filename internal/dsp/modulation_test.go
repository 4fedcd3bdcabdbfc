package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChorusStaysBounded(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var c Chorus
	var osc Saw
	for i := 0; i < 4000; i++ {
		in, _ := osc.Process(ctx, 220)
		out, _ := c.Process(ctx, in, 0.5, 5, 0.5)
		assert.False(t, math.IsNaN(out))
		assert.Less(t, math.Abs(out), 3.0)
	}
}

func TestFlangerStaysBounded(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var f Flanger
	var osc Saw
	for i := 0; i < 4000; i++ {
		in, _ := osc.Process(ctx, 220)
		out, _ := f.Process(ctx, in, 0.3, 2, 0.4, 0.5)
		assert.False(t, math.IsNaN(out))
	}
}

func TestPhaserSweepsWithoutBlowingUp(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var p Phaser
	var osc Sine
	for i := 0; i < 4000; i++ {
		in, _ := osc.Process(ctx, 220)
		out, _ := p.Process(ctx, in, 0.2, 1000, 0.5)
		assert.False(t, math.IsNaN(out))
	}
}

func TestVibratoModulatesDelayReadPosition(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var v Vibrato
	var osc Sine
	for i := 0; i < 4000; i++ {
		in, _ := osc.Process(ctx, 220)
		out, _ := v.Process(ctx, in, 5, 3)
		assert.False(t, math.IsNaN(out))
	}
}

func TestTremoloModulatesAmplitudeBetweenBounds(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var tr Tremolo
	var maxAbs float64
	for i := 0; i < 4000; i++ {
		out, _ := tr.Process(ctx, 1.0, 5, 0.8)
		if math.Abs(out) > maxAbs {
			maxAbs = math.Abs(out)
		}
		assert.GreaterOrEqual(t, out, 1.0-0.8-1e-9)
	}
	assert.LessOrEqual(t, maxAbs, 1.0+1e-9)
}

func TestRingModMultipliesSignals(t *testing.T) {
	l, r := RingMod(0.5, 0.5)
	assert.InDelta(t, 0.25, l, 1e-9)
	assert.InDelta(t, 0.25, r, 1e-9)
}

func TestBitcrushQuantizesAndHolds(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var bc Bitcrush
	out0, _ := bc.Process(ctx, 0.3, 2, 4)
	out1, _ := bc.Process(ctx, 0.9, 2, 4)
	assert.Equal(t, out0, out1, "held for rateDivide samples")
}

func TestDistortionSoftClipsLargeInput(t *testing.T) {
	l, _ := Distortion(10.0, 1.0)
	assert.Less(t, l, 1.0)
	assert.Greater(t, l, 0.9)
}

func TestPitchShiftStaysBounded(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var ps PitchShift
	var osc Sine
	for i := 0; i < 8000; i++ {
		in, _ := osc.Process(ctx, 220)
		out, _ := ps.Process(ctx, in, 1.5, 40)
		assert.False(t, math.IsNaN(out))
	}
}

func TestFormantShapesSpectrum(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var f Formant
	var noise White
	for i := 0; i < 4000; i++ {
		in, _ := noise.Process(ctx)
		out, _ := f.Process(ctx, in, 700, 1200, 2600, 80, 100, 120)
		assert.False(t, math.IsNaN(out))
	}
}

func TestVocoderImposesEnvelopeOntoCarrier(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var voc Vocoder
	var mod, car Sine
	for i := 0; i < 4000; i++ {
		m, _ := mod.Process(ctx, 150)
		c, _ := car.Process(ctx, 220)
		out, _ := voc.Process(ctx, m, c, 8)
		assert.False(t, math.IsNaN(out))
	}
}

func TestGranularProducesFiniteOutput(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var g Granular
	var osc Saw
	for i := 0; i < 4000; i++ {
		in, _ := osc.Process(ctx, 220)
		out, _ := g.Process(ctx, in, 50, 20, 1.0)
		assert.False(t, math.IsNaN(out))
	}
}

func TestWaveguideRingsAfterExcitation(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var wg Waveguide
	var energy float64
	wg.Process(ctx, 1.0, 220, 0.999, 0.5)
	for i := 0; i < 2000; i++ {
		out, _ := wg.Process(ctx, 0, 220, 0.999, 0.5)
		energy += out * out
	}
	assert.Greater(t, energy, 0.0)
}

func TestPluckRetriggersOnRisingEdge(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var pl Pluck
	var energy float64
	for i := 0; i < 400; i++ {
		trig := 0.0
		if i == 0 {
			trig = 1
		}
		out, _ := pl.Process(ctx, trig, 220, 0.995)
		energy += out * out
	}
	assert.Greater(t, energy, 0.0)
}

func TestFreezeHoldsSpectrumAfterTrigger(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var fz Freeze
	var noise White
	for i := 0; i < 2000; i++ {
		in, _ := noise.Process(ctx)
		fz.Process(ctx, in, 0)
	}
	fz.Process(ctx, 0, 1)
	var energyAfterFreeze float64
	for i := 0; i < 2000; i++ {
		out, _ := fz.Process(ctx, 0, 0)
		energyAfterFreeze += out * out
	}
	assert.Greater(t, energyAfterFreeze, 0.0)
}
