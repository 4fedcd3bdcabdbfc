package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monoBuffer(frames []float32, sr float64) *Buffer {
	return &Buffer{Frames: frames, Channels: 1, SampleRate: sr}
}

func TestSampleVoicePlaysBufferThenStops(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	buf := monoBuffer([]float32{1, 0.5, 0, -0.5, -1}, testSR)
	var v SampleVoice
	require.True(t, v.Done())
	v.Trigger(buf, 1.0, 0.0)
	require.False(t, v.Done())

	l, _ := v.Process(ctx, 1.0)
	assert.InDelta(t, math.Sqrt2/2, l, 1e-6)

	for i := 0; i < 10; i++ {
		v.Process(ctx, 1.0)
	}
	assert.True(t, v.Done())
}

func TestSampleVoiceSpeedAffectsDuration(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	buf := monoBuffer(make([]float32, 1000), testSR)
	var fast, slow SampleVoice
	fast.Trigger(buf, 1, 0)
	slow.Trigger(buf, 1, 0)

	stepsUntilDone := func(v *SampleVoice, speed float64) int {
		n := 0
		for !v.Done() && n < 100000 {
			v.Process(ctx, speed)
			n++
		}
		return n
	}

	fastSteps := stepsUntilDone(&fast, 2.0)
	slowSteps := stepsUntilDone(&slow, 0.5)
	assert.Less(t, fastSteps, slowSteps)
}

func TestSampleVoiceNilBufferIsSilent(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	var v SampleVoice
	l, r := v.Process(ctx, 1.0)
	assert.Zero(t, l)
	assert.Zero(t, r)
}

func TestSamplePlayerAllocatesAndMixesVoices(t *testing.T) {
	ctx := Context{SampleRate: testSR}
	buf := monoBuffer([]float32{1, 1, 1, 1, 1, 1, 1, 1}, testSR)
	p := NewSamplePlayer(4)
	p.Trigger(buf, 1.0, 0.0)
	p.Trigger(buf, 1.0, 0.0)
	l, _ := p.Process(ctx, 1.0)
	assert.Greater(t, l, 1.0, "two overlapping voices should sum louder than one")
}

func TestSamplePlayerStealsOldestWhenExhausted(t *testing.T) {
	buf := monoBuffer(make([]float32, 10000), testSR)
	p := NewSamplePlayer(2)
	p.Trigger(buf, 1, 0)
	p.Trigger(buf, 1, 0)
	assert.NotPanics(t, func() {
		p.Trigger(buf, 1, 0)
	})
}
