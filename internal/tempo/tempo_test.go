package tempo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCpsFromBPM(t *testing.T) {
	assert.InDelta(t, 0.5, CpsFromBPM(120), 1e-12)
	assert.InDelta(t, 0.5625, CpsFromBPM(135), 1e-12)
}

func TestRoundTrip(t *testing.T) {
	for _, bpm := range []float64{60, 120, 135, 174} {
		assert.InDelta(t, bpm, BPMFromCps(CpsFromBPM(bpm)), 1e-9)
	}
}

func TestSamplesPerCycle(t *testing.T) {
	assert.InDelta(t, 88200, SamplesPerCycle(44100, 0.5), 1e-9)
	assert.Zero(t, SamplesPerCycle(44100, 0))
}
