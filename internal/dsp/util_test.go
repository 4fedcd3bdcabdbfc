package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIfSwitchesOnThreshold(t *testing.T) {
	assert.Equal(t, 1.0, If(1.0, 1.0, 2.0))
	assert.Equal(t, 2.0, If(0.0, 1.0, 2.0))
	assert.Equal(t, 1.0, If(0.5, 1.0, 2.0))
	assert.Equal(t, 2.0, If(0.49, 1.0, 2.0))
}

func TestSelectRoundsAndClamps(t *testing.T) {
	xs := []float64{10, 20, 30}
	assert.Equal(t, 10.0, Select(0, xs...))
	assert.Equal(t, 20.0, Select(1.4, xs...))
	assert.Equal(t, 30.0, Select(5, xs...))
	assert.Equal(t, 10.0, Select(-5, xs...))
	assert.Equal(t, 0.0, Select(0))
}

func TestPanEqualPowerCenterIsUnityBothChannels(t *testing.T) {
	l := Pan2L(1.0, 0.0)
	r := Pan2R(1.0, 0.0)
	assert.InDelta(t, l, r, 1e-9)
	assert.InDelta(t, math.Sqrt2/2, l, 1e-6)
}

func TestPanHardLeftSilencesRight(t *testing.T) {
	l := Pan2L(1.0, -1.0)
	r := Pan2R(1.0, -1.0)
	assert.InDelta(t, 1.0, l, 1e-6)
	assert.InDelta(t, 0.0, r, 1e-6)
}

func TestPanHardRightSilencesLeft(t *testing.T) {
	l := Pan2L(1.0, 1.0)
	r := Pan2R(1.0, 1.0)
	assert.InDelta(t, 0.0, l, 1e-6)
	assert.InDelta(t, 1.0, r, 1e-6)
}

func TestArithmeticNodes(t *testing.T) {
	assert.Equal(t, 5.0, Add(2, 3))
	assert.Equal(t, -1.0, Sub(2, 3))
	assert.Equal(t, 6.0, Mul(2, 3))
	assert.Equal(t, 2.0, Div(6, 3))
	assert.Equal(t, 0.0, Div(6, 0))
}

func TestRangeNodeMapsBipolarToRange(t *testing.T) {
	assert.InDelta(t, 0.0, RangeNode(-1, 0, 10), 1e-9)
	assert.InDelta(t, 10.0, RangeNode(1, 0, 10), 1e-9)
	assert.InDelta(t, 5.0, RangeNode(0, 0, 10), 1e-9)
}

func TestUnipolarAndBipolarAreInverses(t *testing.T) {
	for _, v := range []float64{-1, -0.5, 0, 0.5, 1} {
		assert.InDelta(t, v, Bipolar(Unipolar(v)), 1e-9)
	}
}

func TestMinNode(t *testing.T) {
	assert.Equal(t, 2.0, MinNode(2, 5))
	assert.Equal(t, 2.0, MinNode(5, 2))
}

func TestClipBounds(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-5, 0, 1))
	assert.Equal(t, 1.0, Clip(5, 0, 1))
	assert.Equal(t, 0.5, Clip(0.5, 0, 1))
}
