package pattern

import (
	"testing"

	"github.com/phonon-lang/phonon/internal/rtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullCycle(c int64) rtime.Span {
	return rtime.NewSpan(rtime.FromInt(c), rtime.FromInt(c+1))
}

func TestPureOneEventPerCycle(t *testing.T) {
	p := Pure(Num(1))
	events := p.Query(rtime.NewSpan(rtime.FromInt(0), rtime.FromInt(3)))
	require.Len(t, events, 3)
	for i, e := range events {
		assert.True(t, e.HasOnset())
		assert.Equal(t, rtime.FromInt(int64(i)), e.Whole.Begin)
		assert.True(t, e.Value.Equal(Num(1)))
	}
}

func TestSilenceIsAlwaysEmpty(t *testing.T) {
	events := Silence.Query(fullCycle(0))
	assert.Empty(t, events)
}

func TestDeterminism(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)))
	span := fullCycle(0)
	a := p.Query(span)
	b := p.Query(span)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].Value.Equal(b[i].Value))
		assert.Equal(t, a[i].Part, b[i].Part)
	}
}

func TestFastCatSlicesCycleEvenly(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)))
	events := p.Query(fullCycle(0))
	require.Len(t, events, 3)
	assert.Equal(t, rtime.New(0, 3), events[0].Part.Begin)
	assert.Equal(t, rtime.New(1, 3), events[0].Part.End)
	assert.Equal(t, rtime.New(1, 3), events[1].Part.Begin)
	assert.Equal(t, rtime.New(2, 3), events[2].Part.Begin)
}

func TestSlowCatPlaysOnePatternPerCycle(t *testing.T) {
	p := SlowCat(Pure(Num(1)), Pure(Num(2)))
	e0 := p.Query(fullCycle(0))
	e1 := p.Query(fullCycle(1))
	e2 := p.Query(fullCycle(2))
	require.Len(t, e0, 1)
	require.Len(t, e1, 1)
	require.Len(t, e2, 1)
	assert.True(t, e0[0].Value.Equal(Num(1)))
	assert.True(t, e1[0].Value.Equal(Num(2)))
	assert.True(t, e2[0].Value.Equal(Num(1)))
}

func TestStackLayersAllPatterns(t *testing.T) {
	p := Stack(Pure(Num(1)), Pure(Num(2)))
	events := p.Query(fullCycle(0))
	assert.Len(t, events, 2)
}

func TestStackWithSilenceIsIdentity(t *testing.T) {
	p := Pure(Num(1))
	stacked := Stack(p, Silence)
	a := p.Query(fullCycle(0))
	b := stacked.Query(fullCycle(0))
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.True(t, a[0].Value.Equal(b[0].Value))
}

func TestFastDoublesEventsPerCycle(t *testing.T) {
	p := Fast(rtime.FromInt(2), Pure(Num(1)))
	events := p.Query(fullCycle(0))
	require.Len(t, events, 2)
}

func TestFastComposesMultiplicatively(t *testing.T) {
	base := Pure(Num(1))
	a := Fast(rtime.FromInt(2), Fast(rtime.FromInt(3), base))
	b := Fast(rtime.FromInt(6), base)
	ea := a.Query(fullCycle(0))
	eb := b.Query(fullCycle(0))
	require.Equal(t, len(ea), len(eb))
	for i := range ea {
		assert.Equal(t, ea[i].Part, eb[i].Part)
	}
}

func TestSlowIsReciprocalOfFast(t *testing.T) {
	p := Pure(Num(1))
	slow := Slow(rtime.FromInt(2), p)
	events := slow.Query(rtime.NewSpan(rtime.FromInt(0), rtime.FromInt(2)))
	require.Len(t, events, 1)
	assert.Equal(t, rtime.FromInt(0), events[0].Whole.Begin)
	assert.Equal(t, rtime.FromInt(2), events[0].Whole.End)
}

func TestRevOfRevIsIdentity(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)))
	rr := Rev(Rev(p))
	a := p.Query(fullCycle(0))
	b := rr.Query(fullCycle(0))
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].Value.Equal(b[i].Value))
		assert.Equal(t, a[i].Part, b[i].Part)
	}
}

func TestRevMirrorsWithinCycle(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)))
	events := Rev(p).Query(fullCycle(0))
	require.Len(t, events, 2)
	assert.True(t, events[0].Value.Equal(Num(2)))
	assert.True(t, events[1].Value.Equal(Num(1)))
}

func TestEveryAppliesOnMatchingCycles(t *testing.T) {
	p := Pure(Num(1))
	transformed := Every(2, func(p Pattern) Pattern { return Pure(Num(9)) }, p)
	e0 := transformed.Query(fullCycle(0))
	e1 := transformed.Query(fullCycle(1))
	require.Len(t, e0, 1)
	require.Len(t, e1, 1)
	assert.True(t, e0[0].Value.Equal(Num(9)))
	assert.True(t, e1[0].Value.Equal(Num(1)))
}

func TestEuclid38HasOnsetsAtZeroThreeSix(t *testing.T) {
	p := Euclid(3, 8, 0)
	events := p.Query(fullCycle(0))
	var onsets []rtime.Time
	for _, e := range events {
		if e.HasOnset() && truthy(e.Value) {
			onsets = append(onsets, e.Whole.Begin)
		}
	}
	require.Len(t, onsets, 3)
	assert.Equal(t, rtime.New(0, 8), onsets[0])
	assert.Equal(t, rtime.New(3, 8), onsets[1])
	assert.Equal(t, rtime.New(6, 8), onsets[2])
}

func TestEuclidPulseCountMatchesK(t *testing.T) {
	for _, tc := range []struct{ k, n int }{{3, 8}, {5, 8}, {2, 5}, {7, 16}} {
		p := Euclid(tc.k, tc.n, 0)
		events := p.Query(fullCycle(0))
		count := 0
		for _, e := range events {
			if truthy(e.Value) {
				count++
			}
		}
		assert.Equal(t, tc.k, count, "k=%d n=%d", tc.k, tc.n)
	}
}

func TestDegradeByZeroKeepsAll(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	a := p.Query(fullCycle(0))
	b := DegradeBy(0, p).Query(fullCycle(0))
	assert.Equal(t, len(a), len(b))
}

func TestDegradeByOneDropsAll(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	b := DegradeBy(1, p).Query(fullCycle(0))
	assert.Empty(t, b)
}

func TestSegmentSamplesContinuousSignal(t *testing.T) {
	events := Segment(16, Sine()).Query(fullCycle(0))
	assert.Len(t, events, 16)
}

func TestSometimesByPartitionsEvents(t *testing.T) {
	base := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	out := SometimesBy(0.5, func(p Pattern) Pattern { return p }, base)
	a := base.Query(fullCycle(0))
	b := out.Query(fullCycle(0))
	assert.Equal(t, len(a), len(b))
}

func TestChopTagsContext(t *testing.T) {
	p := Chop(4, Pure(NameValue("bd")))
	events := p.Query(fullCycle(0))
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, float64(i), e.Ctx[CtxChopIndex])
		assert.Equal(t, float64(4), e.Ctx[CtxChopCount])
	}
}

func TestStructDropsFalseOnsets(t *testing.T) {
	gate := FastCat(Pure(Num(1)), Pure(Num(0)), Pure(Num(1)), Pure(Num(0)))
	vp := Pure(NameValue("bd"))
	out := Struct(gate, vp).Query(fullCycle(0))
	require.Len(t, out, 2)
}

func TestScaleQuantizesDegrees(t *testing.T) {
	p := Scale("major", 60, FromListFast(Num(0), Num(1), Num(2), Num(7)))
	events := p.Query(fullCycle(0))
	require.Len(t, events, 4)
	assert.Equal(t, 60.0, events[0].Value.AsNum())
	assert.Equal(t, 62.0, events[1].Value.AsNum())
	assert.Equal(t, 64.0, events[2].Value.AsNum())
	assert.Equal(t, 72.0, events[3].Value.AsNum())
}

func TestJuxPansOppositeChannels(t *testing.T) {
	p := Pure(Num(1))
	out := Jux(func(p Pattern) Pattern { return p }, p).Query(fullCycle(0))
	require.Len(t, out, 2)
	assert.Equal(t, -1.0, out[0].Ctx[CtxPan])
	assert.Equal(t, 1.0, out[1].Ctx[CtxPan])
}

func TestCompressConfinesToWindow(t *testing.T) {
	p := Compress(rtime.New(1, 4), rtime.New(3, 4), Pure(Num(1)))
	events := p.Query(fullCycle(0))
	require.Len(t, events, 1)
	assert.Equal(t, rtime.New(1, 4), events[0].Part.Begin)
	assert.Equal(t, rtime.New(3, 4), events[0].Part.End)
}

func TestZoomIsInverseOfCompressPlacement(t *testing.T) {
	src := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	zoomed := Zoom(rtime.New(1, 4), rtime.New(2, 4), src)
	events := zoomed.Query(fullCycle(0))
	require.Len(t, events, 1)
	assert.True(t, events[0].Value.Equal(Num(2)))
}

func TestGapRepeatsEveryNCycles(t *testing.T) {
	p := Gap(2)
	e0 := p.Query(fullCycle(0))
	e1 := p.Query(fullCycle(1))
	e2 := p.Query(fullCycle(2))
	assert.Len(t, e0, 1)
	assert.Len(t, e1, 0)
	assert.Len(t, e2, 1)
}
