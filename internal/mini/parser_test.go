package mini

import (
	"testing"

	"github.com/phonon-lang/phonon/internal/pattern"
	"github.com/phonon-lang/phonon/internal/rtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycle(c int64) rtime.Span {
	return rtime.NewSpan(rtime.FromInt(c), rtime.FromInt(c+1))
}

func TestParseSimpleSequence(t *testing.T) {
	p, err := Parse("bd sn hh")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 3)
	assert.Equal(t, "bd", events[0].Value.Name)
	assert.Equal(t, "sn", events[1].Value.Name)
	assert.Equal(t, "hh", events[2].Value.Name)
}

func TestParseRest(t *testing.T) {
	p, err := Parse("bd ~ sn .")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 2)
	assert.Equal(t, "bd", events[0].Value.Name)
	assert.Equal(t, "sn", events[1].Value.Name)
}

func TestParseGroup(t *testing.T) {
	p, err := Parse("bd [sn sn]")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 3)
	assert.Equal(t, rtime.New(0, 1), events[0].Part.Begin)
	assert.Equal(t, rtime.New(1, 2), events[1].Part.Begin)
	assert.Equal(t, rtime.New(3, 4), events[2].Part.Begin)
}

func TestParseAlternation(t *testing.T) {
	p, err := Parse("<bd sn>")
	require.NoError(t, err)
	e0 := p.Query(cycle(0))
	e1 := p.Query(cycle(1))
	require.Len(t, e0, 1)
	require.Len(t, e1, 1)
	assert.Equal(t, "bd", e0[0].Value.Name)
	assert.Equal(t, "sn", e1[0].Value.Name)
}

func TestParseStack(t *testing.T) {
	p, err := Parse("bd, hh hh")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	assert.Len(t, events, 3)
}

func TestParseFastSuffix(t *testing.T) {
	p, err := Parse("bd*2")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 2)
}

func TestParseSlowSuffix(t *testing.T) {
	p, err := Parse("bd/2")
	require.NoError(t, err)
	events := p.Query(rtime.NewSpan(rtime.FromInt(0), rtime.FromInt(2)))
	require.Len(t, events, 1)
}

func TestParseBankIndexSuffix(t *testing.T) {
	p, err := Parse("bd:3")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 1)
	assert.Equal(t, 3.0, events[0].Ctx[pattern.CtxBankIndex])
}

func TestParseEuclidSuffix(t *testing.T) {
	p, err := Parse("bd(3,8)")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	var onsets int
	for _, e := range events {
		if e.HasOnset() {
			onsets++
		}
	}
	assert.Equal(t, 3, onsets)
}

func TestParseEuclidWithRotation(t *testing.T) {
	p, err := Parse("bd(3,8,1)")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	var onsets int
	for _, e := range events {
		if e.HasOnset() {
			onsets++
		}
	}
	assert.Equal(t, 3, onsets)
}

func TestParseDegradeSuffix(t *testing.T) {
	p, err := Parse("bd!")
	require.NoError(t, err)
	// degrade is deterministic; just verify it parses and queries without error.
	_ = p.Query(cycle(0))
}

func TestParseRepeatSuffix(t *testing.T) {
	p, err := Parse("bd!3")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, "bd", e.Value.Name)
	}
}

func TestParseReverseSuffix(t *testing.T) {
	p, err := Parse("[bd sn]@")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 2)
	assert.Equal(t, "sn", events[0].Value.Name)
	assert.Equal(t, "bd", events[1].Value.Name)
}

func TestParseNumericLiteral(t *testing.T) {
	p, err := Parse("220 440.5")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 2)
	assert.Equal(t, 220.0, events[0].Value.Num)
	assert.Equal(t, 440.5, events[1].Value.Num)
}

func TestParseRatioLiteral(t *testing.T) {
	p, err := Parse("1/4")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 1)
	assert.InDelta(t, 0.25, events[0].Value.Num, 1e-9)
}

func TestParseNoteName(t *testing.T) {
	p, err := Parse("c e g")
	require.NoError(t, err)
	events := p.Query(cycle(0))
	require.Len(t, events, 3)
	assert.Equal(t, 60.0, events[0].Value.Num)
	assert.Equal(t, 64.0, events[1].Value.Num)
	assert.Equal(t, 67.0, events[2].Value.Num)
}

func TestParseUnbalancedBracketIsParseError(t *testing.T) {
	_, err := Parse("bd [sn sn")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseMalformedEuclidIsParseError(t *testing.T) {
	_, err := Parse("bd(3,)")
	require.Error(t, err)
}

func TestParseNestedGroupsAndSuffixes(t *testing.T) {
	p, err := Parse("bd [sn*2 hh]/2 <cp rs>")
	require.NoError(t, err)
	_, err2 := p.Query(cycle(0)), error(nil)
	require.NoError(t, err2)
}
