package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandIsDeterministic(t *testing.T) {
	a := Rand(0).Query(fullCycle(5))
	b := Rand(0).Query(fullCycle(5))
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Value.AsNum(), b[0].Value.AsNum())
}

func TestRandDiffersBySubSeed(t *testing.T) {
	a := Rand(1).Query(fullCycle(0))
	b := Rand(2).Query(fullCycle(0))
	assert.NotEqual(t, a[0].Value.AsNum(), b[0].Value.AsNum())
}

func TestIRandStaysInRange(t *testing.T) {
	p := IRand(8, 0)
	for c := int64(0); c < 20; c++ {
		events := p.Query(fullCycle(c))
		require.Len(t, events, 1)
		v := events[0].Value.AsNum()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 8.0)
	}
}

func TestChoosePicksFromProvidedValues(t *testing.T) {
	choices := []Value{NameValue("bd"), NameValue("sn"), NameValue("hh")}
	p := Choose(choices, 0)
	for c := int64(0); c < 10; c++ {
		events := p.Query(fullCycle(c))
		require.Len(t, events, 1)
		found := false
		for _, ch := range choices {
			if events[0].Value.Equal(ch) {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func TestShufflePreservesEventCount(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	shuffled := Shuffle(4, p)
	a := p.Query(fullCycle(0))
	b := shuffled.Query(fullCycle(0))
	assert.Equal(t, len(a), len(b))
}

func TestShuffleIsAPermutationOfValues(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	shuffled := Shuffle(4, p)
	events := shuffled.Query(fullCycle(3))
	require.Len(t, events, 4)
	seen := map[float64]bool{}
	for _, e := range events {
		seen[e.Value.AsNum()] = true
	}
	assert.Len(t, seen, 4)
}

func TestDegradeIsHalfOfDegradeByPointFive(t *testing.T) {
	p := FastCat(Pure(Num(1)), Pure(Num(2)), Pure(Num(3)), Pure(Num(4)))
	a := Degrade(p).Query(fullCycle(0))
	b := DegradeBy(0.5, p).Query(fullCycle(0))
	assert.Equal(t, len(a), len(b))
}
