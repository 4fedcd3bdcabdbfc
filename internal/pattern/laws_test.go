package pattern

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/phonon-lang/phonon/internal/rtime"
)

// Property-based checks of the algebraic laws in §8, fuzzing both the
// pattern structure and the query span.

func drawSpan(t *rapid.T) rtime.Span {
	num := rapid.Int64Range(-16, 16).Draw(t, "begin_num")
	den := rapid.Int64Range(1, 8).Draw(t, "begin_den")
	widthNum := rapid.Int64Range(1, 32).Draw(t, "width_num")
	widthDen := rapid.Int64Range(1, 8).Draw(t, "width_den")
	begin := rtime.New(num, den)
	return rtime.NewSpan(begin, begin.Add(rtime.New(widthNum, widthDen)))
}

func drawPattern(t *rapid.T) Pattern {
	n := rapid.IntRange(1, 5).Draw(t, "len")
	vals := make([]Value, n)
	for i := range vals {
		vals[i] = Num(float64(rapid.IntRange(0, 9).Draw(t, "val")))
	}
	switch rapid.IntRange(0, 3).Draw(t, "shape") {
	case 0:
		return FromListFast(vals...)
	case 1:
		return FromListSlow(vals...)
	case 2:
		return Stack(FromListFast(vals...), Pure(Num(-1)))
	default:
		return Fast(rtime.New(int64(rapid.IntRange(1, 4).Draw(t, "rate")), 1), FromListFast(vals...))
	}
}

type eventKey struct {
	pb, pe string
	val    string
}

func canonical(evs []Event) []eventKey {
	out := make([]eventKey, len(evs))
	for i, e := range evs {
		out[i] = eventKey{pb: e.Part.Begin.String(), pe: e.Part.End.String(), val: e.Value.String()}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].pb != out[j].pb {
			return out[i].pb < out[j].pb
		}
		if out[i].pe != out[j].pe {
			return out[i].pe < out[j].pe
		}
		return out[i].val < out[j].val
	})
	return out
}

func TestLawPartsStayWithinQuery(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		for _, e := range p.Query(s) {
			assert.False(t, e.Part.Begin.Less(s.Begin), "part begins before the query")
			assert.False(t, s.End.Less(e.Part.End), "part ends after the query")
			assert.True(t, e.Part.Begin.Less(e.Part.End), "empty part")
		}
	})
}

func TestLawDeterminism(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		assert.Equal(t, canonical(p.Query(s)), canonical(p.Query(s)))
	})
}

func TestLawRevIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		assert.Equal(t, canonical(p.Query(s)), canonical(Rev(Rev(p)).Query(s)))
	})
}

func TestLawFastComposes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		k := rtime.New(int64(rapid.IntRange(1, 4).Draw(t, "k")), int64(rapid.IntRange(1, 3).Draw(t, "kd")))
		m := rtime.New(int64(rapid.IntRange(1, 4).Draw(t, "m")), int64(rapid.IntRange(1, 3).Draw(t, "md")))
		lhs := Fast(k, Fast(m, p)).Query(s)
		rhs := Fast(k.Mul(m), p).Query(s)
		assert.Equal(t, canonical(rhs), canonical(lhs))
	})
}

func TestLawStackSilenceIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		assert.Equal(t, canonical(p.Query(s)), canonical(Stack(p, Silence).Query(s)))
	})
}

func TestLawCatAssociative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawPattern(t)
		b := drawPattern(t)
		c := drawPattern(t)
		s := drawSpan(t)
		lhs := FastCat(FastCat(a, b), c).Query(s)
		rhs := FastCat(a, FastCat(b, c)).Query(s)
		assert.Equal(t, canonical(rhs), canonical(lhs))
	})
}

func TestLawEuclidCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		k := rapid.IntRange(1, 16).Draw(t, "k")
		if k > n {
			k = n
		}
		cycle := rapid.Int64Range(0, 8).Draw(t, "cycle")
		s := rtime.NewSpan(rtime.FromInt(cycle), rtime.FromInt(cycle+1))
		evs := Euclid(k, n, rapid.IntRange(-4, 4).Draw(t, "rot")).Query(s)
		onsets := 0
		for _, e := range evs {
			if e.HasOnset() {
				onsets++
			}
		}
		require.Equal(t, k, onsets)
	})
}

func TestLawDegradeBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		assert.Equal(t, canonical(p.Query(s)), canonical(DegradeBy(0, p).Query(s)))
		assert.Empty(t, DegradeBy(1, p).Query(s))
	})
}

func TestLawShuffleDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPattern(t)
		s := drawSpan(t)
		n := rapid.IntRange(2, 8).Draw(t, "n")
		assert.Equal(t, canonical(Shuffle(n, p).Query(s)), canonical(Shuffle(n, p).Query(s)))
		assert.Equal(t, canonical(Scramble(n, p).Query(s)), canonical(Scramble(n, p).Query(s)))
	})
}
