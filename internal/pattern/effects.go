package pattern

import (
	"math"

	"github.com/phonon-lang/phonon/internal/rtime"
)

// Struct takes onset structure from bp and values from vp: for every
// event in bp whose value is truthy (a nonzero Num, or any non-nil
// non-zero value), the overlapping value of vp at that time is kept.
// Boolean-false / zero-valued bp events are dropped, producing rests.
func Struct(bp, vp Pattern) Pattern {
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, be := range bp.Query(s) {
			if !truthy(be.Value) {
				continue
			}
			for _, ve := range vp.Query(be.Part) {
				part, ok := ve.Part.Intersect(be.Part)
				if !ok {
					continue
				}
				out = append(out, Event{Whole: be.Whole, Part: part, Value: ve.Value, Ctx: be.Ctx.Merge(ve.Ctx)})
			}
		}
		return out
	})
}

func truthy(v Value) bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindNum:
		return v.Num != 0
	default:
		return true
	}
}

// Mask keeps only the events of p whose Part overlaps an onset-true
// event of bp; unlike Struct it does not replace the onset grid, it
// only filters p's own events against bp's gate.
func Mask(bp, p Pattern) Pattern {
	return newDiscrete(func(s rtime.Span) []Event {
		gates := bp.Query(s)
		var out []Event
		for _, e := range p.Query(s) {
			for _, g := range gates {
				if !truthy(g.Value) {
					continue
				}
				part, ok := e.Part.Intersect(g.Part)
				if !ok {
					continue
				}
				out = append(out, e.WithPart(part))
				break
			}
		}
		return out
	})
}

// When applies f to p only on cycles where test(cycle) is true.
func When(test func(cycle int64) bool, f Transform, p Pattern) Pattern {
	fp := f(p)
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			if test(cs.Begin.Floor()) {
				out = append(out, fp.Query(cs)...)
			} else {
				out = append(out, p.Query(cs)...)
			}
		}
		return out
	})
}

// Filter keeps only events for which keep(value) is true.
func Filter(keep func(Value) bool, p Pattern) Pattern {
	return filterEvents(p, func(e Event) bool { return keep(e.Value) })
}

// Jux pans the original pattern hard left and f(p) hard right, via
// CtxPan context (-1..1); both layers keep their own onsets.
func Jux(f Transform, p Pattern) Pattern {
	return JuxBy(1.0, f, p)
}

// JuxBy is Jux with a configurable stereo spread amount (0..1).
func JuxBy(amount float64, f Transform, p Pattern) Pattern {
	left := withPan(p, -amount)
	right := withPan(f(p), amount)
	return Stack(left, right)
}

func withPan(p Pattern, pan float64) Pattern { return Tag(p, CtxPan, pan) }

// Tag returns a copy of p where every event's context has key set to
// value, used by the mini-notation parser for the `:i` sample-index
// suffix and by withPan above.
func Tag(p Pattern, key string, value float64) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		events := p.Query(s)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e
			out[i].Ctx = e.Ctx.With(key, value)
		}
		return out
	}}
}

// Off layers p with a copy shifted later by t cycles and transformed by
// f, a common echo/call-and-response idiom.
func Off(t rtime.Time, f Transform, p Pattern) Pattern {
	return Stack(p, f(Late(t, p)))
}

// Echo layers n repeats of p, each t cycles later than the last and
// with gain multiplied by feedback each repeat.
func Echo(n int, t rtime.Time, feedback float64, p Pattern) Pattern {
	if n <= 0 {
		return Silence
	}
	layers := make([]Pattern, n)
	gain := 1.0
	for i := 0; i < n; i++ {
		g := gain
		layers[i] = withGainMul(Late(t.Mul(rtime.FromInt(int64(i))), p), g)
		gain *= feedback
	}
	return Stack(layers...)
}

func withGainMul(p Pattern, mul float64) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		events := p.Query(s)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e
			existing := 1.0
			if g, ok := e.Ctx[CtxGain]; ok {
				existing = g
			}
			out[i].Ctx = e.Ctx.With(CtxGain, existing*mul)
		}
		return out
	}}
}

// Math transforms apply an arithmetic operator pointwise to p's numeric
// values, mirroring the mini-notation's `|+|`-family operators at the
// pattern-combinator level.
func Add(n float64, p Pattern) Pattern { return mapValues(p, func(v float64) float64 { return v + n }) }
func Sub(n float64, p Pattern) Pattern { return mapValues(p, func(v float64) float64 { return v - n }) }
func Mul(n float64, p Pattern) Pattern { return mapValues(p, func(v float64) float64 { return v * n }) }
func Div(n float64, p Pattern) Pattern {
	return mapValues(p, func(v float64) float64 {
		if n == 0 {
			return 0
		}
		return v / n
	})
}
func Mod(n float64, p Pattern) Pattern {
	return mapValues(p, func(v float64) float64 {
		if n == 0 {
			return 0
		}
		r := v - n*float64(int64(v/n))
		return r
	})
}

func mapValues(p Pattern, f func(float64) float64) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		events := p.Query(s)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.WithValue(e.Value.MapNum(f))
		}
		return out
	}}
}

// Range rescales a bipolar [-1,1] signal (as produced by SineBipolar, etc.)
// into [lo, hi].
func Range(lo, hi float64, p Pattern) Pattern {
	return mapValues(p, func(v float64) float64 {
		unit := (v + 1) / 2
		return lo + unit*(hi-lo)
	})
}

// RangeX is Range with an exponential (logarithmic) taper, for
// frequency-like destinations.
func RangeX(lo, hi float64, p Pattern) Pattern {
	return mapValues(p, func(v float64) float64 {
		unit := (v + 1) / 2
		if lo <= 0 || hi <= 0 {
			return lo + unit*(hi-lo)
		}
		logLo, logHi := math.Log(lo), math.Log(hi)
		return math.Exp(logLo + unit*(logHi-logLo))
	})
}

// scaleTables maps each scale name to its degree -> semitone offsets, grounded
// on the supplemented `scale(name, root, p)` function.
var scaleTables = map[string][]int{
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"minor":      {0, 2, 3, 5, 7, 8, 10},
	"dorian":     {0, 2, 3, 5, 7, 9, 10},
	"phrygian":   {0, 1, 3, 5, 7, 8, 10},
	"lydian":     {0, 2, 4, 6, 7, 9, 11},
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
	"locrian":    {0, 1, 3, 5, 6, 8, 10},
	"majPent":    {0, 2, 4, 7, 9},
	"minPent":    {0, 3, 5, 7, 10},
	"chromatic":  {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// Scale quantizes integer scale-degree values of p to semitone offsets
// from root within the named scale, wrapping degrees across octaves.
func Scale(name string, root float64, p Pattern) Pattern {
	table, ok := scaleTables[name]
	if !ok || len(table) == 0 {
		return p
	}
	n := len(table)
	return mapValues(p, func(degree float64) float64 {
		d := int(degree)
		octave := d / n
		idx := d % n
		if idx < 0 {
			idx += n
			octave--
		}
		return root + float64(12*octave+table[idx])
	})
}

// ArpDirection selects the traversal order Arpeggiate uses across a
// stacked chord's notes.
type ArpDirection int

const (
	ArpUp ArpDirection = iota
	ArpDown
	ArpUpDown
	ArpDownUp
)

// Arpeggiate expands each chord (KindStack) event in p into count
// sequential notes spanning the event's Whole, in dir order, repeating
// the note list if count exceeds its length.
func Arpeggiate(dir ArpDirection, count int, p Pattern) Pattern {
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, e := range p.Query(s) {
			notes := e.Value.Stack
			if len(notes) == 0 {
				notes = []Value{e.Value}
			}
			order := arpOrder(dir, len(notes))
			n := count
			if n <= 0 {
				n = len(order)
			}
			if e.Whole == nil {
				out = append(out, e)
				continue
			}
			width := e.Whole.End.Sub(e.Whole.Begin).Div(rtime.FromInt(int64(n)))
			for i := 0; i < n; i++ {
				idx := order[i%len(order)]
				b := e.Whole.Begin.Add(width.Mul(rtime.FromInt(int64(i))))
				en := e.Whole.Begin.Add(width.Mul(rtime.FromInt(int64(i + 1))))
				w := rtime.NewSpan(b, en)
				part, ok := w.Intersect(e.Part)
				if !ok {
					continue
				}
				out = append(out, Event{Whole: &w, Part: part, Value: notes[idx], Ctx: e.Ctx})
			}
		}
		return out
	})
}

func arpOrder(dir ArpDirection, n int) []int {
	up := make([]int, n)
	for i := range up {
		up[i] = i
	}
	switch dir {
	case ArpDown:
		down := make([]int, n)
		for i := range down {
			down[i] = n - 1 - i
		}
		return down
	case ArpUpDown:
		if n <= 1 {
			return up
		}
		down := make([]int, n-2)
		for i := range down {
			down[i] = n - 2 - i
		}
		return append(append([]int{}, up...), down...)
	case ArpDownUp:
		if n <= 1 {
			return up
		}
		rev := make([]int, n)
		for i := range rev {
			rev[i] = n - 1 - i
		}
		mid := make([]int, n-2)
		for i := range mid {
			mid[i] = i + 1
		}
		return append(rev, mid...)
	default:
		return up
	}
}
