package pattern

import "github.com/phonon-lang/phonon/internal/rtime"

// Event is a value placed on the timeline. Whole is the event's
// conceptual extent (nil for continuous signals that have no onset);
// Part is the portion visible in the current query and always satisfies
// Part ⊆ Whole when Whole is non-nil.
type Event struct {
	Whole *rtime.Span
	Part  rtime.Span
	Value Value
	Ctx   Context
}

// HasOnset reports whether Part begins exactly at Whole's begin, i.e.
// this is the onset-carrying fragment of a (possibly split) event.
func (e Event) HasOnset() bool {
	return e.Whole != nil && e.Part.Begin.Equal(e.Whole.Begin)
}

// WithValue returns a copy of e with a different value.
func (e Event) WithValue(v Value) Event {
	e.Value = v
	return e
}

// WithPart returns a copy of e with a different visible part.
func (e Event) WithPart(p rtime.Span) Event {
	e.Part = p
	return e
}

// shiftScale returns a copy of e with both Whole and Part transformed by
// f; used by time transforms that must move onset and visible-part
// together.
func (e Event) shiftScale(f func(rtime.Span) rtime.Span) Event {
	e.Part = f(e.Part)
	if e.Whole != nil {
		w := f(*e.Whole)
		e.Whole = &w
	}
	return e
}

// QueryFunc is the pure function at the heart of every Pattern: a span
// of query time in, a list of events visible in that span out.
type QueryFunc func(rtime.Span) []Event

// Pattern is a lazy, query-based time-indexed sequence of events.
// Patterns are immutable once constructed; the same query always
// produces structurally-equal results.
type Pattern struct {
	query QueryFunc
	// continuous is true for signals (sine, rand, …) whose events carry
	// no onset and tile the timeline; false for discrete patterns.
	continuous bool
}

// Query runs p over s, returning every event whose Part intersects s.
func (p Pattern) Query(s rtime.Span) []Event {
	if p.query == nil {
		return nil
	}
	return p.query(s)
}

// IsContinuous reports whether p is a continuous signal (whole == nil
// events tiling the timeline) as opposed to a discrete pattern.
func (p Pattern) IsContinuous() bool { return p.continuous }

func newDiscrete(q QueryFunc) Pattern { return Pattern{query: q, continuous: false} }
func newContinuous(q QueryFunc) Pattern { return Pattern{query: q, continuous: true} }

// Silence is the pattern with no events anywhere.
var Silence = newDiscrete(func(s rtime.Span) []Event { return nil })

// Pure yields one event per integer cycle, whole = part = [floor(t),
// floor(t)+1), clipped to each query span.
func Pure(v Value) Pattern {
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			w := rtime.NewSpan(rtime.FromInt(cs.Begin.Floor()), rtime.FromInt(cs.Begin.Floor()+1))
			part, ok := w.Intersect(rtime.NewSpan(cs.Begin, cs.End))
			if !ok {
				// query exactly touches the whole cycle boundary
				if cs.Begin.Equal(cs.End) {
					continue
				}
				part = cs
			}
			out = append(out, Event{Whole: &w, Part: part, Value: v})
		}
		return out
	})
}

// Gap yields silent structural events once every n cycles: same onset
// grid as Pure(Nil) but spaced n cycles apart, carrying no visible
// value. Used internally by slot-based combinators that need rests to
// still occupy a position in the cycle count.
func Gap(n int64) Pattern {
	if n <= 0 {
		return Silence
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			if m := ((c % n) + n) % n; m != 0 {
				continue
			}
			w := rtime.NewSpan(rtime.FromInt(c), rtime.FromInt(c+1))
			part, ok := w.Intersect(cs)
			if !ok {
				continue
			}
			out = append(out, Event{Whole: &w, Part: part, Value: Nil})
		}
		return out
	})
}

// FromListFast places each value as one equal slice of a single cycle
// (fastcat semantics): len(vs) values per cycle.
func FromListFast(vs ...Value) Pattern {
	ps := make([]Pattern, len(vs))
	for i, v := range vs {
		ps[i] = Pure(v)
	}
	return FastCat(ps...)
}

// FromListSlow places one value per cycle, cycling (slowcat semantics).
func FromListSlow(vs ...Value) Pattern {
	ps := make([]Pattern, len(vs))
	for i, v := range vs {
		ps[i] = Pure(v)
	}
	return SlowCat(ps...)
}

// Stack layers patterns: all of their events are queried and
// concatenated, unretimed. Voices overlap freely across layers.
func Stack(ps ...Pattern) Pattern {
	if len(ps) == 0 {
		return Silence
	}
	cont := false
	for _, p := range ps {
		cont = cont || p.continuous
	}
	return Pattern{continuous: cont, query: func(s rtime.Span) []Event {
		var out []Event
		for _, p := range ps {
			out = append(out, p.Query(s)...)
		}
		return out
	}}
}

// SlowCat plays pattern i during cycle i mod len(ps), at its own natural
// rate (so the chosen pattern still sees the real cycle number, just
// filtered to cycles that are multiples of len(ps) away).
func SlowCat(ps ...Pattern) Pattern {
	n := int64(len(ps))
	if n == 0 {
		return Silence
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			cyc := cs.Begin.Floor()
			idx := cyc % n
			if idx < 0 {
				idx += n
			}
			// The chosen pattern is queried as if its own clock were at
			// this absolute cycle; slowcat does not rescale time, only
			// selects which pattern is active.
			out = append(out, ps[idx].Query(cs)...)
		}
		return out
	})
}

// FastCat divides each cycle into len(ps) equal slices and places each
// pattern's own single cycle into its slice.
func FastCat(ps ...Pattern) Pattern {
	n := int64(len(ps))
	if n == 0 {
		return Silence
	}
	return Compress01(ps)
}

// Compress01 implements FastCat by compressing each pattern into its
// [i/n, (i+1)/n) slot of every cycle and stacking the results.
func Compress01(ps []Pattern) Pattern {
	n := int64(len(ps))
	layers := make([]Pattern, n)
	for i, p := range ps {
		b := rtime.New(int64(i), n)
		e := rtime.New(int64(i)+1, n)
		layers[i] = Compress(b, e, p)
	}
	return Stack(layers...)
}

// Sequence is an alias for FastCat, matching the mini-notation's
// whitespace-separated-tokens-as-fastcat rule.
func Sequence(ps ...Pattern) Pattern { return FastCat(ps...) }
