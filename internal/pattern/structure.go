package pattern

import "github.com/phonon-lang/phonon/internal/rtime"

// Rev mirrors each event's Part and Whole about the midpoint of the
// cycle it falls within.
func Rev(p Pattern) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			mirror := func(sp rtime.Span) rtime.Span {
				reflect := func(t rtime.Time) rtime.Time {
					// t -> 2*c + 1 - t
					return rtime.FromInt(2*c + 1).Sub(t)
				}
				nb, ne := reflect(sp.End), reflect(sp.Begin)
				return rtime.NewSpan(nb, ne)
			}
			queryMirrored := mirror(cs)
			evs := p.Query(queryMirrored)
			for i := len(evs) - 1; i >= 0; i-- {
				out = append(out, evs[i].shiftScale(mirror))
			}
		}
		return out
	}}
}

// Palindrome alternates p with its reverse every other cycle:
// slowcat(p, rev(p)). The two halves are independently queried (the
// midpoint event is duplicated, not shared — see DESIGN.md open
// question (c)).
func Palindrome(p Pattern) Pattern {
	return SlowCat(p, Rev(p))
}

// Iter rotates p by c*step mod 1 on cycle c. Events that cross the
// cycle boundary after rotation are split into two fragments sharing
// the same Whole.
func Iter(step rtime.Time, p Pattern) Pattern {
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			rot := step.Mul(rtime.FromInt(c)).Mod(rtime.FromInt(1))
			if rot.Equal(rtime.Zero) {
				out = append(out, p.Query(cs)...)
				continue
			}
			out = append(out, rotateCycle(p, c, rot)...)
		}
		return out
	})
}

// rotateCycle queries p for cycle c rotated left by rot (0 < rot < 1),
// splitting any event that straddles the rotation seam.
func rotateCycle(p Pattern, c int64, rot rtime.Time) []Event {
	base := rtime.FromInt(c)
	seam := base.Add(rot)
	var out []Event
	// First half of the output cycle shows p's [seam, c+1) shifted left by rot.
	for _, e := range p.Query(rtime.NewSpan(seam, base.Add(rtime.FromInt(1)))) {
		out = append(out, e.shiftScale(func(sp rtime.Span) rtime.Span { return sp.Shift(rot.Neg()) }))
	}
	// Second half shows p's [c, seam) shifted right by (1-rot).
	shiftFwd := rtime.FromInt(1).Sub(rot)
	for _, e := range p.Query(rtime.NewSpan(base, seam)) {
		out = append(out, e.shiftScale(func(sp rtime.Span) rtime.Span { return sp.Shift(shiftFwd) }))
	}
	return out
}

// Transform is a pattern-to-pattern function, used wherever the spec
// calls for a first-class function argument (every, sometimes, jux, …).
type Transform func(Pattern) Pattern

// Every queries f(p) on cycles where c mod n == 0, otherwise p.
func Every(n int64, f Transform, p Pattern) Pattern {
	return EveryOffset(n, 0, f, p)
}

// EveryOffset backs firstOf/lastOf: the transform applies on cycles
// where (c mod n) == offset mod n.
func EveryOffset(n, offset int64, f Transform, p Pattern) Pattern {
	if n <= 0 {
		return p
	}
	fp := f(p)
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			m := c % n
			if m < 0 {
				m += n
			}
			if m == offset {
				out = append(out, fp.Query(cs)...)
			} else {
				out = append(out, p.Query(cs)...)
			}
		}
		return out
	})
}

// FirstOf applies f on the first cycle of every group of n cycles.
func FirstOf(n int64, f Transform, p Pattern) Pattern { return EveryOffset(n, 0, f, p) }

// LastOf applies f on the last cycle of every group of n cycles.
func LastOf(n int64, f Transform, p Pattern) Pattern {
	if n <= 0 {
		return p
	}
	return EveryOffset(n, n-1, f, p)
}
