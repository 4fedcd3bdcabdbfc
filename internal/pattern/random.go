package pattern

import "github.com/phonon-lang/phonon/internal/rtime"

// Deterministic randomness, seeded by time position rather than hidden
// RNG state: the same (time, sub-seed) pair always yields the same
// [0,1) value, so degrade/shuffle/choose are reproducible under
// identical queries. Because Time is an exact rational, the numerator
// and denominator are hashed directly rather than rounding to a float
// scale — this avoids any resolution collisions a fixed-K float scale
// would introduce near cycle boundaries.
func hashSeed(t rtime.Time, sub int64) uint64 {
	h := uint64(1469598103934665603) // FNV-1a offset basis
	mix := func(v int64) {
		h ^= uint64(v)
		h *= 1099511628211
	}
	mix(t.Num())
	mix(t.Den())
	mix(sub)
	return h
}

func xorshift64star(x uint64) uint64 {
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	return x * 2685821657736338717
}

// randAt returns the deterministic [0,1) value for time t and sub-seed
// sub (a large prime times the sub-seed in the spec's framing; here the
// exact-rational hash already disperses sub-seeds well).
func randAt(t rtime.Time, sub int64) float64 {
	x := xorshift64star(hashSeed(t, sub))
	return float64(x>>11) / float64(uint64(1)<<53)
}

// Rand is a continuous signal emitting one random value per cycle.
func Rand(sub int64) Pattern {
	return newContinuous(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			v := randAt(rtime.FromInt(c), sub)
			out = append(out, Event{Part: cs, Value: Num(v)})
		}
		return out
	})
}

// IRand rounds Rand down to floor(v*n), an integer in [0, n).
func IRand(n int, sub int64) Pattern {
	return mapContinuous(Rand(sub), func(v float64) float64 {
		iv := int(v * float64(n))
		if iv >= n {
			iv = n - 1
		}
		return float64(iv)
	})
}

func mapContinuous(p Pattern, f func(float64) float64) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		events := p.Query(s)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.WithValue(e.Value.MapNum(f))
		}
		return out
	}}
}

// Choose picks one of vs per cycle using IRand(len(vs)).
func Choose(vs []Value, sub int64) Pattern {
	n := len(vs)
	if n == 0 {
		return Silence
	}
	idx := IRand(n, sub)
	return Pattern{continuous: idx.continuous, query: func(s rtime.Span) []Event {
		events := idx.Query(s)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.WithValue(vs[int(e.Value.AsNum())])
		}
		return out
	}}
}

// WeightedChoice pairs a value with a relative weight for WChoose.
type WeightedChoice struct {
	Value  Value
	Weight float64
}

// WChoose normalizes weights and performs inverse-CDF sampling on the
// same deterministic random stream Rand uses.
func WChoose(choices []WeightedChoice, sub int64) Pattern {
	if len(choices) == 0 {
		return Silence
	}
	total := 0.0
	for _, c := range choices {
		total += c.Weight
	}
	r := Rand(sub)
	return Pattern{continuous: r.continuous, query: func(s rtime.Span) []Event {
		events := r.Query(s)
		out := make([]Event, len(events))
		for i, e := range events {
			target := e.Value.AsNum() * total
			acc := 0.0
			chosen := choices[len(choices)-1].Value
			for _, c := range choices {
				acc += c.Weight
				if target < acc {
					chosen = c.Value
					break
				}
			}
			out[i] = e.WithValue(chosen)
		}
		return out
	}}
}

// filterEvents keeps only the events of p for which keep returns true.
func filterEvents(p Pattern, keep func(Event) bool) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		events := p.Query(s)
		out := events[:0:0]
		for _, e := range events {
			if keep(e) {
				out = append(out, e)
			}
		}
		return out
	}}
}

// DegradeBy keeps each event of p iff a value seeded by the event's
// Part.Begin exceeds prob.
func DegradeBy(prob float64, p Pattern) Pattern {
	return filterEvents(p, func(e Event) bool { return randAt(e.Part.Begin, 0) >= prob })
}

// Degrade is DegradeBy(0.5, p).
func Degrade(p Pattern) Pattern { return DegradeBy(0.5, p) }

// UndegradeBy is DegradeBy's complement: it keeps exactly the events
// DegradeBy(prob, p) would drop. Used to build sometimesBy so the two
// halves partition p's events with no overlap and no gaps.
func UndegradeBy(prob float64, p Pattern) Pattern {
	return filterEvents(p, func(e Event) bool { return randAt(e.Part.Begin, 0) < prob })
}

// SometimesBy substitutes f(p) for prob of p's events and leaves the
// rest unchanged; the same per-event seed selects which stream an event
// is drawn from, so exactly one version of each event appears.
func SometimesBy(prob float64, f Transform, p Pattern) Pattern {
	unchanged := DegradeBy(prob, p)
	changed := f(UndegradeBy(prob, p))
	return Stack(unchanged, changed)
}

func Sometimes(f Transform, p Pattern) Pattern    { return SometimesBy(0.5, f, p) }
func Often(f Transform, p Pattern) Pattern        { return SometimesBy(0.75, f, p) }
func Rarely(f Transform, p Pattern) Pattern       { return SometimesBy(0.25, f, p) }
func AlmostNever(f Transform, p Pattern) Pattern  { return SometimesBy(0.1, f, p) }
func AlmostAlways(f Transform, p Pattern) Pattern { return SometimesBy(0.9, f, p) }

// fisherYates returns a deterministic permutation of [0,n) seeded by
// cycle c.
func fisherYates(n int, c int64) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		r := randAt(rtime.FromInt(c), int64(i)+1000003)
		j := int(r * float64(i+1))
		if j > i {
			j = i
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// Shuffle divides each cycle into n equal slices of p and plays a
// Fisher-Yates permutation of them, seeded per cycle.
func Shuffle(n int, p Pattern) Pattern {
	if n <= 1 {
		return p
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			perm := fisherYates(n, c)
			for slot := 0; slot < n; slot++ {
				src := perm[slot]
				slice := Zoom(rtime.New(int64(src), int64(n)), rtime.New(int64(src+1), int64(n)), p)
				placed := Compress(rtime.New(int64(slot), int64(n)), rtime.New(int64(slot+1), int64(n)), slice)
				out = append(out, placed.Query(cs)...)
			}
		}
		return out
	})
}

// Scramble picks n slices with replacement, independently per slot.
func Scramble(n int, p Pattern) Pattern {
	if n <= 1 {
		return p
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			for slot := 0; slot < n; slot++ {
				r := randAt(rtime.FromInt(c), int64(slot)+2000003)
				src := int(r * float64(n))
				if src >= n {
					src = n - 1
				}
				slice := Zoom(rtime.New(int64(src), int64(n)), rtime.New(int64(src+1), int64(n)), p)
				placed := Compress(rtime.New(int64(slot), int64(n)), rtime.New(int64(slot+1), int64(n)), slice)
				out = append(out, placed.Query(cs)...)
			}
		}
		return out
	})
}
