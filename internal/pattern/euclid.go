package pattern

import "github.com/phonon-lang/phonon/internal/rtime"

// bjorklund computes the maximally-even distribution of k pulses over n
// steps using the classic recursive sequence-merging algorithm
// (Toussaint's formulation of Bjorklund's algorithm).
func bjorklund(k, n int) []bool {
	out := make([]bool, n)
	if n <= 0 {
		return out
	}
	if k <= 0 {
		return out
	}
	if k >= n {
		for i := range out {
			out[i] = true
		}
		return out
	}

	a := make([][]bool, k)
	for i := range a {
		a[i] = []bool{true}
	}
	b := make([][]bool, n-k)
	for i := range b {
		b[i] = []bool{false}
	}

	for len(b) > 1 {
		m := len(a)
		if len(b) < m {
			m = len(b)
		}
		merged := make([][]bool, m)
		for i := 0; i < m; i++ {
			g := make([]bool, 0, len(a[i])+len(b[i]))
			g = append(g, a[i]...)
			g = append(g, b[i]...)
			merged[i] = g
		}
		var remainder [][]bool
		if len(a) > m {
			remainder = a[m:]
		} else {
			remainder = b[m:]
		}
		a = merged
		b = remainder
	}

	out = out[:0]
	for _, g := range a {
		out = append(out, g...)
	}
	for _, g := range b {
		out = append(out, g...)
	}
	return out
}

// rotateBools rotates pulses left by r steps: rotated[i] = pulses[(i+r) mod n].
func rotateBools(pulses []bool, r int) []bool {
	n := len(pulses)
	if n == 0 {
		return pulses
	}
	r = ((r % n) + n) % n
	out := make([]bool, n)
	for i := range out {
		out[i] = pulses[(i+r)%n]
	}
	return out
}

// Euclid builds the gate pattern for k pulses over n steps, rotated by
// rot: k <= 0 yields silence, k >= n yields a pulse on every step.
func Euclid(k, n, rot int) Pattern {
	if n <= 0 {
		return Silence
	}
	pulses := rotateBools(bjorklund(k, n), rot)
	steps := make([]Pattern, n)
	for i, on := range pulses {
		if on {
			steps[i] = Pure(Num(1))
		} else {
			steps[i] = Silence
		}
	}
	return FastCat(steps...)
}

// EuclidWith applies the euclid(k,n,rot) gate to p: p's value is kept
// at pulse onsets, silent elsewhere.
func EuclidWith(k, n, rot int, p Pattern) Pattern {
	return Struct(Euclid(k, n, rot), p)
}

// EuclidLegato extends each pulse until just before the next one. The
// last pulse of a cycle extends to the first pulse of the next cycle, so
// its Whole can end past the cycle end; its Part is clipped to the cycle
// the pulse starts in.
func EuclidLegato(k, n, rot int) Pattern {
	if n <= 0 {
		return Silence
	}
	pulses := rotateBools(bjorklund(k, n), rot)
	var idxs []int
	for i, on := range pulses {
		if on {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return Silence
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			base := rtime.FromInt(c)
			for pi, i := range idxs {
				next := idxs[(pi+1)%len(idxs)]
				steps := next - i
				if steps <= 0 {
					steps += n
				}
				b := base.Add(rtime.New(int64(i), int64(n)))
				e := base.Add(rtime.New(int64(i+steps), int64(n)))
				w := rtime.NewSpan(b, e)
				part, ok := w.Intersect(cs)
				if !ok {
					continue
				}
				out = append(out, Event{Whole: &w, Part: part, Value: Num(1)})
			}
		}
		return out
	})
}
