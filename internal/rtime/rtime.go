// Package rtime provides exact rational arithmetic over cycle positions.
//
// Every pattern operation compares and combines times with this type; no
// pattern-internal arithmetic uses floating point. Conversion to float64
// is available only for interfacing with sample clocks.
package rtime

import "fmt"

// Time is an exact rational n/d, always stored in lowest terms with a
// positive denominator.
type Time struct {
	n, d int64
}

// Zero is the rational 0/1.
var Zero = Time{0, 1}

// New builds a Time from a numerator and denominator, reducing it to
// lowest terms. Panics if d is zero.
func New(n, d int64) Time {
	if d == 0 {
		panic("rtime: zero denominator")
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(abs64(n), d)
	if g == 0 {
		g = 1
	}
	return Time{n / g, d / g}
}

// FromInt builds a whole-cycle Time.
func FromInt(n int64) Time { return Time{n, 1} }

// FromFloat approximates a float64 as a rational with a bounded
// denominator. Intended for converting wall-clock durations at the
// runtime boundary, never inside pattern algebra.
func FromFloat(f float64) Time {
	const denom = 1 << 20
	return New(int64(f*denom+sign(f)*0.5), denom)
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Num and Den expose the reduced numerator/denominator.
func (t Time) Num() int64 { return t.n }
func (t Time) Den() int64 { return t.d }

func (t Time) Add(o Time) Time { return New(t.n*o.d+o.n*t.d, t.d*o.d) }
func (t Time) Sub(o Time) Time { return New(t.n*o.d-o.n*t.d, t.d*o.d) }
func (t Time) Mul(o Time) Time { return New(t.n*o.n, t.d*o.d) }

func (t Time) Div(o Time) Time {
	if o.n == 0 {
		panic("rtime: division by zero")
	}
	return New(t.n*o.d, t.d*o.n)
}

// Mod returns t mod o for o > 0, result in [0, o).
func (t Time) Mod(o Time) Time {
	q := t.Div(o).Floor()
	return t.Sub(FromInt(q).Mul(o))
}

// Neg returns -t.
func (t Time) Neg() Time { return Time{-t.n, t.d} }

// Floor returns the greatest integer <= t.
func (t Time) Floor() int64 {
	if t.n >= 0 {
		return t.n / t.d
	}
	q := t.n / t.d
	if t.n%t.d != 0 {
		q--
	}
	return q
}

// CyclePos returns the fractional part of t within its cycle, i.e.
// t - floor(t), always in [0, 1).
func (t Time) CyclePos() Time {
	return t.Sub(FromInt(t.Floor()))
}

// Cmp returns -1, 0, or 1 as t is less than, equal to, or greater than o.
func (t Time) Cmp(o Time) int {
	lhs := t.n * o.d
	rhs := o.n * t.d
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func (t Time) Less(o Time) bool    { return t.Cmp(o) < 0 }
func (t Time) LessEq(o Time) bool  { return t.Cmp(o) <= 0 }
func (t Time) Greater(o Time) bool { return t.Cmp(o) > 0 }
func (t Time) Equal(o Time) bool   { return t.Cmp(o) == 0 }

// Min and Max return the smaller/larger of two times.
func Min(a, b Time) Time {
	if a.Less(b) {
		return a
	}
	return b
}

func Max(a, b Time) Time {
	if a.Greater(b) {
		return a
	}
	return b
}

// Float64 converts to a float64. Only safe for interfacing with sample
// clocks and wall-clock math; never compare pattern times this way.
func (t Time) Float64() float64 {
	return float64(t.n) / float64(t.d)
}

func (t Time) String() string {
	if t.d == 1 {
		return fmt.Sprintf("%d", t.n)
	}
	return fmt.Sprintf("%d/%d", t.n, t.d)
}

// Span is a half-open rational interval [Begin, End). Begin must be
// strictly less than End.
type Span struct {
	Begin, End Time
}

// NewSpan builds a Span, panicking if the invariant begin < end is
// violated.
func NewSpan(begin, end Time) Span {
	if !begin.Less(end) {
		panic("rtime: span begin must be < end")
	}
	return Span{begin, end}
}

// CyclePos returns the sub-span of s within a single cycle, i.e. the
// portion of s lying in [floor(s.Begin), floor(s.Begin)+1).
func (s Span) CyclePos() Span {
	c := FromInt(s.Begin.Floor())
	return Span{s.Begin.Sub(c), s.End.Sub(c)}
}

// Cycles splits s into one Span per cycle it overlaps, each clipped to
// that cycle's bounds.
func (s Span) Cycles() []Span {
	if s.Begin.Equal(s.End) {
		return []Span{s}
	}
	var out []Span
	cur := s.Begin
	for cur.Less(s.End) {
		next := FromInt(cur.Floor() + 1)
		end := Min(next, s.End)
		if cur.Less(end) {
			out = append(out, Span{cur, end})
		}
		cur = end
	}
	return out
}

// Intersect returns the overlap of s and o, and whether they overlap at
// all (a non-empty open intersection, or touching zero-width spans are
// rejected).
func (s Span) Intersect(o Span) (Span, bool) {
	begin := Max(s.Begin, o.Begin)
	end := Min(s.End, o.End)
	if !begin.Less(end) {
		return Span{}, false
	}
	return Span{begin, end}, true
}

// Overlaps reports whether s and o share any non-empty open interval.
func (s Span) Overlaps(o Span) bool {
	_, ok := s.Intersect(o)
	return ok
}

// Contains reports whether t lies in the half-open interval [Begin, End).
func (s Span) Contains(t Time) bool {
	return !t.Less(s.Begin) && t.Less(s.End)
}

// WithTime returns a new Span covering [t, t) stretched to the original
// duration, shifted so it begins at t. Useful for `early`/`late`.
func (s Span) Shift(by Time) Span {
	return Span{s.Begin.Add(by), s.End.Add(by)}
}

// Scale multiplies both endpoints by k (used by `fast`/`slow`).
func (s Span) Scale(k Time) Span {
	return Span{s.Begin.Mul(k), s.End.Mul(k)}
}

func (s Span) String() string {
	return fmt.Sprintf("[%s, %s)", s.Begin, s.End)
}
