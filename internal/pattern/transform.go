package pattern

import "github.com/phonon-lang/phonon/internal/rtime"

// Fast queries p over [k·begin, k·end) and scales the resulting event
// times back by 1/k, so p plays k times faster.
func Fast(k rtime.Time, p Pattern) Pattern {
	if k.Equal(rtime.Zero) {
		return Silence
	}
	if k.Less(rtime.Zero) {
		return Rev(Fast(k.Neg(), p))
	}
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		inner := s.Scale(k)
		events := p.Query(inner)
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.shiftScale(func(sp rtime.Span) rtime.Span {
				return rtime.NewSpan(sp.Begin.Div(k), sp.End.Div(k))
			})
		}
		return out
	}}
}

// Slow is Fast(1/k, p).
func Slow(k rtime.Time, p Pattern) Pattern {
	if k.Equal(rtime.Zero) {
		return Silence
	}
	return Fast(rtime.New(k.Den(), k.Num()), p)
}

// Early queries p shifted later by n cycles and shifts the results back,
// so the pattern appears to play n cycles earlier.
func Early(n rtime.Time, p Pattern) Pattern {
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		events := p.Query(s.Shift(n))
		out := make([]Event, len(events))
		for i, e := range events {
			out[i] = e.shiftScale(func(sp rtime.Span) rtime.Span { return sp.Shift(n.Neg()) })
		}
		return out
	}}
}

// Late is Early(-n, p).
func Late(n rtime.Time, p Pattern) Pattern { return Early(n.Neg(), p) }

// Compress places one cycle of p into [b, e) of every cycle (0 <= b < e
// <= 1), silent outside that window.
func Compress(b, e rtime.Time, p Pattern) Pattern {
	width := e.Sub(b)
	if !width.Greater(rtime.Zero) {
		return Silence
	}
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			winBegin := rtime.FromInt(c).Add(b)
			winEnd := rtime.FromInt(c).Add(e)
			win := rtime.NewSpan(winBegin, winEnd)
			part, ok := win.Intersect(cs)
			if !ok {
				continue
			}
			innerBegin := rtime.FromInt(c).Add(part.Begin.Sub(winBegin).Div(width))
			innerEnd := rtime.FromInt(c).Add(part.End.Sub(winBegin).Div(width))
			events := p.Query(rtime.NewSpan(innerBegin, innerEnd))
			for _, ev := range events {
				out = append(out, ev.shiftScale(func(sp rtime.Span) rtime.Span {
					nb := winBegin.Add(sp.Begin.Sub(rtime.FromInt(c)).Mul(width))
					ne := winBegin.Add(sp.End.Sub(rtime.FromInt(c)).Mul(width))
					if !nb.Less(ne) {
						ne = nb.Add(rtime.New(1, 1<<30))
					}
					return rtime.NewSpan(nb, ne)
				}))
			}
		}
		return out
	}}
}

// Zoom takes the slice [b, e) of p's own timeline and stretches it to
// fill one cycle, repeating with period 1 — the inverse mapping of
// Compress.
func Zoom(b, e rtime.Time, p Pattern) Pattern {
	width := e.Sub(b)
	if !width.Greater(rtime.Zero) {
		return Silence
	}
	return Pattern{continuous: p.continuous, query: func(s rtime.Span) []Event {
		var out []Event
		for _, cs := range s.Cycles() {
			c := cs.Begin.Floor()
			sliceBegin := rtime.FromInt(c).Add(b)
			innerBegin := sliceBegin.Add(cs.Begin.Sub(rtime.FromInt(c)).Mul(width))
			innerEnd := sliceBegin.Add(cs.End.Sub(rtime.FromInt(c)).Mul(width))
			events := p.Query(rtime.NewSpan(innerBegin, innerEnd))
			for _, ev := range events {
				out = append(out, ev.shiftScale(func(sp rtime.Span) rtime.Span {
					nb := rtime.FromInt(c).Add(sp.Begin.Sub(sliceBegin).Div(width))
					ne := rtime.FromInt(c).Add(sp.End.Sub(sliceBegin).Div(width))
					if !nb.Less(ne) {
						ne = nb.Add(rtime.New(1, 1<<30))
					}
					return rtime.NewSpan(nb, ne)
				}))
			}
		}
		return out
	}}
}

// Ply subdivides each event into n copies within its original Part,
// preserving Whole — ply affects structure, not onset identity.
func Ply(n int, p Pattern) Pattern {
	if n <= 1 {
		return p
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, e := range p.Query(s) {
			width := e.Part.End.Sub(e.Part.Begin).Div(rtime.FromInt(int64(n)))
			for i := 0; i < n; i++ {
				b := e.Part.Begin.Add(width.Mul(rtime.FromInt(int64(i))))
				en := e.Part.Begin.Add(width.Mul(rtime.FromInt(int64(i + 1))))
				out = append(out, Event{Whole: e.Whole, Part: rtime.NewSpan(b, en), Value: e.Value, Ctx: e.Ctx})
			}
		}
		return out
	})
}

// Retrig repeats each event times times within its original Part at a
// sliding rate: slice durations interpolate from 1/startRate to
// 1/endRate and are normalized to fill the Part, so startRate < endRate
// accelerates (drum-roll style) and the reverse decelerates. Whole is
// preserved, as with Ply.
func Retrig(times int, startRate, endRate float64, p Pattern) Pattern {
	if times <= 1 {
		return p
	}
	if startRate <= 0 {
		startRate = 1
	}
	if endRate <= 0 {
		endRate = 1
	}
	weights := make([]float64, times)
	var total float64
	for i := range weights {
		t := float64(i) / float64(times-1)
		rate := startRate + (endRate-startRate)*t
		weights[i] = 1 / rate
		total += weights[i]
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, e := range p.Query(s) {
			width := e.Part.End.Sub(e.Part.Begin)
			b := e.Part.Begin
			for i := 0; i < times; i++ {
				step := width.Mul(rtime.FromFloat(weights[i] / total))
				en := b.Add(step)
				if i == times-1 {
					en = e.Part.End
				}
				if b.Less(en) {
					out = append(out, Event{Whole: e.Whole, Part: rtime.NewSpan(b, en), Value: e.Value, Ctx: e.Ctx})
				}
				b = en
			}
		}
		return out
	})
}

// Segment samples p at n equal subdivisions per cycle, emitting one
// discrete event per subdivision carrying the value visible at that
// subdivision's onset.
func Segment(n int, p Pattern) Pattern {
	if n <= 0 {
		return Silence
	}
	pulse := Fast(rtime.FromInt(int64(n)), Pure(Num(1)))
	return Struct(pulse, p)
}

// Chop cuts each event (which must carry a Whole) into n consecutive
// slices of that Whole, each carrying CtxChopIndex/CtxChopCount context
// so the sample player knows which slice to play.
func Chop(n int, p Pattern) Pattern {
	if n <= 1 {
		return p
	}
	return newDiscrete(func(s rtime.Span) []Event {
		var out []Event
		for _, e := range p.Query(s) {
			if e.Whole == nil {
				out = append(out, e)
				continue
			}
			wwidth := e.Whole.End.Sub(e.Whole.Begin).Div(rtime.FromInt(int64(n)))
			for i := 0; i < n; i++ {
				wb := e.Whole.Begin.Add(wwidth.Mul(rtime.FromInt(int64(i))))
				we := e.Whole.Begin.Add(wwidth.Mul(rtime.FromInt(int64(i + 1))))
				sub := rtime.NewSpan(wb, we)
				part, ok := sub.Intersect(e.Part)
				if !ok {
					continue
				}
				ctx := e.Ctx.With(CtxChopIndex, float64(i)).With(CtxChopCount, float64(n))
				out = append(out, Event{Whole: &sub, Part: part, Value: e.Value, Ctx: ctx})
			}
		}
		return out
	})
}
