package dsp

// lcgNext advances a simple linear congruential generator, the same
// family of generator the teacher's oscillator noise branch uses for
// deterministic pseudo-randomness without an external RNG dependency.
func lcgNext(state uint32) uint32 { return state*1103515245 + 12345 }

// White is a white-noise generator.
type White struct{ state uint32 }

func (n *White) Process(ctx Context) (l, r float64) {
	if n.state == 0 {
		n.state = 1
	}
	n.state = lcgNext(n.state)
	v := float64(int32(n.state)) / 2147483648.0
	return v, v
}

// Pink generates pink noise via the Voss-McCartney algorithm: several
// white-noise generators updated at geometrically decreasing rates and
// summed.
type Pink struct {
	white  [16]float64
	state  uint32
	counter uint64
	inited bool
}

func (n *Pink) Process(ctx Context) (l, r float64) {
	if n.state == 0 {
		n.state = 7
	}
	if !n.inited {
		for i := range n.white {
			n.state = lcgNext(n.state)
			n.white[i] = float64(int32(n.state)) / 2147483648.0
		}
		n.inited = true
	}
	n.counter++
	c := n.counter
	for i := range n.white {
		if c&(1<<uint(i)) != 0 {
			n.state = lcgNext(n.state)
			n.white[i] = float64(int32(n.state)) / 2147483648.0
			break
		}
	}
	sum := 0.0
	for _, w := range n.white {
		sum += w
	}
	v := sum / float64(len(n.white))
	return v, v
}

// Brown integrates white noise and leaks it back toward zero to avoid
// unbounded random-walk drift.
type Brown struct {
	state uint32
	accum float64
}

func (n *Brown) Process(ctx Context) (l, r float64) {
	if n.state == 0 {
		n.state = 13
	}
	n.state = lcgNext(n.state)
	white := float64(int32(n.state)) / 2147483648.0
	n.accum = n.accum*0.998 + white*0.02
	if n.accum > 1 {
		n.accum = 1
	}
	if n.accum < -1 {
		n.accum = -1
	}
	return n.accum, n.accum
}

// Impulse emits a single-sample unit impulse at the given rate (Hz).
type Impulse struct {
	phase float64
}

func (n *Impulse) Process(ctx Context, rate float64) (l, r float64) {
	if rate <= 0 {
		return 0, 0
	}
	n.phase += phaseInc(ctx, rate)
	v := 0.0
	if n.phase >= 1 {
		n.phase = wrapPhase(n.phase)
		v = 1
	}
	return v, v
}
