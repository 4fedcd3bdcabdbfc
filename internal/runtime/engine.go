// Package runtime drives the signal graph at the audio callback rate
// (§4.9): it owns the rational cycle clock, queries every pattern
// binding once per block, evaluates the graph, swaps rebuilt graphs in
// atomically at buffer boundaries, and routes external MIDI/OSC events
// onto extern control buses. The audio-thread entry points (ProcessBlock
// and everything it calls) take no locks and allocate only inside the
// pattern queries themselves, per §5.
package runtime

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/phonon-lang/phonon/internal/binding"
	"github.com/phonon-lang/phonon/internal/compiler"
	"github.com/phonon-lang/phonon/internal/diag"
	"github.com/phonon-lang/phonon/internal/dsp"
	"github.com/phonon-lang/phonon/internal/rtime"
	"github.com/phonon-lang/phonon/internal/sgraph"
)

// Options configures an Engine.
type Options struct {
	SampleRate float64
	Samples    binding.SampleResolver
	Diags      *diag.Collector
}

// generation is one compiled graph plus everything derived from it that
// the audio thread needs without recomputation: the exact per-sample
// cycle step and the parsed extern routes.
type generation struct {
	comp   *compiler.Compiled
	step   rtime.Time
	routes []externRoute
}

// Engine is the live scheduler. One Engine serves one audio stream; the
// compile thread feeds it via Rebuild, collaborators feed it via Post,
// the driver calls ProcessBlock.
type Engine struct {
	sampleRate float64
	diags      *diag.Collector
	samples    binding.SampleResolver

	active atomic.Pointer[generation]
	staged atomic.Pointer[generation]

	ring  *eventRing
	inbox chan ExtEvent

	// Audio-thread-owned state.
	midi        midiState
	clock       rtime.Time
	trigScratch []sgraph.TriggerDelivery
	outL, outR  []float32

	samplePos atomic.Int64
	peakL     atomic.Uint64
	peakR     atomic.Uint64
}

// New builds an Engine; the first graph arrives via Rebuild.
func New(opts Options) *Engine {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.Diags == nil {
		opts.Diags = diag.NewCollector()
	}
	return &Engine{
		sampleRate: opts.SampleRate,
		diags:      opts.Diags,
		samples:    opts.Samples,
		ring:       newEventRing(1024),
		inbox:      make(chan ExtEvent, 256),
		clock:      rtime.Zero,
	}
}

// SampleRate returns the rate the engine was opened at.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Diags exposes the diagnostics collector shared with collaborators.
func (e *Engine) Diags() *diag.Collector { return e.diags }

// SamplePos returns the number of samples rendered so far, safe from any
// thread.
func (e *Engine) SamplePos() int64 { return e.samplePos.Load() }

// Peaks returns the most recent block's absolute stereo peaks, the
// level-meter feed for the live view.
func (e *Engine) Peaks() (l, r float64) {
	return math.Float64frombits(e.peakL.Load()), math.Float64frombits(e.peakR.Load())
}

// Cps returns the active generation's transport rate, 0 before the
// first successful Rebuild.
func (e *Engine) Cps() float64 {
	if gen := e.active.Load(); gen != nil {
		return gen.comp.Cps
	}
	return 0
}

// Rebuild compiles src and stages the result for the next callback
// boundary. On failure the previous graph keeps running and the error is
// returned for the editor surface (§7); a staged-but-not-yet-swapped
// generation is superseded wholesale.
func (e *Engine) Rebuild(src string) error {
	comp, err := compiler.Compile(src, compiler.Options{
		Samples:         e.samples,
		OnMissingSample: e.diags.SampleMissing,
	})
	if err != nil {
		log.Error("rebuild failed", "component", "runtime", "err", err)
		return err
	}
	gen := &generation{
		comp:   comp,
		step:   rtime.FromFloat(comp.Cps).Div(rtime.FromFloat(e.sampleRate)),
		routes: parseExternRoutes(comp.Externs),
	}
	e.staged.Store(gen)
	log.Info("graph staged", "component", "runtime", "nodes", comp.Graph.Len(), "cps", comp.Cps)
	return nil
}

// Post delivers one external event toward the audio thread. Safe from
// any goroutine; events are dropped, never blocked on, when the funnel
// is saturated.
func (e *Engine) Post(ev ExtEvent) {
	select {
	case e.inbox <- ev:
	default:
	}
}

// Start runs the mpsc→spsc funnel (§5: multiple producers serialize
// through an intermediate queue serviced by the control thread) until
// ctx is done.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-e.inbox:
				e.ring.push(ev)
			}
		}
	}()
}

// ProcessBlock renders n stereo frames into outL/outR. This is the audio
// callback body: swap check, event drain, binding repositioning, graph
// evaluation, clock advance, overrun check — in that order.
func (e *Engine) ProcessBlock(outL, outR []float32) {
	start := time.Now()
	n := len(outL)

	if s := e.staged.Swap(nil); s != nil {
		if old := e.active.Load(); old != nil {
			s.comp.Graph.AdoptState(old.comp.Graph)
		}
		e.active.Store(s)
	}
	gen := e.active.Load()
	if gen == nil || n == 0 {
		for i := 0; i < n; i++ {
			outL[i], outR[i] = 0, 0
		}
		return
	}

	e.ring.drain(e.midi.apply)
	for _, rt := range gen.routes {
		rt.ex.Set(rt.value(&e.midi))
	}

	comp := gen.comp
	for _, c := range comp.Controls {
		c.SetBlock(e.clock, comp.Cps, e.sampleRate)
	}
	deliveries := e.trigScratch[:0]
	for _, tr := range comp.Triggers {
		tr.Source.SetBlock(e.clock, comp.Cps, e.sampleRate)
		for _, st := range tr.Source.RenderTriggers(n) {
			deliveries = append(deliveries, sgraph.TriggerDelivery{Node: tr.Node, ScheduledTrigger: st})
		}
	}
	e.trigScratch = deliveries

	comp.Graph.Process(dsp.Context{SampleRate: e.sampleRate}, deliveries, outL, outR)

	e.clock = e.clock.Add(gen.step.Mul(rtime.FromInt(int64(n))))
	e.samplePos.Add(int64(n))

	var pl, pr float32
	for i := 0; i < n; i++ {
		if v := outL[i]; v > pl {
			pl = v
		} else if -v > pl {
			pl = -v
		}
		if v := outR[i]; v > pr {
			pr = v
		} else if -v > pr {
			pr = -v
		}
	}
	e.peakL.Store(math.Float64bits(float64(pl)))
	e.peakR.Store(math.Float64bits(float64(pr)))

	budget := time.Duration(float64(n) / e.sampleRate * float64(time.Second))
	if elapsed := time.Since(start); elapsed > budget {
		e.diags.BufferOverrun(elapsed, budget)
	}
}

// ProcessInterleaved renders into an interleaved LRLR buffer (§6's audio
// output shape), used by the offline render path and drivers that hand
// out a single slice.
func (e *Engine) ProcessInterleaved(buf []float32) {
	n := len(buf) / 2
	if cap(e.outL) < n {
		e.outL = make([]float32, n)
		e.outR = make([]float32, n)
	}
	outL, outR := e.outL[:n], e.outR[:n]
	e.ProcessBlock(outL, outR)
	for i := 0; i < n; i++ {
		buf[2*i] = outL[i]
		buf[2*i+1] = outR[i]
	}
}

// externRoute connects one extern bus to the midiState field it reads.
type externRoute struct {
	ex   *sgraph.Extern
	kind externKind
	ch   int // 0-based channel, -1 for any
	cc   int
}

type externKind int

const (
	externGate externKind = iota
	externPitch
	externVel
	externCC
	externBend
)

func (rt externRoute) value(m *midiState) float64 {
	switch rt.kind {
	case externGate:
		if rt.ch < 0 {
			return gateValue(m.anyCount)
		}
		return gateValue(m.count[rt.ch])
	case externPitch:
		if rt.ch < 0 {
			return noteHz(m.lastAny)
		}
		return noteHz(m.lastNote[rt.ch])
	case externVel:
		if rt.ch < 0 {
			return float64(m.lastAnyV) / 127
		}
		return float64(m.lastVel[rt.ch]) / 127
	case externCC:
		return m.cc[rt.cc&0x7f]
	case externBend:
		return m.bend
	}
	return 0
}

// parseExternRoutes resolves the extern bus names the compiler admitted
// (`midi`, `midi7_pitch`, `cc74`, `bend`, …) into routes. Runs on the
// compile thread, once per generation.
func parseExternRoutes(externs map[string]*sgraph.Extern) []externRoute {
	var routes []externRoute
	for name, ex := range externs {
		rt := externRoute{ex: ex, ch: -1}
		switch {
		case name == "bend":
			rt.kind = externBend
		case strings.HasPrefix(name, "cc"):
			num, err := strconv.Atoi(name[2:])
			if err != nil {
				continue
			}
			rt.kind = externCC
			rt.cc = num
		case strings.HasPrefix(name, "midi"):
			rest := name[4:]
			rt.kind = externGate
			for suffix, k := range map[string]externKind{"_gate": externGate, "_pitch": externPitch, "_vel": externVel} {
				if strings.HasSuffix(rest, suffix) {
					rt.kind = k
					rest = strings.TrimSuffix(rest, suffix)
				}
			}
			if rest != "" {
				num, err := strconv.Atoi(rest)
				if err != nil || num < 1 || num > 16 {
					continue
				}
				rt.ch = num - 1
			}
		default:
			continue
		}
		routes = append(routes, rt)
	}
	return routes
}
