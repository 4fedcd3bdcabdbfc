// Package diag is the error taxonomy and diagnostics channel of §7:
// typed compile-time errors surface to the editor with source positions,
// runtime conditions (a missing sample, a blown buffer budget) flow
// through a non-blocking channel the control thread drains, and
// everything serializes to JSON for the render manifest and the `edit`
// CLI verb.
package diag

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/phonon-lang/phonon/internal/compiler"
	"github.com/phonon-lang/phonon/internal/mini"
	"github.com/phonon-lang/phonon/internal/sgraph"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind labels one diagnostic with its §7 taxonomy entry.
type Kind string

const (
	KindParse         Kind = "parse"
	KindName          Kind = "name"
	KindCycle         Kind = "cycle"
	KindArity         Kind = "arity"
	KindSampleMissing Kind = "sample-missing"
	KindBufferOverrun Kind = "buffer-overrun"
	KindInternal      Kind = "internal"
)

// Diagnostic is one reportable condition. Compile-time kinds carry a
// source line; the runtime kinds carry the offending sample name or the
// overrun timing instead.
type Diagnostic struct {
	Kind    Kind    `json:"kind"`
	Message string  `json:"message"`
	Line    int     `json:"line,omitempty"`
	Col     int     `json:"col,omitempty"`
	Sample  string  `json:"sample,omitempty"`
	Index   int     `json:"index,omitempty"`
	Elapsed float64 `json:"elapsedMs,omitempty"`
	Budget  float64 `json:"budgetMs,omitempty"`
	At      string  `json:"at,omitempty"`
}

// JSON renders d for the manifest/editor surface.
func (d Diagnostic) JSON() ([]byte, error) { return json.Marshal(d) }

// FromError classifies a rebuild error into its taxonomy entry; unknown
// error types become KindInternal rather than being dropped.
func FromError(err error) Diagnostic {
	var pe *compiler.ParseError
	if errors.As(err, &pe) {
		return Diagnostic{Kind: KindParse, Message: pe.Message, Line: pe.Line, Col: pe.Col}
	}
	var mpe *mini.ParseError
	if errors.As(err, &mpe) {
		return Diagnostic{Kind: KindParse, Message: mpe.Error()}
	}
	var ne *compiler.NameError
	if errors.As(err, &ne) {
		return Diagnostic{Kind: KindName, Message: ne.Error(), Line: ne.Line}
	}
	var ae *compiler.ArityError
	if errors.As(err, &ae) {
		return Diagnostic{Kind: KindArity, Message: ae.Error(), Line: ae.Line}
	}
	var ce *sgraph.CycleError
	if errors.As(err, &ce) {
		return Diagnostic{Kind: KindCycle, Message: ce.Error()}
	}
	return Diagnostic{Kind: KindInternal, Message: err.Error()}
}

// Collector funnels runtime diagnostics from the audio thread to the
// control thread. Report is wait-free (a non-blocking send on a buffered
// channel: a full channel drops the diagnostic, never stalls audio);
// dedup of repeated SampleMissing reports happens on the consumer side
// so the audio thread carries no map or lock.
type Collector struct {
	ch chan Diagnostic

	mu   sync.Mutex
	seen map[string]bool
	all  []Diagnostic
}

// NewCollector sizes the internal channel; 64 comfortably outlives any
// realistic burst between control-thread drains.
func NewCollector() *Collector {
	return &Collector{ch: make(chan Diagnostic, 64), seen: make(map[string]bool)}
}

// Report enqueues d without blocking. Safe to call from the audio thread.
func (c *Collector) Report(d Diagnostic) {
	select {
	case c.ch <- d:
	default:
	}
}

// SampleMissing reports a sample the store could not resolve, in the
// shape binding.MissingSampleFunc expects.
func (c *Collector) SampleMissing(name string, index int) {
	c.Report(Diagnostic{Kind: KindSampleMissing, Sample: name, Index: index})
}

// BufferOverrun reports a callback that exceeded its real-time budget.
func (c *Collector) BufferOverrun(elapsed, budget time.Duration) {
	c.Report(Diagnostic{
		Kind:    KindBufferOverrun,
		Elapsed: float64(elapsed) / float64(time.Millisecond),
		Budget:  float64(budget) / float64(time.Millisecond),
	})
}

// Drain consumes every queued diagnostic, deduplicating SampleMissing
// per (name, index) so a looping pattern logs each miss once (§7), and
// returns the fresh ones. Called from the control thread.
func (c *Collector) Drain() []Diagnostic {
	var out []Diagnostic
	for {
		select {
		case d := <-c.ch:
			if d.Kind == KindSampleMissing {
				key := fmt.Sprintf("%s:%d", d.Sample, d.Index)
				c.mu.Lock()
				dup := c.seen[key]
				c.seen[key] = true
				c.mu.Unlock()
				if dup {
					continue
				}
				d.Message = fmt.Sprintf("sample %q (index %d) not in store; voice silenced", d.Sample, d.Index)
			}
			c.mu.Lock()
			c.all = append(c.all, d)
			c.mu.Unlock()
			out = append(out, d)
		default:
			return out
		}
	}
}

// History returns every diagnostic drained so far, for the render
// manifest.
func (c *Collector) History() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.all))
	copy(out, c.all)
	return out
}
