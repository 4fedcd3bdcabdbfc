package binding

import (
	"github.com/phonon-lang/phonon/internal/dsp"
	"github.com/phonon-lang/phonon/internal/pattern"
	"github.com/phonon-lang/phonon/internal/rtime"
	"github.com/phonon-lang/phonon/internal/sgraph"
)

// onsetsInBlock queries Pat over the block span and returns only the
// onset-carrying fragments (HasOnset), each paired with its sample offset
// within the block. Shared by TriggerBinding and SampleBinding so the two
// differ only in how they turn an onset's Value/Ctx into a TriggerEvent.
func onsetsInBlock(c *blockContext, p Pattern, n int) []pattern.Event {
	if n == 0 || c.sr <= 0 {
		return nil
	}
	end := c.spanEnd(n)
	evs := p.Query(rtime.NewSpan(c.begin, end))
	out := evs[:0]
	for _, e := range evs {
		if e.HasOnset() {
			out = append(out, e)
		}
	}
	return out
}

func ctxOr(ctx pattern.Context, key string, def float64) float64 {
	if ctx == nil {
		return def
	}
	if v, ok := ctx[key]; ok {
		return v
	}
	return def
}

// TriggerBinding delivers one TriggerEvent per pattern onset, for synth
// voices (env_trig, pluck, and anything else implementing
// sgraph.Triggerable) that do not need a sample buffer. Gain/pan/speed
// come from the event's Context, defaulting to 1/0/1.
type TriggerBinding struct {
	blockContext
	Pat Pattern
}

func NewTriggerBinding(p Pattern) *TriggerBinding { return &TriggerBinding{Pat: p} }

// RenderTriggers implements sgraph.TriggerSource.
func (b *TriggerBinding) RenderTriggers(n int) []sgraph.ScheduledTrigger {
	evs := onsetsInBlock(&b.blockContext, b.Pat, n)
	if len(evs) == 0 {
		return nil
	}
	out := make([]sgraph.ScheduledTrigger, 0, len(evs))
	for _, e := range evs {
		offset := b.indexOf(e.Part.Begin)
		if offset < 0 || offset >= n {
			continue
		}
		out = append(out, sgraph.ScheduledTrigger{
			Offset: offset,
			Event: sgraph.TriggerEvent{
				Gain:     ctxOr(e.Ctx, pattern.CtxGain, 1),
				Pan:      ctxOr(e.Ctx, pattern.CtxPan, 0),
				Speed:    ctxOr(e.Ctx, pattern.CtxSpeed, 1),
				CutGroup: int(ctxOr(e.Ctx, pattern.CtxCutGroup, 0)),
			},
		})
	}
	return out
}

// SampleResolver looks up a loaded sample buffer by name and bank index,
// implemented by internal/sampleio's store.
type SampleResolver interface {
	Get(name string, index int) (*dsp.Buffer, bool)
}

// MissingSampleFunc is called when a sample onset names a sample the
// resolver doesn't have, so the caller can surface a SampleMissing
// diagnostic (§7) without the binding needing to know about internal/diag.
type MissingSampleFunc func(name string, index int)

// SampleBinding delivers one TriggerEvent per onset, resolving the
// event's Value (a sample name) and CtxBankIndex through a SampleResolver
// into the *dsp.Buffer a sample-player node's Trigger expects. An onset
// naming an unresolvable sample is dropped (no sound, not a crash) and
// reported through OnMissing if set.
type SampleBinding struct {
	blockContext
	Pat       Pattern
	Store     SampleResolver
	OnMissing MissingSampleFunc
}

func NewSampleBinding(p Pattern, store SampleResolver) *SampleBinding {
	return &SampleBinding{Pat: p, Store: store}
}

// RenderTriggers implements sgraph.TriggerSource.
func (b *SampleBinding) RenderTriggers(n int) []sgraph.ScheduledTrigger {
	evs := onsetsInBlock(&b.blockContext, b.Pat, n)
	if len(evs) == 0 {
		return nil
	}
	out := make([]sgraph.ScheduledTrigger, 0, len(evs))
	for _, e := range evs {
		if e.Value.Kind != pattern.KindName {
			continue
		}
		offset := b.indexOf(e.Part.Begin)
		if offset < 0 || offset >= n {
			continue
		}
		bank := int(ctxOr(e.Ctx, pattern.CtxBankIndex, 0))
		buf, ok := b.Store.Get(e.Value.Name, bank)
		if !ok {
			if b.OnMissing != nil {
				b.OnMissing(e.Value.Name, bank)
			}
			continue
		}
		out = append(out, sgraph.ScheduledTrigger{
			Offset: offset,
			Event: sgraph.TriggerEvent{
				Gain:     ctxOr(e.Ctx, pattern.CtxGain, 1),
				Pan:      ctxOr(e.Ctx, pattern.CtxPan, 0),
				Speed:    ctxOr(e.Ctx, pattern.CtxSpeed, 1),
				CutGroup: int(ctxOr(e.Ctx, pattern.CtxCutGroup, 0)),
				Buffer:   buf,
			},
		})
	}
	return out
}
