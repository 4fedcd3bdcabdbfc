package sgraph

import "github.com/phonon-lang/phonon/internal/dsp"

type nodeEntry struct {
	node   Node
	kind   string
	inputs []Input
}

// Graph is the indexed arena the compiler builds and the runtime
// evaluates one sample at a time. Nodes live in a flat slice; edges are
// NodeId values inside each node's Input list, never pointers, so a
// Graph can be swapped wholesale under an atomic pointer (§5).
type Graph struct {
	nodes    []nodeEntry
	outputs  []NodeId // terms summed for the stereo master (`out`, `o1`, `o2`, …)
	buses    map[string]NodeId
	mix      MixPolicy
	order    []NodeId
	feedback []bool // feedback[id] true iff node id's Refs should read the *previous* sample

	curL, curR   []float64
	prevL, prevR []float64
	scratch      []float64 // reused per-sample input-resolution buffer
}

// Bus returns the node id a named bus resolves to, and whether it exists.
func (g *Graph) Bus(name string) (NodeId, bool) {
	id, ok := g.buses[name]
	return id, ok
}

// Builder accumulates nodes and validates references before Build
// freezes them into a Graph, the same validate-before-install discipline
// the teacher's storage layer uses for save files (see DESIGN.md).
type Builder struct {
	nodes []nodeEntry
	buses map[string]NodeId
}

// NewBuilder starts an empty graph under construction.
func NewBuilder() *Builder {
	return &Builder{buses: make(map[string]NodeId)}
}

// Add appends a node with its resolved inputs, optionally naming it as a
// bus other nodes (or later statements) can reference by name.
func (b *Builder) Add(kind string, node Node, inputs []Input, busName string) NodeId {
	id := NodeId(len(b.nodes))
	b.nodes = append(b.nodes, nodeEntry{node: node, kind: kind, inputs: inputs})
	if busName != "" {
		b.buses[busName] = id
	}
	return id
}

// Bus looks up a previously-added bus by name.
func (b *Builder) Bus(name string) (NodeId, bool) {
	id, ok := b.buses[name]
	return id, ok
}

// SetInputs replaces id's input list. The compiler pre-adds an alias node
// for every declared bus before compiling any expression (so forward and
// cyclic references resolve) and patches the alias's input here once the
// bus body has been built.
func (b *Builder) SetInputs(id NodeId, inputs []Input) {
	b.nodes[id].inputs = inputs
}

// Build validates all references, runs the Tarjan delay-in-cycle check,
// computes a per-sample evaluation order, and freezes the result.
func (b *Builder) Build(outputs []NodeId, mix MixPolicy) (*Graph, error) {
	n := len(b.nodes)
	adj := make([][]NodeId, n)
	for u, ne := range b.nodes {
		for _, in := range ne.inputs {
			if in.Kind != InputRef {
				continue
			}
			if int(in.Ref) < 0 || int(in.Ref) >= n {
				return nil, &DanglingRefError{From: NodeId(u), To: in.Ref}
			}
			adj[u] = append(adj[u], in.Ref)
		}
	}
	for _, id := range outputs {
		if int(id) < 0 || int(id) >= n {
			return nil, &DanglingRefError{From: -1, To: id}
		}
	}

	comps := tarjan(n, adj)

	inFeedbackSCC := make([]bool, n)
	sccOf := make([]int, n)
	for ci, comp := range comps {
		isCycle := len(comp) > 1
		if len(comp) == 1 {
			v := comp[0]
			for _, w := range adj[v] {
				if w == v {
					isCycle = true
				}
			}
		}
		if isCycle {
			hasDelay := false
			kinds := make([]string, len(comp))
			for i, v := range comp {
				kinds[i] = b.nodes[v].kind
				if dn, ok := b.nodes[v].node.(DelayNode); ok && dn.HasDelay() {
					hasDelay = true
				}
			}
			if !hasDelay {
				return nil, &CycleError{Members: comp, Kinds: kinds}
			}
			for _, v := range comp {
				inFeedbackSCC[v] = true
			}
		}
		for _, v := range comp {
			sccOf[v] = ci
		}
	}

	// Tarjan's post-order finishes a component only after every component
	// it depends on, so comps is already in dependency-first order, which
	// is what per-sample evaluation needs for current-sample reads to be
	// available when a downstream node asks for them.
	order := make([]NodeId, 0, n)
	for _, comp := range comps {
		order = append(order, comp...)
	}

	feedback := make([]bool, n)
	for u, ne := range b.nodes {
		for _, in := range ne.inputs {
			if in.Kind == InputRef && sccOf[in.Ref] == sccOf[u] && inFeedbackSCC[u] {
				feedback[u] = true
			}
		}
	}

	g := &Graph{
		nodes:   b.nodes,
		outputs: outputs,
		buses:   b.buses,
		mix:     mix,
		order:   order,
		curL:    make([]float64, n),
		curR:    make([]float64, n),
		prevL:   make([]float64, n),
		prevR:   make([]float64, n),
	}
	g.feedback = feedback
	return g, nil
}

// TriggerDelivery pairs a ScheduledTrigger with the node it targets, the
// shape the runtime assembles once per block from every trigger/sample
// binding in the pattern table before calling Process.
type TriggerDelivery struct {
	Node NodeId
	ScheduledTrigger
}

// Process advances the graph by n samples, writing stereo output into
// outL/outR (must be pre-sized to the block length) and delivering any
// scheduled triggers at their exact sample offset before the targeted
// node is evaluated that sample. Block size carries no semantic meaning:
// the result is identical to n calls with a block size of 1, per §4.5.
func (g *Graph) Process(ctx dsp.Context, triggers []TriggerDelivery, outL, outR []float32) {
	n := len(outL)
	if cap(g.scratch) < maxPorts {
		g.scratch = make([]float64, maxPorts)
	}
	var buckets map[int][]TriggerDelivery
	if len(triggers) > 0 {
		buckets = make(map[int][]TriggerDelivery, len(triggers))
		for _, d := range triggers {
			if d.Offset < 0 || d.Offset >= n {
				continue
			}
			buckets[d.Offset] = append(buckets[d.Offset], d)
		}
	}

	// Every bound input is rendered exactly once per block, not once per
	// sample: a binding may back several inputs (the same LFO feeding two
	// parameters), so the cache is keyed by the BoundSource value itself.
	bound := make(map[BoundSource][]float64)
	for _, ne := range g.nodes {
		for _, in := range ne.inputs {
			if in.Kind != InputBound {
				continue
			}
			if _, ok := bound[in.Bound]; !ok {
				bound[in.Bound] = in.Bound.RenderBlock(n)
			}
		}
	}

	for i := 0; i < n; i++ {
		for _, d := range buckets[i] {
			g.DeliverTrigger(d.Node, d.Event)
		}
		for _, id := range g.order {
			ne := &g.nodes[id]
			// A bus alias copies its referent through in stereo rather
			// than going through the mono-summed scratch resolution.
			if ne.kind == "bus" && len(ne.inputs) == 1 && ne.inputs[0].Kind == InputRef {
				ref := ne.inputs[0].Ref
				if g.feedback[id] {
					g.curL[id], g.curR[id] = g.prevL[ref], g.prevR[ref]
				} else {
					g.curL[id], g.curR[id] = g.curL[ref], g.curR[ref]
				}
				continue
			}
			ins := g.scratch[:len(ne.inputs)]
			for j, in := range ne.inputs {
				switch in.Kind {
				case InputConst:
					ins[j] = in.Const
				case InputRef:
					if g.feedback[id] {
						ins[j] = (g.prevL[in.Ref] + g.prevR[in.Ref]) / 2
					} else {
						ins[j] = (g.curL[in.Ref] + g.curR[in.Ref]) / 2
					}
				case InputBound:
					if vs := bound[in.Bound]; i < len(vs) {
						ins[j] = vs[i]
					}
				}
			}
			l, r := ne.node.Eval(ctx, ins)
			g.curL[id], g.curR[id] = l, r
		}

		var sumL, sumR float64
		for _, id := range g.outputs {
			sumL += g.curL[id]
			sumR += g.curR[id]
		}
		outL[i] = float32(g.mix.Apply(sumL, len(g.outputs)))
		outR[i] = float32(g.mix.Apply(sumR, len(g.outputs)))

		copy(g.prevL, g.curL)
		copy(g.prevR, g.curR)
	}
}

// maxPorts bounds the widest node's input list (parametric_eq at 10);
// the scratch buffer is sized once and reused every sample so the audio
// thread performs no per-sample allocation.
const maxPorts = 16

// DeliverTrigger routes one scheduled trigger to a Triggerable node,
// called by Process at the exact sample offset the binding computed.
func (g *Graph) DeliverTrigger(id NodeId, ev TriggerEvent) {
	if t, ok := g.nodes[id].node.(Triggerable); ok {
		t.Trigger(ev)
	}
}

// AdoptState carries node state across a hot-swap: wherever this graph
// and old agree on identity, the old node instance (with its phase,
// delay lines, envelope position, sample-player voices) replaces the
// freshly-constructed one. Identity is a shared bus name with the same
// node kind, or failing that the same kind at the same arena index —
// the latter is what keeps a `sine 440` → `sine 660` edit click-free,
// since the oscillator's phase accumulator survives the swap. Inputs
// stay with the graph entry, so the adopted node reads the new wiring.
func (g *Graph) AdoptState(old *Graph) {
	if old == nil {
		return
	}
	// Positional first, bus-name second so a named match wins; both
	// passes are allocation-free since this runs on the audio thread at
	// the swap boundary.
	n := len(g.nodes)
	if len(old.nodes) < n {
		n = len(old.nodes)
	}
	for i := 0; i < n; i++ {
		if old.nodes[i].kind == g.nodes[i].kind {
			g.nodes[i].node = old.nodes[i].node
		}
	}
	for name, id := range g.buses {
		oldID, ok := old.buses[name]
		if !ok || old.nodes[oldID].kind != g.nodes[id].kind {
			continue
		}
		g.nodes[id].node = old.nodes[oldID].node
	}
	copy(g.prevL, old.prevL)
	copy(g.prevR, old.prevR)
}

// Node returns the underlying Node for id, used by the runtime to carry
// voice-manager state across a hot-swap when the new graph declares the
// same bus name and node kind.
func (g *Graph) Node(id NodeId) Node { return g.nodes[id].node }

// Kind returns the node kind string id was constructed with.
func (g *Graph) Kind(id NodeId) string { return g.nodes[id].kind }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }
