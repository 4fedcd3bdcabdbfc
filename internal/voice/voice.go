// Package voice implements the polyphonic voice manager of §4.6: a
// bounded pool of voice slots, cut-group hard-stops, and a
// prefer-free/steal-oldest-in-group/steal-quietest allocation policy.
// It sits above the per-node playback primitives in internal/dsp (which
// own the actual envelope/sample-position state) and tracks only the
// bookkeeping a trigger needs before calling into one of those: which
// slot is free, which slot is oldest in a cut group, and which is
// quietest overall. Grounded on the teacher's map-keyed live-note
// tracking in internal/midiplayer's GlobalMidiState and the per-track
// playback-state arrays in internal/model/model.go (see DESIGN.md).
package voice

import "container/heap"

// DefaultSize is the default voice pool size per §4.6.
const DefaultSize = 256

type slot struct {
	active   bool
	cutGroup int
	started  int64
}

// Manager is a bounded pool of voice slots. It is owned by exactly one
// caller — the audio thread, via the sample-player node (§5: "the voice
// pool ... belong[s] exclusively to the audio thread") — so it carries
// no lock: Allocate, Release, and SetLevel only ever touch the
// pre-sized slots slice and the index heap built over it. Allocate
// creates one small heap entry per claimed voice, and a stopped slice
// when the new voice's cut group has live siblings.
type Manager struct {
	slots   []slot
	entries []*quietEntry // entries[idx] is nil unless idx is active and tracked in quiet
	quiet   quietHeap
	clock   int64
}

// NewManager builds a pool of size voice slots, all initially free.
func NewManager(size int) *Manager {
	if size <= 0 {
		size = DefaultSize
	}
	return &Manager{
		slots:   make([]slot, size),
		entries: make([]*quietEntry, size),
		quiet:   make(quietHeap, 0, size),
	}
}

// Size returns the pool's total capacity.
func (m *Manager) Size() int { return len(m.slots) }

// Allocate claims a slot for a new voice in cutGroup (0 = no cut group).
// It returns the claimed slot index and the indices of any other slots
// that were forced to stop because they shared a non-zero cut group with
// the new voice — the caller must hard-release those voices (§4.6: force
// the envelope to its release stage with a 1 ms release to avoid
// clicks).
func (m *Manager) Allocate(cutGroup int) (idx int, stopped []int) {
	if cutGroup != 0 {
		for i := range m.slots {
			if m.slots[i].active && m.slots[i].cutGroup == cutGroup {
				stopped = append(stopped, i)
			}
		}
	}

	idx = -1
	for i := range m.slots {
		if !m.slots[i].active {
			idx = i
			break
		}
	}
	if idx < 0 && cutGroup != 0 && len(stopped) > 0 {
		idx = m.oldestInGroup(cutGroup)
	}
	if idx < 0 {
		idx = m.quietest()
	}
	if idx < 0 {
		idx = 0
	}

	m.clock++
	m.claim(idx, cutGroup)
	return idx, stopped
}

func (m *Manager) oldestInGroup(group int) int {
	best, bestAge := -1, int64(1)<<62
	for i := range m.slots {
		if m.slots[i].active && m.slots[i].cutGroup == group && m.slots[i].started < bestAge {
			best, bestAge = i, m.slots[i].started
		}
	}
	return best
}

func (m *Manager) quietest() int {
	if len(m.quiet) == 0 {
		return -1
	}
	return m.quiet[0].idx
}

func (m *Manager) claim(idx, cutGroup int) {
	m.removeFromHeap(idx)
	m.slots[idx] = slot{active: true, cutGroup: cutGroup, started: m.clock}
	e := &quietEntry{idx: idx, level: 1}
	m.entries[idx] = e
	heap.Push(&m.quiet, e)
}

func (m *Manager) removeFromHeap(idx int) {
	e := m.entries[idx]
	if e == nil {
		return
	}
	heap.Remove(&m.quiet, e.pos)
	m.entries[idx] = nil
}

// SetLevel records a voice's current envelope/amplitude level, the value
// the quietest-voice steal compares; call once per block from the node
// that owns the voice.
func (m *Manager) SetLevel(idx int, level float64) {
	if idx < 0 || idx >= len(m.slots) || !m.slots[idx].active {
		return
	}
	if e := m.entries[idx]; e != nil {
		e.level = level
		heap.Fix(&m.quiet, e.pos)
	}
}

// Release frees idx back to the pool.
func (m *Manager) Release(idx int) {
	if idx < 0 || idx >= len(m.slots) || !m.slots[idx].active {
		return
	}
	m.slots[idx].active = false
	m.removeFromHeap(idx)
}

// Active reports whether idx currently holds a live voice.
func (m *Manager) Active(idx int) bool {
	return idx >= 0 && idx < len(m.slots) && m.slots[idx].active
}

// quietEntry/quietHeap implement container/heap over voice indices
// ordered by ascending level, so the root is always the quietest active
// voice — the steal target when the pool is full and no cut-group
// sibling can be reclaimed.
type quietEntry struct {
	idx   int
	level float64
	pos   int
}

type quietHeap []*quietEntry

func (h quietHeap) Len() int           { return len(h) }
func (h quietHeap) Less(i, j int) bool { return h[i].level < h[j].level }

func (h quietHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *quietHeap) Push(x any) {
	e := x.(*quietEntry)
	e.pos = len(*h)
	*h = append(*h, e)
}

func (h *quietHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
