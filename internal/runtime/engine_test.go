package runtime

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonon-lang/phonon/internal/dsp"
)

type toneStore struct{}

func (toneStore) Get(name string, index int) (*dsp.Buffer, bool) {
	if name != "bd" {
		return nil, false
	}
	frames := make([]float32, 64)
	for i := range frames {
		frames[i] = 1
	}
	return &dsp.Buffer{Frames: frames, Channels: 1, SampleRate: 44100}, true
}

func render(t *testing.T, e *Engine, n, block int) ([]float32, []float32) {
	t.Helper()
	outL := make([]float32, n)
	outR := make([]float32, n)
	for off := 0; off < n; off += block {
		end := off + block
		if end > n {
			end = n
		}
		e.ProcessBlock(outL[off:end], outR[off:end])
	}
	return outL, outR
}

func TestPureTone(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("tempo: 0.5\nout: sine 440 * 0.5\n"))

	n := 4410
	outL, outR := render(t, e, n, 128)
	for i := 0; i < n; i++ {
		want := 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
		require.InDelta(t, want, float64(outL[i]), 1e-5, "sample %d", i)
		require.InDelta(t, want, float64(outR[i]), 1e-5, "sample %d", i)
	}
}

func TestSilenceBeforeFirstRebuild(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	outL, outR := render(t, e, 256, 64)
	for i := range outL {
		assert.Zero(t, outL[i])
		assert.Zero(t, outR[i])
	}
}

func TestRenderDeterministic(t *testing.T) {
	src := "cps: 1\nout: saw 110 # lpf 800 0.7\n"
	a := New(Options{SampleRate: 44100})
	b := New(Options{SampleRate: 44100})
	require.NoError(t, a.Rebuild(src))
	require.NoError(t, b.Rebuild(src))

	aL, _ := render(t, a, 2048, 128)
	bL, _ := render(t, b, 2048, 128)
	assert.Equal(t, aL, bL)
}

func TestBlockSizeCarriesNoMeaning(t *testing.T) {
	src := "cps: 1\nout: sine 220 * 0.3\n"
	a := New(Options{SampleRate: 44100})
	b := New(Options{SampleRate: 44100})
	require.NoError(t, a.Rebuild(src))
	require.NoError(t, b.Rebuild(src))

	aL, _ := render(t, a, 1024, 64)
	bL, _ := render(t, b, 1024, 512)
	assert.Equal(t, aL, bL)
}

func TestSampleSequenceOnsets(t *testing.T) {
	// §8 scenario 2: `s("bd ~ bd ~")` at cps=0.5 over 2 cycles places
	// voice starts at exactly 0, 1, 2, 3 seconds.
	e := New(Options{SampleRate: 44100, Samples: toneStore{}})
	require.NoError(t, e.Rebuild("cps: 0.5\nout: s(\"bd ~ bd ~\")\n"))

	n := 4 * 44100
	outL, _ := render(t, e, n, 441)
	for _, sec := range []int{0, 1, 2, 3} {
		onset := sec * 44100
		assert.NotZero(t, outL[onset], "expected voice start at %ds", sec)
		if onset > 0 {
			assert.Zero(t, outL[onset-1], "expected silence just before %ds", sec)
		}
	}
}

func TestHotSwapNoClick(t *testing.T) {
	// §8 scenario 6: swapping sine 440 for sine 660 mid-run must not
	// produce a discontinuity beyond one oscillator step.
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("out: sine 440 * 0.5\n"))

	pre, _ := render(t, e, 4410, 441)
	require.NoError(t, e.Rebuild("out: sine 660 * 0.5\n"))
	post, _ := render(t, e, 4410, 441)

	all := append(pre, post...)
	maxStep := 2 * math.Pi * 660 / 44100 * 0.5 * 1.5
	for i := 1; i < len(all); i++ {
		require.LessOrEqual(t, math.Abs(float64(all[i]-all[i-1])), maxStep, "step at sample %d", i)
		require.LessOrEqual(t, math.Abs(float64(all[i])), 1.0)
	}
}

func TestRebuildFailureKeepsOldGraph(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("out: sine 440 * 0.5\n"))
	render(t, e, 441, 441)

	require.Error(t, e.Rebuild("out: ~nonexistent\n"))
	outL, _ := render(t, e, 441, 441)
	var peak float64
	for _, v := range outL {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	assert.Greater(t, peak, 0.1, "previous graph should keep sounding after a failed rebuild")
}

func TestStagedSwapSuperseded(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("out: sine 440\n"))
	require.NoError(t, e.Rebuild("out: sine 550\n"))
	require.NoError(t, e.Rebuild("out: sine 660 * 0\n"))

	// Only the last staged generation becomes active.
	outL, _ := render(t, e, 441, 441)
	for _, v := range outL {
		assert.Zero(t, v)
	}
}

func TestExternRouting(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("out: ~midi_gate\n"))

	outL, _ := render(t, e, 64, 64)
	assert.Zero(t, outL[0], "gate low before any note")

	e.ring.push(ExtEvent{Kind: NoteOn, Channel: 0, Pitch: 60, Vel: 100})
	outL, _ = render(t, e, 64, 64)
	assert.Equal(t, float32(1), outL[0], "gate high while note held")

	e.ring.push(ExtEvent{Kind: NoteOff, Channel: 0, Pitch: 60})
	outL, _ = render(t, e, 64, 64)
	assert.Zero(t, outL[0], "gate low after note off")
}

func TestExternPitchAndCC(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("out: ~midi_pitch + ~cc7\n"))

	e.ring.push(ExtEvent{Kind: NoteOn, Channel: 2, Pitch: 69, Vel: 90})
	e.ring.push(ExtEvent{Kind: CC, CC: 7, Val: 0.5})
	outL, _ := render(t, e, 16, 16)
	assert.InDelta(t, 440.5, float64(outL[0]), 1e-3)
}

func TestEventRingOrderAndOverflow(t *testing.T) {
	r := newEventRing(4)
	for i := 0; i < 6; i++ {
		r.push(ExtEvent{Pitch: uint8(i)})
	}
	var got []uint8
	r.drain(func(ev ExtEvent) { got = append(got, ev.Pitch) })
	assert.Equal(t, []uint8{0, 1, 2, 3}, got, "overflow drops, never overwrites")

	r.push(ExtEvent{Pitch: 9})
	got = nil
	r.drain(func(ev ExtEvent) { got = append(got, ev.Pitch) })
	assert.Equal(t, []uint8{9}, got)
}

func TestPostFunnel(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	e.Post(ExtEvent{Kind: CC, CC: 1, Val: 0.25})
	assert.Eventually(t, func() bool {
		var seen bool
		e.ring.drain(func(ev ExtEvent) { seen = ev.Kind == CC && ev.Val == 0.25 })
		return seen
	}, time.Second, 5*time.Millisecond)
}

func TestParseExternRoutes(t *testing.T) {
	e := New(Options{SampleRate: 44100})
	require.NoError(t, e.Rebuild("out: ~midi3_pitch + ~cc74 + ~bend + ~midi\n"))
	gen := e.staged.Load()
	require.NotNil(t, gen)
	assert.Len(t, gen.routes, 4)
}

func TestWatchFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.ph")
	require.NoError(t, os.WriteFile(path, []byte("out: sine 440\n"), 0o644))

	texts := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, path, 10*time.Millisecond, func(text string) { texts <- text })

	select {
	case got := <-texts:
		assert.Contains(t, got, "440")
	case <-time.After(time.Second):
		t.Fatal("no initial watch callback")
	}

	require.NoError(t, os.WriteFile(path, []byte("out: sine 660\n"), 0o644))
	select {
	case got := <-texts:
		assert.Contains(t, got, "660")
	case <-time.After(time.Second):
		t.Fatal("no callback after edit")
	}
}
