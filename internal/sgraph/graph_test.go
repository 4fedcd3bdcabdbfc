package sgraph

import (
	"testing"

	"github.com/phonon-lang/phonon/internal/dsp"
)

func TestBuildAndProcessSimpleChain(t *testing.T) {
	b := NewBuilder()
	osc := b.Add("sine", NewSine(), []Input{ConstInput(440)}, "")
	amp := b.Add("mul", NewMul(), []Input{RefInput(osc), ConstInput(0.5)}, "out")

	g, err := b.Build([]NodeId{amp}, MixDirect)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := dsp.Context{SampleRate: 48000}
	outL := make([]float32, 64)
	outR := make([]float32, 64)
	g.Process(ctx, nil, outL, outR)

	silent := true
	for _, v := range outL {
		if v != 0 {
			silent = false
		}
	}
	if silent {
		t.Fatalf("expected non-silent output from a 440Hz sine through a gain stage")
	}
}

func TestSamplePlayerCutGroupStopsOlderVoice(t *testing.T) {
	b := NewBuilder()
	id := b.Add("s", NewSamplePlayer(4), []Input{ConstInput(1)}, "")
	g, err := b.Build([]NodeId{id}, MixDirect)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	frames := make([]float32, 4410)
	for i := range frames {
		frames[i] = 1
	}
	buf := &dsp.Buffer{Frames: frames, Channels: 1, SampleRate: 44100}
	ev := TriggerEvent{Gain: 1, Speed: 1, CutGroup: 1, Buffer: buf}

	ctx := dsp.Context{SampleRate: 44100}
	outL := make([]float32, 400)
	outR := make([]float32, 400)
	g.Process(ctx, []TriggerDelivery{
		{Node: id, ScheduledTrigger: ScheduledTrigger{Offset: 0, Event: ev}},
		{Node: id, ScheduledTrigger: ScheduledTrigger{Offset: 200, Event: ev}},
	}, outL, outR)

	// While both voices overlap during the 1ms fade the level exceeds a
	// single voice; once the cut lands only the new voice remains.
	single := outL[100]
	if outL[210] <= single {
		t.Fatalf("expected overlapping voices right after the cut trigger, got %v vs single %v", outL[210], single)
	}
	if diff := outL[399] - single; diff > 1e-3 || diff < -1e-3 {
		t.Fatalf("expected exactly one voice after the cut completes, got %v vs %v", outL[399], single)
	}
}

func TestBuildRejectsDanglingReference(t *testing.T) {
	b := NewBuilder()
	b.Add("const", NewConst(1), nil, "")

	_, err := b.Build([]NodeId{NodeId(7)}, MixDirect)
	if err == nil {
		t.Fatalf("expected an error for an out-of-range output reference")
	}
	if _, ok := err.(*DanglingRefError); !ok {
		t.Fatalf("expected *DanglingRefError, got %T: %v", err, err)
	}
}

func TestBuildRejectsZeroDelayCycle(t *testing.T) {
	b := NewBuilder()
	// A self-referencing gain stage with no delay-carrying node anywhere
	// in the loop is an illegal zero-delay cycle.
	id := b.Add("mul", NewMul(), nil, "")
	b.nodes[id].inputs = []Input{RefInput(id), ConstInput(1)}

	_, err := b.Build([]NodeId{id}, MixDirect)
	if err == nil {
		t.Fatalf("expected a CycleError for a self-loop with no delay")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
}

func TestBuildAllowsCycleThroughDelayNode(t *testing.T) {
	b := NewBuilder()
	delayID := b.Add("delay", NewDelay(), nil, "")
	mixID := b.Add("add", NewAdd(), nil, "")
	b.nodes[mixID].inputs = []Input{ConstInput(0.1), RefInput(delayID)}
	b.nodes[delayID].inputs = []Input{RefInput(mixID), ConstInput(0.01), ConstInput(0.5)}

	g, err := b.Build([]NodeId{delayID}, MixDirect)
	if err != nil {
		t.Fatalf("expected a feedback loop through a delay node to be legal, got %v", err)
	}

	ctx := dsp.Context{SampleRate: 48000}
	outL := make([]float32, 32)
	outR := make([]float32, 32)
	g.Process(ctx, nil, outL, outR)
}
