package diag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonon-lang/phonon/internal/compiler"
)

func TestFromErrorClassifies(t *testing.T) {
	d := FromError(&compiler.ParseError{Line: 3, Col: 7, Message: "expected ')'"})
	assert.Equal(t, KindParse, d.Kind)
	assert.Equal(t, 3, d.Line)
	assert.Equal(t, 7, d.Col)

	d = FromError(&compiler.NameError{Line: 2, Name: "nope", Kind: "bus"})
	assert.Equal(t, KindName, d.Kind)

	d = FromError(&compiler.ArityError{Line: 1, Fn: "lpf", Want: 3, Got: 4})
	assert.Equal(t, KindArity, d.Kind)

	d = FromError(assert.AnError)
	assert.Equal(t, KindInternal, d.Kind)
}

func TestCompileErrorFlowsThrough(t *testing.T) {
	_, err := compiler.Compile("out: ~nope\n", compiler.Options{})
	require.Error(t, err)
	d := FromError(err)
	assert.Equal(t, KindName, d.Kind)
}

func TestCollectorDedupsSampleMissing(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 5; i++ {
		c.SampleMissing("bd", 0)
	}
	c.SampleMissing("bd", 1)

	out := c.Drain()
	require.Len(t, out, 2)
	assert.Equal(t, "bd", out[0].Sample)
	assert.Equal(t, 0, out[0].Index)
	assert.Equal(t, 1, out[1].Index)

	// Later repeats of an already-seen miss stay suppressed.
	c.SampleMissing("bd", 0)
	assert.Empty(t, c.Drain())
}

func TestCollectorOverrunAndHistory(t *testing.T) {
	c := NewCollector()
	c.BufferOverrun(4*time.Millisecond, 3*time.Millisecond)
	out := c.Drain()
	require.Len(t, out, 1)
	assert.Equal(t, KindBufferOverrun, out[0].Kind)
	assert.InDelta(t, 4, out[0].Elapsed, 1e-9)

	assert.Len(t, c.History(), 1)
}

func TestReportNeverBlocks(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 1000; i++ {
		c.Report(Diagnostic{Kind: KindBufferOverrun})
	}
	// The channel is bounded; the excess is dropped, not queued.
	assert.LessOrEqual(t, len(c.Drain()), 64)
}

func TestDiagnosticJSON(t *testing.T) {
	d := Diagnostic{Kind: KindSampleMissing, Sample: "bd", Index: 2}
	b, err := d.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sample-missing"`)
	assert.Contains(t, string(b), `"bd"`)
}
