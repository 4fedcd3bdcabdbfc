package render

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonon-lang/phonon/internal/sampleio"
)

func TestToWAVRendersSine(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tone.wav")

	m, err := ToWAV("cps: 1\nout: sine 440 * 0.5\n", out, nil, Params{SampleRate: 44100, Cycles: 0.1, BlockSize: 128})
	require.NoError(t, err)
	assert.Equal(t, int64(4410), m.Frames)
	assert.InDelta(t, 1.0, m.Cps, 1e-12)

	buf, err := sampleio.DecodeFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Channels)
	require.Len(t, buf.Frames, 4410*2)

	// Spot-check the waveform against the §8 pure-tone expectation,
	// within 16-bit quantization.
	for _, i := range []int{1, 100, 1000, 4000} {
		want := 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
		assert.InDelta(t, want, float64(buf.Frames[2*i]), 2e-4, "frame %d", i)
	}
}

func TestToWAVWritesManifest(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tone.wav")

	_, err := ToWAV("out: sine 220\n", out, nil, Params{SampleRate: 44100, Cycles: 0.05})
	require.NoError(t, err)

	data, err := os.ReadFile(out + ".manifest.json")
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, jsoniter.Unmarshal(data, &m))
	assert.Equal(t, out, m.Output)
	assert.Equal(t, 44100, m.SampleRate)
	assert.NotZero(t, m.Frames)
}

func TestToWAVCompileFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.wav")
	_, err := ToWAV("out: ~missing\n", out, nil, Params{})
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file on compile failure")
}

func TestToWAVCollectsMissingSamples(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "miss.wav")
	store := sampleio.NewStore()

	m, err := ToWAV("cps: 1\nout: s(\"ghost\")\n", out, store, Params{SampleRate: 44100, Cycles: 1})
	require.NoError(t, err)
	require.NotEmpty(t, m.Diagnostics)
	assert.Equal(t, "ghost", m.Diagnostics[0].Sample)
}
