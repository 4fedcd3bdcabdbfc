package sampleio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonon-lang/phonon/internal/dsp"
)

func writeWav(t *testing.T, path string, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestLoadDirFlatAndBanked(t *testing.T) {
	dir := t.TempDir()
	writeWav(t, filepath.Join(dir, "kick.wav"), []int{16384, -16384})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bd"), 0o755))
	writeWav(t, filepath.Join(dir, "bd", "a.wav"), []int{100})
	writeWav(t, filepath.Join(dir, "bd", "b.wav"), []int{200})

	s, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"bd", "kick"}, s.Names())

	buf, ok := s.Get("kick", 0)
	require.True(t, ok)
	assert.Equal(t, 1, buf.Channels)
	assert.InDelta(t, 44100.0, buf.SampleRate, 1e-9)
	require.Len(t, buf.Frames, 2)
	assert.InDelta(t, 0.5, float64(buf.Frames[0]), 1e-4)
	assert.InDelta(t, -0.5, float64(buf.Frames[1]), 1e-4)
}

func TestGetIndexWraps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bd"), 0o755))
	writeWav(t, filepath.Join(dir, "bd", "a.wav"), []int{100})
	writeWav(t, filepath.Join(dir, "bd", "b.wav"), []int{200})

	s, err := LoadDir(dir)
	require.NoError(t, err)

	first, ok := s.Get("bd", 0)
	require.True(t, ok)
	wrapped, ok := s.Get("bd", 2)
	require.True(t, ok)
	assert.Same(t, first, wrapped)

	second, ok := s.Get("bd", 1)
	require.True(t, ok)
	assert.NotSame(t, first, second)
}

func TestGetMissing(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("nope", 0)
	assert.False(t, ok)
}

func TestAddDirect(t *testing.T) {
	s := NewStore()
	buf := &dsp.Buffer{Frames: []float32{1}, Channels: 1, SampleRate: 48000}
	s.Add("synth", buf)
	got, ok := s.Get("synth", 5)
	require.True(t, ok)
	assert.Same(t, buf, got)
}

func TestLoadDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.wav"), []byte("not a wav"), 0o644))
	writeWav(t, filepath.Join(dir, "ok.wav"), []int{1})

	s, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, s.Names())
}
