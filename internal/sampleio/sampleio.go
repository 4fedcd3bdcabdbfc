// Package sampleio is the decoded sample store the spec treats as an
// external collaborator (§6): WAV files decode once at startup into
// immutable float buffers, and the audio thread resolves (name, index)
// lookups against the finished map without locks. There is no
// hot-reload; a store, once built, never changes.
package sampleio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"

	"github.com/phonon-lang/phonon/internal/dsp"
)

// Store maps sample names to banks of decoded buffers. The `:i` suffix
// in mini-notation selects within a bank; indexes wrap modulo the bank
// size so patterns can cycle through variations without arithmetic.
type Store struct {
	banks map[string][]*dsp.Buffer
}

// NewStore returns an empty store, useful for tests and for engines that
// only synthesize.
func NewStore() *Store {
	return &Store{banks: make(map[string][]*dsp.Buffer)}
}

// Add appends buf to name's bank.
func (s *Store) Add(name string, buf *dsp.Buffer) {
	s.banks[name] = append(s.banks[name], buf)
}

// Get implements binding.SampleResolver.
func (s *Store) Get(name string, index int) (*dsp.Buffer, bool) {
	bank := s.banks[name]
	if len(bank) == 0 {
		return nil, false
	}
	if index < 0 {
		index = 0
	}
	return bank[index%len(bank)], true
}

// Names returns the loaded sample names, sorted.
func (s *Store) Names() []string {
	out := make([]string, 0, len(s.banks))
	for name := range s.banks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadDir walks dir and decodes every WAV it finds: `dir/kick.wav`
// becomes bank "kick" with one entry, `dir/bd/a.wav b.wav …` becomes
// bank "bd" with entries in filename order. Files that fail to decode
// are logged and skipped rather than failing the whole load.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("sample dir: %w", err)
	}
	s := NewStore()
	for _, e := range entries {
		if e.IsDir() {
			sub, err := os.ReadDir(filepath.Join(dir, e.Name()))
			if err != nil {
				log.Warn("skipping sample bank", "component", "sampleio", "bank", e.Name(), "err", err)
				continue
			}
			var files []string
			for _, f := range sub {
				if !f.IsDir() && isWav(f.Name()) {
					files = append(files, f.Name())
				}
			}
			sort.Strings(files)
			for _, f := range files {
				s.loadFile(filepath.Join(dir, e.Name(), f), e.Name())
			}
			continue
		}
		if isWav(e.Name()) {
			name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			s.loadFile(filepath.Join(dir, e.Name()), name)
		}
	}
	return s, nil
}

func isWav(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".wav")
}

func (s *Store) loadFile(path, name string) {
	buf, err := DecodeFile(path)
	if err != nil {
		log.Warn("skipping sample", "component", "sampleio", "file", path, "err", err)
		return
	}
	s.Add(name, buf)
}

// DecodeFile decodes one WAV file into an interleaved float buffer.
func DecodeFile(path string) (*dsp.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("invalid channel count")
	}

	bitDepth := int(d.BitDepth)
	if pcm.SourceBitDepth > 0 {
		bitDepth = pcm.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	frames := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		frames[i] = float32(v) / scale
	}
	return &dsp.Buffer{
		Frames:     frames,
		Channels:   pcm.Format.NumChannels,
		SampleRate: float64(pcm.Format.SampleRate),
	}, nil
}
