// Package render is the offline path behind `phonon render <src>
// <out.wav> --cycles K`: it runs the same engine the live path uses,
// block by block, into a WAV encoder instead of an audio driver, and
// writes a JSON manifest sidecar recording the render parameters and any
// diagnostics collected along the way.
package render

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	jsoniter "github.com/json-iterator/go"

	"github.com/phonon-lang/phonon/internal/binding"
	"github.com/phonon-lang/phonon/internal/diag"
	"github.com/phonon-lang/phonon/internal/runtime"
	"github.com/phonon-lang/phonon/internal/tempo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Params bounds one render.
type Params struct {
	SampleRate int
	Cycles     float64
	BlockSize  int
}

// Manifest is the JSON sidecar written next to the output WAV.
type Manifest struct {
	Output      string            `json:"output"`
	SampleRate  int               `json:"sampleRate"`
	Cycles      float64           `json:"cycles"`
	Cps         float64           `json:"cps"`
	Frames      int64             `json:"frames"`
	RenderedAt  time.Time         `json:"renderedAt"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// ToWAV compiles src, renders Cycles cycles of stereo audio into
// outPath as 16-bit PCM, and writes `<outPath>.manifest.json`. The
// returned manifest mirrors the sidecar.
func ToWAV(src, outPath string, store binding.SampleResolver, p Params) (*Manifest, error) {
	if p.SampleRate <= 0 {
		p.SampleRate = 44100
	}
	if p.BlockSize <= 0 {
		p.BlockSize = 128
	}
	if p.Cycles <= 0 {
		p.Cycles = 1
	}

	collector := diag.NewCollector()
	eng := runtime.New(runtime.Options{
		SampleRate: float64(p.SampleRate),
		Samples:    store,
		Diags:      collector,
	})
	if err := eng.Rebuild(src); err != nil {
		return nil, err
	}

	cps := stagedCps(eng)
	totalFrames := int64(p.Cycles * tempo.SamplesPerCycle(float64(p.SampleRate), cps))

	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, p.SampleRate, 16, 2, 1)

	interleaved := make([]float32, p.BlockSize*2)
	ints := make([]int, p.BlockSize*2)
	var written int64
	for written < totalFrames {
		frames := int64(p.BlockSize)
		if remain := totalFrames - written; remain < frames {
			frames = remain
		}
		block := interleaved[:frames*2]
		eng.ProcessInterleaved(block)
		for i, v := range block {
			ints[i] = pcm16(v)
		}
		if err := enc.Write(&audio.IntBuffer{
			Data:           ints[:frames*2],
			Format:         &audio.Format{NumChannels: 2, SampleRate: p.SampleRate},
			SourceBitDepth: 16,
		}); err != nil {
			return nil, fmt.Errorf("write wav: %w", err)
		}
		written += frames
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finish wav: %w", err)
	}

	collector.Drain()
	m := &Manifest{
		Output:      outPath,
		SampleRate:  p.SampleRate,
		Cycles:      p.Cycles,
		Cps:         cps,
		Frames:      written,
		RenderedAt:  time.Now().UTC(),
		Diagnostics: collector.History(),
	}
	if err := writeManifest(outPath+".manifest.json", m); err != nil {
		return nil, err
	}
	log.Info("render complete", "component", "render", "output", outPath, "frames", written, "cycles", p.Cycles)
	return m, nil
}

// stagedCps renders one empty block so the staged generation becomes
// active, then reads its transport rate.
func stagedCps(eng *runtime.Engine) float64 {
	var l, r [1]float32
	eng.ProcessBlock(l[:0], r[:0])
	return eng.Cps()
}

func pcm16(v float32) int {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int(v * 32767)
}

func writeManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}
