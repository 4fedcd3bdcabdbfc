// Package audioio is the audio-driver collaborator (§6): it owns the
// PortAudio stream and hands the engine real (N, []float32) buffers at
// the device rate. Nothing else in the repo touches the platform driver.
package audioio

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"github.com/phonon-lang/phonon/internal/runtime"
)

// DefaultBufferSize is the block size used when PHONON_BUFFER_SIZE is
// unset (§6 Environment).
const DefaultBufferSize = 128

// Config selects the stream parameters.
type Config struct {
	SampleRate float64
	BufferSize int
}

// BufferSizeFromEnv reads PHONON_BUFFER_SIZE, falling back to the
// default on absence or nonsense.
func BufferSizeFromEnv() int {
	v := os.Getenv("PHONON_BUFFER_SIZE")
	if v == "" {
		return DefaultBufferSize
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Warn("ignoring invalid PHONON_BUFFER_SIZE", "component", "audioio", "value", v)
		return DefaultBufferSize
	}
	return n
}

// Run opens the default stereo output stream and drives eng's callback
// until ctx is done. Blocks for the lifetime of the stream.
func Run(ctx context.Context, eng *runtime.Engine, cfg Config) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = eng.SampleRate()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = BufferSizeFromEnv()
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, cfg.SampleRate, cfg.BufferSize, func(out [][]float32) {
		eng.ProcessBlock(out[0], out[1])
	})
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	log.Info("audio stream running", "component", "audioio", "rate", cfg.SampleRate, "block", cfg.BufferSize)

	<-ctx.Done()
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	return nil
}
