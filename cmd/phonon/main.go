// Command phonon is the live-coding audio engine CLI: `render` writes a
// source file to a WAV offline, `live` plays it through the default
// audio device with hot-swap on save, `edit` runs a one-shot compile
// check and emits JSON diagnostics for an external editor. Exit codes:
// 0 success, 1 compile failure, 2 I/O failure (§6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phonon-lang/phonon/internal/audioio"
	"github.com/phonon-lang/phonon/internal/binding"
	"github.com/phonon-lang/phonon/internal/compiler"
	"github.com/phonon-lang/phonon/internal/diag"
	"github.com/phonon-lang/phonon/internal/midiio"
	"github.com/phonon-lang/phonon/internal/oscio"
	"github.com/phonon-lang/phonon/internal/render"
	"github.com/phonon-lang/phonon/internal/runtime"
	"github.com/phonon-lang/phonon/internal/sampleio"
	"github.com/phonon-lang/phonon/internal/tui"
)

const (
	exitCompile = 1
	exitIO      = 2
)

var (
	flagSamples string
	flagRate    int
	flagCycles  float64
	flagMidi    string
	flagOscPort int
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:          "phonon",
		Short:        "pattern + signal-graph live coding engine",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagSamples, "samples", "", "directory of WAV samples")
	root.PersistentFlags().IntVar(&flagRate, "rate", 44100, "sample rate")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	renderCmd := &cobra.Command{
		Use:   "render <src> <out.wav>",
		Short: "render a source file to a WAV offline",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			runRender(args[0], args[1])
		},
	}
	renderCmd.Flags().Float64Var(&flagCycles, "cycles", 4, "number of cycles to render")

	liveCmd := &cobra.Command{
		Use:   "live <src>",
		Short: "play a source file live, hot-swapping on save",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runLive(args[0])
		},
	}
	liveCmd.Flags().StringVar(&flagMidi, "midi", "", "MIDI input port (substring match)")
	liveCmd.Flags().IntVar(&flagOscPort, "osc", 0, "OSC listen port (0 disables)")

	editCmd := &cobra.Command{
		Use:   "edit <src>",
		Short: "compile-check a source file, emitting JSON diagnostics",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runEdit(args[0])
		},
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "list MIDI input ports",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range midiio.Devices() {
				fmt.Println(name)
			}
		},
	}

	root.AddCommand(renderCmd, liveCmd, editCmd, devicesCmd)
	if err := root.Execute(); err != nil {
		os.Exit(exitIO)
	}
}

// loadStore resolves --samples; a nil store simply makes every sample
// lookup miss (reported, not fatal, per §7).
func loadStore() binding.SampleResolver {
	if flagSamples == "" {
		return nil
	}
	store, err := sampleio.LoadDir(flagSamples)
	if err != nil {
		log.Error("sample load failed", "dir", flagSamples, "err", err)
		os.Exit(exitIO)
	}
	log.Info("samples loaded", "dir", flagSamples, "names", len(store.Names()))
	return store
}

func readSource(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("read source", "file", path, "err", err)
		os.Exit(exitIO)
	}
	return string(data)
}

// isCompileErr distinguishes exit code 1 (bad source) from 2 (I/O).
func isCompileErr(err error) bool {
	switch diag.FromError(err).Kind {
	case diag.KindParse, diag.KindName, diag.KindCycle, diag.KindArity:
		return true
	}
	return false
}

func runRender(src, out string) {
	m, err := render.ToWAV(readSource(src), out, loadStore(), render.Params{
		SampleRate: flagRate,
		Cycles:     flagCycles,
		BlockSize:  audioio.BufferSizeFromEnv(),
	})
	if err != nil {
		if isCompileErr(err) {
			printDiag(err)
			os.Exit(exitCompile)
		}
		log.Error("render failed", "err", err)
		os.Exit(exitIO)
	}
	fmt.Printf("%s: %d frames, %g cycles at cps %g\n", m.Output, m.Frames, m.Cycles, m.Cps)
}

func runEdit(src string) {
	_, err := compiler.Compile(readSource(src), compiler.Options{Samples: loadStore()})
	if err != nil {
		printDiag(err)
		os.Exit(exitCompile)
	}
	fmt.Println(`{"ok":true}`)
}

func printDiag(err error) {
	d := diag.FromError(err)
	if data, jerr := d.JSON(); jerr == nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(err)
}

func runLive(path string) {
	collector := diag.NewCollector()
	eng := runtime.New(runtime.Options{
		SampleRate: float64(flagRate),
		Samples:    loadStore(),
		Diags:      collector,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	eng.Start(ctx)

	if flagMidi != "" {
		stop, err := midiio.Listen(eng, flagMidi)
		if err != nil {
			log.Warn("MIDI unavailable", "err", err)
		} else {
			defer stop()
		}
	}
	if flagOscPort > 0 {
		oscio.Serve(eng, flagOscPort)
	}

	audioErr := make(chan error, 1)
	go func() {
		audioErr <- audioio.Run(ctx, eng, audioio.Config{
			SampleRate: float64(flagRate),
			BufferSize: audioio.BufferSizeFromEnv(),
		})
	}()

	p := tui.NewProgram(eng, path)
	go runtime.Watch(ctx, path, 250*time.Millisecond, func(text string) {
		err := eng.Rebuild(text)
		p.Send(tui.CompileResult{Err: err, When: time.Now()})
	})

	if _, err := p.Run(); err != nil {
		log.Error("tui", "err", err)
		os.Exit(exitIO)
	}
	cancel()
	select {
	case err := <-audioErr:
		if err != nil && ctx.Err() == nil {
			log.Error("audio", "err", err)
			os.Exit(exitIO)
		}
	case <-time.After(time.Second):
	}
}
