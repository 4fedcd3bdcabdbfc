// Package midiio is the MIDI source collaborator (§6): it enumerates
// input devices, opens one, and decodes NoteOn/NoteOff/CC/PitchBend
// messages onto the engine's external-event queue. The audio thread
// never sees a MIDI driver; only ExtEvents cross over.
package midiio

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/phonon-lang/phonon/internal/runtime"
)

// Devices returns the names of every MIDI input port currently visible.
func Devices() []string {
	ins := midi.GetInPorts()
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.String()
	}
	return out
}

// findIn resolves name against the available input ports, first by
// case-insensitive prefix, then by substring, the same lookup ladder the
// hardware's names make necessary (ports carry driver suffixes users
// don't type). An empty name picks the first port.
func findIn(name string) (drivers.In, error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI input ports")
	}
	if name == "" {
		return ins[0], nil
	}
	lower := strings.ToLower(name)
	for _, in := range ins {
		if strings.HasPrefix(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input matching %q", name)
}

// Listen opens the named input and posts decoded events to eng until the
// returned stop function is called.
func Listen(eng *runtime.Engine, name string) (func(), error) {
	in, err := findIn(name)
	if err != nil {
		return nil, err
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel, cc, val uint8
		var rel int16
		var abs uint16
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			eng.Post(runtime.ExtEvent{Kind: runtime.NoteOn, Channel: ch, Pitch: key, Vel: vel})
		case msg.GetNoteEnd(&ch, &key):
			eng.Post(runtime.ExtEvent{Kind: runtime.NoteOff, Channel: ch, Pitch: key})
		case msg.GetControlChange(&ch, &cc, &val):
			eng.Post(runtime.ExtEvent{Kind: runtime.CC, Channel: ch, CC: cc, Val: float64(val) / 127})
		case msg.GetPitchBend(&ch, &rel, &abs):
			eng.Post(runtime.ExtEvent{Kind: runtime.PitchBend, Channel: ch, Val: float64(rel) / 8192})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", in.String(), err)
	}
	log.Info("MIDI input open", "component", "midiio", "port", in.String())
	return stop, nil
}
