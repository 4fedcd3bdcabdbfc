// Package oscio is the OSC collaborator (§6): a UDP server that maps
// /phonon/* messages onto the engine's external-event queue, plus a
// small client that publishes level meters for external mixers. The
// address scheme mirrors the MIDI event shape so both sources converge
// on the same extern buses.
package oscio

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"

	"github.com/phonon-lang/phonon/internal/runtime"
)

// Serve registers the /phonon handlers and starts listening on port.
// The server goroutine lives until process exit; OSC input is an
// always-on side channel, not a managed resource.
func Serve(eng *runtime.Engine, port int) {
	d := osc.NewStandardDispatcher()

	d.AddMsgHandler("/phonon/note", func(msg *osc.Message) {
		if len(msg.Arguments) < 2 {
			return
		}
		pitch := uint8(argFloat(msg.Arguments[0]))
		vel := argFloat(msg.Arguments[1])
		ch := uint8(0)
		if len(msg.Arguments) > 2 {
			ch = uint8(argFloat(msg.Arguments[2]))
		}
		kind := runtime.NoteOn
		if vel <= 0 {
			kind = runtime.NoteOff
		}
		eng.Post(runtime.ExtEvent{Kind: kind, Channel: ch, Pitch: pitch, Vel: uint8(vel)})
	})

	d.AddMsgHandler("/phonon/cc", func(msg *osc.Message) {
		if len(msg.Arguments) < 2 {
			return
		}
		eng.Post(runtime.ExtEvent{
			Kind: runtime.CC,
			CC:   uint8(argFloat(msg.Arguments[0])),
			Val:  argFloat(msg.Arguments[1]),
		})
	})

	d.AddMsgHandler("/phonon/bend", func(msg *osc.Message) {
		if len(msg.Arguments) < 1 {
			return
		}
		eng.Post(runtime.ExtEvent{Kind: runtime.PitchBend, Val: argFloat(msg.Arguments[0])})
	})

	server := &osc.Server{Addr: fmt.Sprintf(":%d", port), Dispatcher: d}
	go func() {
		log.Info("OSC listening", "component", "oscio", "port", port)
		if err := server.ListenAndServe(); err != nil {
			log.Error("OSC server stopped", "component", "oscio", "err", err)
		}
	}()
}

// argFloat coerces the numeric payload types go-osc delivers.
func argFloat(a interface{}) float64 {
	switch v := a.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Sender publishes engine meters to an external OSC consumer.
type Sender struct {
	client *osc.Client
}

// NewSender targets host:port.
func NewSender(host string, port int) *Sender {
	return &Sender{client: osc.NewClient(host, port)}
}

// SendLevels publishes the current stereo peak levels as /phonon/levels.
func (s *Sender) SendLevels(l, r float64) error {
	msg := osc.NewMessage("/phonon/levels")
	msg.Append(float32(l))
	msg.Append(float32(r))
	return s.client.Send(msg)
}
