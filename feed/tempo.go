package feed

import (
	"context"

	"go-stepscope/engine"
	"go-stepscope/midi"
)

// CCWheelScale maps a 7-bit controller value onto the feed's wheel range
const CCWheelScale = 8

// TempoBridge turns a MIDI knob into tempo updates, the same updates a
// /wheel frame produces
type TempoBridge struct {
	cc  uint8
	out Pusher
}

// NewTempoBridge listens for control change cc on any channel
func NewTempoBridge(cc uint8, out Pusher) *TempoBridge {
	return &TempoBridge{cc: cc, out: out}
}

// Handle pushes a tempo update if ev is the configured controller
func (b *TempoBridge) Handle(ev midi.ControlEvent) bool {
	if ev.Controller != b.cc {
		return false
	}
	b.out.Push(engine.TempoUpdate{Value: float64(ev.Value) * CCWheelScale})
	return true
}

// Run forwards events until ctx is done or events is closed
func (b *TempoBridge) Run(ctx context.Context, events <-chan midi.ControlEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.Handle(ev)
		}
	}
}
