package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KnobController forwards control changes from any MIDI input
type KnobController struct {
	id       string
	stopFunc func()

	padChan     chan PadEvent
	controlChan chan ControlEvent
}

// NewKnobController starts listening on inPort
func NewKnobController(id string, inPort drivers.In) (*KnobController, error) {
	k := &KnobController{
		id:          id,
		padChan:     make(chan PadEvent),
		controlChan: make(chan ControlEvent, 32),
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		if ev, ok := controlEvent(msg); ok {
			select {
			case k.controlChan <- ev:
			default:
				// a knob sweep floods; dropping intermediate values is harmless
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", id, err)
	}
	k.stopFunc = stop

	return k, nil
}

// controlEvent extracts a control change from msg
func controlEvent(msg gomidi.Message) (ControlEvent, bool) {
	var ev ControlEvent
	if !msg.GetControlChange(&ev.Channel, &ev.Controller, &ev.Value) {
		return ControlEvent{}, false
	}
	return ev, true
}

func (k *KnobController) ID() string {
	return k.id
}

func (k *KnobController) Type() ControllerType {
	return ControllerTempoKnob
}

func (k *KnobController) PadEvents() <-chan PadEvent {
	return k.padChan // knobs have no pads
}

func (k *KnobController) ControlEvents() <-chan ControlEvent {
	return k.controlChan
}

// SetLEDBatch is a no-op for knobs
func (k *KnobController) SetLEDBatch(updates []LEDUpdate) error {
	return nil
}

func (k *KnobController) Close() error {
	if k.stopFunc != nil {
		k.stopFunc()
	}
	close(k.padChan)
	close(k.controlChan)
	return nil
}
