package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerTempoKnob
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerTempoKnob:
		return "tempo-knob"
	}
	return "unknown"
}

// PadEvent is sent when a pad/button is pressed on a grid controller.
// Row 8 is the top control row.
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// ControlEvent is a control change from a knob or fader
type ControlEvent struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

// LEDUpdate sets one pad to an RGB color. The controller maps the color
// onto its own palette.
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8 // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is the interface for MIDI devices the scope talks to
type Controller interface {
	ID() string
	Type() ControllerType

	// Input events from the controller
	PadEvents() <-chan PadEvent         // grid controllers (Launchpad)
	ControlEvents() <-chan ControlEvent // knobs

	// Output to the controller; no-op for input-only devices
	SetLEDBatch(updates []LEDUpdate) error

	// Lifecycle
	Close() error
}

// Channel modes for LEDUpdate.Channel
const (
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)
