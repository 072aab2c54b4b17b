package midi

import (
	"fmt"
	"sync/atomic"

	"go-stepscope/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Launchpad X programmer-mode layout:
//   grid rows 0 (bottom) to 7 are notes 11-18 ... 81-88
//   the right-hand scene column is col 8 (notes 19, 29, ... 89)
//   the top control row is row 8, CC 91-98
const (
	GridSize = 8
	TopRow   = 8
)

// SysEx bodies (without F0/F7)
var (
	sysexProgrammerMode = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}
	sysexFullBrightness = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}
	sysexExternalLEDs   = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}
)

var ledsSent atomic.Uint64

// LaunchpadController drives a Novation Launchpad X as a pad mirror
type LaunchpadController struct {
	id       string
	send     func(msg gomidi.Message) error
	stopFunc func()

	padChan     chan PadEvent
	controlChan chan ControlEvent
}

// NewLaunchpadController opens the ports and switches the pad to
// programmer mode. Either port may be nil.
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:          id,
		padChan:     make(chan PadEvent, 32),
		controlChan: make(chan ControlEvent),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", id, err)
		}
		lp.send = send
		for _, body := range [][]byte{sysexProgrammerMode, sysexFullBrightness, sysexExternalLEDs} {
			if err := send(gomidi.SysEx(body)); err != nil {
				return nil, fmt.Errorf("configure %s: %w", id, err)
			}
		}
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, lp.receive)
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

// receive turns grid notes and top-row CCs into pad presses
func (lp *LaunchpadController) receive(msg gomidi.Message, timestampms int32) {
	if ev, ok := padEvent(msg); ok {
		select {
		case lp.padChan <- ev:
		default:
		}
	}
}

func padEvent(msg gomidi.Message) (PadEvent, bool) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
		row, col, ok := noteToPad(key)
		return PadEvent{Row: row, Col: col, Velocity: velocity}, ok
	case msg.GetControlChange(&channel, &key, &velocity) && velocity > 0:
		if key >= 91 && key <= 98 {
			return PadEvent{Row: TopRow, Col: int(key - 91), Velocity: velocity}, true
		}
	}
	return PadEvent{}, false
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

func (lp *LaunchpadController) ControlEvents() <-chan ControlEvent {
	return lp.controlChan // the pad has no knobs
}

// SetLEDBatch sends one message per pad. The caller diffs frames, so a
// batch is usually a handful of pads.
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	for _, u := range updates {
		if err := lp.send(ledMessage(u)); err != nil {
			return fmt.Errorf("led %d,%d: %w", u.Row, u.Col, err)
		}
	}

	n := ledsSent.Add(uint64(len(updates)))
	debug.LogEvery(50, "lp-send", "total=%d batch=%d", n, len(updates))
	return nil
}

// ledMessage addresses the top row by CC and everything else by note
func ledMessage(u LEDUpdate) gomidi.Message {
	velocity := nearestPaletteColor(u.Color)
	if u.Row == TopRow {
		return gomidi.ControlChange(u.Channel, uint8(91+u.Col), velocity)
	}
	return gomidi.NoteOn(u.Channel, padToNote(u.Row, u.Col), velocity)
}

// paletteEntry is a Launchpad velocity and the RGB color it lights
type paletteEntry struct {
	velocity uint8
	rgb      [3]int
}

// A subset of the Launchpad X palette, enough for nearest-color matching
var launchpadPalette = []paletteEntry{
	{0, [3]int{0, 0, 0}},
	{1, [3]int{30, 30, 30}},
	{3, [3]int{255, 255, 255}},
	{5, [3]int{255, 0, 0}},
	{7, [3]int{90, 0, 0}},
	{9, [3]int{255, 100, 0}},
	{13, [3]int{255, 200, 0}},
	{17, [3]int{0, 180, 0}},
	{19, [3]int{0, 90, 0}},
	{21, [3]int{0, 255, 0}},
	{23, [3]int{0, 40, 0}},
	{37, [3]int{0, 200, 200}},
	{45, [3]int{0, 100, 255}},
	{49, [3]int{150, 0, 200}},
	{53, [3]int{255, 80, 180}},
	{87, [3]int{150, 255, 100}},
	{123, [3]int{60, 120, 40}},
}

// nearestPaletteColor returns the velocity whose palette color is closest
// to rgb in squared RGB distance
func nearestPaletteColor(rgb [3]uint8) uint8 {
	best, bestDist := uint8(0), -1
	for _, p := range launchpadPalette {
		dist := 0
		for i := range rgb {
			d := int(rgb[i]) - p.rgb[i]
			dist += d * d
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = p.velocity, dist
		}
	}
	return best
}

func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		var off []LEDUpdate
		for row := 0; row <= TopRow; row++ {
			for col := 0; col <= GridSize; col++ {
				if row == TopRow && col == GridSize {
					continue // no LED in the corner
				}
				off = append(off, LEDUpdate{Row: row, Col: col})
			}
		}
		lp.SetLEDBatch(off)
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	close(lp.padChan)
	close(lp.controlChan)
	return nil
}

func padToNote(row, col int) uint8 {
	return uint8((row+1)*10 + col + 1)
}

// noteToPad accepts the 8x8 grid plus the scene column
func noteToPad(note uint8) (row, col int, ok bool) {
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row >= GridSize || col < 0 || col > GridSize {
		return -1, -1, false
	}
	return row, col, true
}
