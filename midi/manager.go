package midi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go-stepscope/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// ErrPortsTimeout is returned when the MIDI backend does not answer a
// port listing in time
var ErrPortsTimeout = errors.New("midi: port listing timed out")

// DeviceManager handles hot-plug detection of the Launchpad mirror and
// the optional tempo knob
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	knobPort    string
	ignored     map[string]bool
}

// NewDeviceManager creates a device manager. knobPort is a substring of
// the input port to treat as the tempo knob; empty disables it.
func NewDeviceManager(knobPort string) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		knobPort:    strings.ToLower(knobPort),
		ignored:     make(map[string]bool),
	}
}

// Ignore keeps a port from being opened on later scans
func (dm *DeviceManager) Ignore(portName string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.ignored[strings.ToLower(portName)] = true
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	return dm.first(ControllerLaunchpad)
}

// GetKnob returns the connected tempo knob (or nil)
func (dm *DeviceManager) GetKnob() Controller {
	return dm.first(ControllerTempoKnob)
}

func (dm *DeviceManager) first(t ControllerType) Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

// ListPorts returns the input and output ports. CoreMIDI can hang, so
// the listing runs in its own goroutine and gives up after timeout.
func ListPorts(timeout time.Duration) (ins []drivers.In, outs []drivers.Out, err error) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}

	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, nil
	case <-time.After(timeout):
		// sudo killall coreaudiod midiserver
		return nil, nil, ErrPortsTimeout
	}
}

func (dm *DeviceManager) scan(ctx context.Context) {
	inPorts, outPorts, err := ListPorts(3 * time.Second)
	if err != nil {
		debug.Log("midi", "scan skipped: %v", err)
		return
	}

	seen := make(map[string]bool)
	var connected []DeviceEvent

	for i, inPort := range inPorts {
		id := inPort.String()
		kind := classifyPort(id, dm.knobPort)
		if kind == ControllerUnknown {
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		skip := dm.ignored[strings.ToLower(id)]
		dm.mu.RUnlock()
		if exists || skip {
			continue
		}

		ctrl, err := dm.open(kind, id, inPorts[i], MatchingOut(id, outPorts))
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = ctrl
		dm.mu.Unlock()
		debug.Log("midi", "connected %s (%s)", id, kind)
		connected = append(connected, DeviceEvent{Type: DeviceConnected, Controller: ctrl, ID: id})
	}

	var gone []DeviceEvent
	dm.mu.Lock()
	for id, c := range dm.controllers {
		if !seen[id] {
			c.Close()
			delete(dm.controllers, id)
			debug.Log("midi", "disconnected %s", id)
			gone = append(gone, DeviceEvent{Type: DeviceDisconnected, ID: id})
		}
	}
	dm.mu.Unlock()

	for _, ev := range append(connected, gone...) {
		select {
		case dm.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (dm *DeviceManager) open(kind ControllerType, id string, in drivers.In, out drivers.Out) (Controller, error) {
	if kind == ControllerTempoKnob {
		return NewKnobController(id, in)
	}
	return NewLaunchpadController(id, in, out)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// MatchingOut finds the output port with the same name as an input
func MatchingOut(name string, outs []drivers.Out) drivers.Out {
	name = strings.ToLower(name)
	for _, op := range outs {
		if strings.ToLower(op.String()) == name {
			return op
		}
	}
	return nil
}

// classifyPort decides what an input port is by name. A Launchpad wins
// over the knob substring so a broad pattern cannot steal the mirror.
func classifyPort(name, knobPort string) ControllerType {
	name = strings.ToLower(name)
	switch {
	case IsLaunchpad(name):
		return ControllerLaunchpad
	case knobPort != "" && strings.Contains(name, knobPort):
		return ControllerTempoKnob
	}
	return ControllerUnknown
}

// IsLaunchpad reports whether a port name is a Launchpad's MIDI port
func IsLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}
