// Package pads mirrors the scope on a Launchpad grid and turns the
// top-row buttons into engine commands.
package pads

import (
	"context"
	"sync"
	"time"

	"go-stepscope/debug"
	"go-stepscope/engine"
	"go-stepscope/midi"
	"go-stepscope/render"
	"go-stepscope/theme"
)

const ledFPS = 30

// topRowOps maps the top-row buttons, left to right
var topRowOps = [render.GridSize]engine.Command{
	{Op: engine.OpIncreaseWindow},
	{Op: engine.OpDecreaseWindow},
	{Op: engine.OpSetActiveTracks, Tracks: 1},
	{Op: engine.OpSetActiveTracks, Tracks: 2},
	{Op: engine.OpSetActiveTracks, Tracks: 3},
	{Op: engine.OpSetActiveTracks, Tracks: 4},
	{Op: engine.OpToggleBlank},
	{Op: engine.OpRequestMatrixRefresh},
}

// CommandForPad returns the command a pad press stands for. Only the top
// row carries commands; the grid is display only.
func CommandForPad(ev midi.PadEvent) (engine.Command, bool) {
	if ev.Row != midi.TopRow || ev.Col < 0 || ev.Col >= len(topRowOps) {
		return engine.Command{}, false
	}
	return topRowOps[ev.Col], true
}

// topRow lights the command buttons: the active track count and the blank
// toggle stand out
func topRow(snap engine.Snapshot) [render.GridSize]render.Level {
	var row [render.GridSize]render.Level
	for col, cmd := range topRowOps {
		row[col] = render.LevelLow
		switch {
		case cmd.Op == engine.OpSetActiveTracks && cmd.Tracks == snap.ActiveTracks:
			row[col] = render.LevelOn
		case cmd.Op == engine.OpToggleBlank && snap.Blank:
			row[col] = render.LevelNow
		}
	}
	return row
}

// Mirror flushes the latest snapshot to the connected Launchpad at a fixed
// rate, sending only the pads that changed
type Mirror struct {
	theme    *theme.Theme
	latest   chan engine.Snapshot
	commands chan engine.Command

	mu         sync.Mutex
	controller midi.Controller
	prev       *render.LEDFrame
	prevTop    *[render.GridSize]render.Level
}

func NewMirror(th *theme.Theme) *Mirror {
	return &Mirror{
		theme:    th,
		latest:   make(chan engine.Snapshot, 1),
		commands: make(chan engine.Command, 16),
	}
}

// Commands returns commands from pad presses
func (m *Mirror) Commands() <-chan engine.Command {
	return m.commands
}

// Publish offers a snapshot to the mirror. Only the newest unsent one is
// kept; it never blocks the render loop.
func (m *Mirror) Publish(snap engine.Snapshot) {
	select {
	case m.latest <- snap:
		return
	default:
	}
	select {
	case <-m.latest:
	default:
	}
	select {
	case m.latest <- snap:
	default:
	}
}

// SetController switches the mirror to c (nil detaches). The next flush
// repaints every pad.
func (m *Mirror) SetController(c midi.Controller) {
	m.mu.Lock()
	m.controller = c
	m.prev = nil
	m.prevTop = nil
	m.mu.Unlock()
	debug.Log("pads", "controller set, resetting diff state")

	if c != nil {
		go m.forward(c)
	}
}

// Controller returns the mirrored controller, or nil
func (m *Mirror) Controller() midi.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controller
}

// forward reads presses until the controller closes its channel
func (m *Mirror) forward(c midi.Controller) {
	for ev := range c.PadEvents() {
		cmd, ok := CommandForPad(ev)
		if !ok {
			continue
		}
		select {
		case m.commands <- cmd:
		default:
			debug.Log("pads", "command %v dropped", cmd.Op)
		}
	}
}

// Run flushes at a fixed FPS until ctx is done
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case snap := <-m.latest:
				m.flush(snap)
			default:
			}
		}
	}
}

// flush sends the pads that differ from the last frame sent
func (m *Mirror) flush(snap engine.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.controller == nil {
		return
	}

	frame := render.LEDs(snap)
	top := topRow(snap)

	var updates []midi.LEDUpdate
	for _, pad := range render.Diff(m.prev, &frame) {
		updates = append(updates, midi.LEDUpdate{
			Row:   pad[0],
			Col:   pad[1],
			Color: m.theme.LED(frame[pad[0]][pad[1]]),
		})
	}
	for col, level := range top {
		if m.prevTop != nil && m.prevTop[col] == level {
			continue
		}
		updates = append(updates, midi.LEDUpdate{
			Row:   midi.TopRow,
			Col:   col,
			Color: m.theme.LED(level),
		})
	}

	if len(updates) > 0 {
		debug.LogEvery(30, "pads", "flush batch=%d", len(updates))
		if err := m.controller.SetLEDBatch(updates); err != nil {
			debug.Log("pads", "flush: %v", err)
			m.prev, m.prevTop = nil, nil // repaint everything next time
			return
		}
	}
	m.prev = &frame
	m.prevTop = &top
}
