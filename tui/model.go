package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-stepscope/debug"
	"go-stepscope/engine"
	"go-stepscope/feed"
	"go-stepscope/midi"
	"go-stepscope/pads"
	"go-stepscope/render"
	"go-stepscope/theme"
	"go-stepscope/widgets"
)

// cellPixels is how many engine pixels one terminal column stands for.
// 64 columns make a 512px window.
const cellPixels = 8

// Options wires the model to the rest of the program. Only Engine and
// Theme are required.
type Options struct {
	Engine    *engine.Engine
	Theme     *theme.Theme
	FPS       int
	Feed      *feed.Client
	FeedDone  <-chan error // receives Feed.Run's result
	DeviceMgr *midi.DeviceManager
	Mirror    *pads.Mirror
	Tempo     *feed.TempoBridge
	Ctx       context.Context
}

type Model struct {
	Options

	width, height int
	last          time.Time
	snap          engine.Snapshot

	status    feed.Status
	launchpad string
	knob      string
	showPads  bool
	showHelp  bool
	notice    string
	err       error
	quitting  bool
}

type frameMsg time.Time

type statusMsg feed.StatusEvent

type feedDoneMsg struct{ err error }

type commandMsg engine.Command

type DeviceEventMsg midi.DeviceEvent

func NewModel(opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	return Model{
		Options: opts,
		snap:    opts.Engine.Snapshot(),
	}
}

// Err is the error the program stopped with, if any
func (m Model) Err() error {
	return m.err
}

func tick(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func ListenForStatus(c *feed.Client) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return statusMsg(<-c.Status())
	}
}

func ListenForFeedDone(done <-chan error) tea.Cmd {
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		return feedDoneMsg{err: <-done}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForPads(mirror *pads.Mirror) tea.Cmd {
	if mirror == nil {
		return nil
	}
	return func() tea.Msg {
		return commandMsg(<-mirror.Commands())
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.FPS),
		ListenForStatus(m.Feed),
		ListenForFeedDone(m.FeedDone),
		ListenForDevices(m.DeviceMgr),
		ListenForPads(m.Mirror),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		var dt time.Duration
		if !m.last.IsZero() {
			dt = now.Sub(m.last)
		}
		m.last = now
		m.snap = m.Engine.Frame(dt)
		if m.Mirror != nil {
			m.Mirror.Publish(m.snap)
		}
		return m, tick(m.FPS)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.Engine.SetViewportWidth(float64(msg.Width * cellPixels))

	case tea.KeyMsg:
		return m.handleKey(msg)

	case commandMsg:
		m.execute(engine.Command(msg))
		return m, ListenForPads(m.Mirror)

	case statusMsg:
		m.status = msg.Status
		if msg.Err != nil {
			m.notice = msg.Err.Error()
		} else if msg.Status == feed.Connected {
			m.notice = ""
		}
		return m, ListenForStatus(m.Feed)

	case feedDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
			m.quitting = true
			return m, tea.Quit
		}

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left":
		m.execute(engine.Command{Op: engine.OpIncreaseWindow})

	case "right":
		m.execute(engine.Command{Op: engine.OpDecreaseWindow})

	case "1", "2", "3", "4":
		n := int(msg.String()[0] - '0')
		m.execute(engine.Command{Op: engine.OpSetActiveTracks, Tracks: n})

	case "b":
		m.execute(engine.Command{Op: engine.OpToggleBlank})

	case "s":
		m.execute(engine.Command{Op: engine.OpRequestMatrixRefresh})

	case "p":
		m.showPads = !m.showPads

	case "?":
		m.showHelp = !m.showHelp

	case "d":
		debug.Dump("engine", "snapshot", m.snap)
		debug.Dump("engine", "stats", m.Engine.Stats())
		m.notice = "snapshot written to debug log"
	}
	return m, nil
}

// execute runs a command and refreshes the snapshot so the change shows
// before the next frame
func (m *Model) execute(cmd engine.Command) {
	if err := m.Engine.Execute(cmd); err != nil {
		debug.Log("tui", "%v: %v", cmd.Op, err)
		m.notice = err.Error()
		return
	}
	m.snap = m.Engine.Snapshot()
}

func (m *Model) handleDevice(ev midi.DeviceEvent) {
	switch ev.Type {
	case midi.DeviceConnected:
		switch ev.Controller.Type() {
		case midi.ControllerLaunchpad:
			if m.Mirror != nil {
				m.Mirror.SetController(ev.Controller)
			}
			m.launchpad = ev.ID
		case midi.ControllerTempoKnob:
			if m.Tempo != nil {
				go m.Tempo.Run(m.Ctx, ev.Controller.ControlEvents())
			}
			m.knob = ev.ID
		}
	case midi.DeviceDisconnected:
		if ev.ID == m.launchpad {
			if m.Mirror != nil {
				m.Mirror.SetController(nil)
			}
			m.launchpad = ""
		}
		if ev.ID == m.knob {
			m.knob = ""
		}
	}
}

var helpKeys = []widgets.KeyBinding{
	{Key: "←/→", Desc: "steps"},
	{Key: "1-4", Desc: "tracks"},
	{Key: "b", Desc: "blank"},
	{Key: "s", Desc: "sync"},
	{Key: "p", Desc: "pads"},
	{Key: "d", Desc: "dump"},
	{Key: "?", Desc: "help"},
	{Key: "q", Desc: "quit"},
}

var keySections = []widgets.KeySection{
	{Title: "View", Keys: []widgets.KeyBinding{
		{Key: "←", Desc: "widen window (more steps)"},
		{Key: "→", Desc: "narrow window"},
		{Key: "1-4", Desc: "active tracks"},
		{Key: "b", Desc: "blank display"},
	}},
	{Title: "Feed", Keys: []widgets.KeyBinding{
		{Key: "s", Desc: "request current matrix"},
	}},
	{Title: "Launchpad (top row)", Keys: []widgets.KeyBinding{
		{Key: "1 / 2", Desc: "widen / narrow"},
		{Key: "3-6", Desc: "1-4 tracks"},
		{Key: "7", Desc: "blank"},
		{Key: "8", Desc: "request matrix"},
	}},
	{Title: "Misc", Keys: []widgets.KeyBinding{
		{Key: "p", Desc: "pad preview"},
		{Key: "d", Desc: "dump snapshot to debug log"},
		{Key: "q / ctrl+c", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Background(m.Theme.BG())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	s := m.snap.Scroll
	devices := ""
	if m.launchpad != "" {
		devices += "  LP"
	}
	if m.knob != "" {
		devices += "  knob"
	}
	header := headerStyle.Render(fmt.Sprintf("stepscope  tempo %5.2f  steps %2d  tracks %d  pos %02d/%02d  %s%s",
		s.Tempo, s.WindowLength, m.snap.ActiveTracks, s.Position, s.CycleLength, m.status, devices))

	help := dimStyle.Render(widgets.RenderKeyLine(helpKeys))
	if m.notice != "" {
		help = dimStyle.Render(m.notice) + "\n" + help
	}

	if m.showHelp {
		return header + "\n\n" + labelStyle.Render(widgets.RenderKeyHelp(keySections)) + "\n\n" + help
	}

	var padView string
	padRows := 0
	if m.showPads {
		padView = widgets.RenderPadGrid(render.LEDs(m.snap), m.Theme)
		padRows = lipgloss.Height(padView)
	}

	// header, blank line, help, plus one label line per view
	views := len(m.snap.Views)
	avail := m.height - 2 - lipgloss.Height(help) - views - padRows
	if views == 0 || m.width <= 0 || avail < views {
		return header + "\n\n" + help
	}
	rows := avail / views

	styles := map[widgets.Class]lipgloss.Style{
		widgets.ClassTrace:  lipgloss.NewStyle().Foreground(m.Theme.Trace()),
		widgets.ClassFuture: lipgloss.NewStyle().Foreground(m.Theme.Future()),
		widgets.ClassMarker: lipgloss.NewStyle().Foreground(m.Theme.Marker()),
	}

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n")
	for _, sc := range render.ProjectAll(m.snap, float64(m.width), float64(rows)) {
		label := sc.Name
		if sc.Blank {
			label += " (blank)"
		}
		out.WriteString("\n")
		out.WriteString(labelStyle.Render(label))
		out.WriteString("\n")

		c := widgets.NewCanvas(m.width, rows)
		widgets.DrawScene(c, sc, m.Theme.Symbols.Marker)
		out.WriteString(c.Render(styles))
	}
	if padView != "" {
		out.WriteString("\n")
		out.WriteString(padView)
	}
	out.WriteString("\n")
	out.WriteString(help)

	return out.String()
}
