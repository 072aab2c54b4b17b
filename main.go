package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-stepscope/config"
	"go-stepscope/debug"
	"go-stepscope/engine"
	"go-stepscope/feed"
	"go-stepscope/midi"
	"go-stepscope/pads"
	"go-stepscope/theme"
	"go-stepscope/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyEnv()

	addr := flag.String("addr", cfg.Feed.Address, "feed websocket address")
	layout := flag.String("layout", cfg.View.Layout, "view layout: single, preview or triple")
	tracks := flag.Int("tracks", cfg.View.ActiveTracks, "active tracks")
	steps := flag.Int("steps", cfg.View.WindowLength, "steps on screen")
	fps := flag.Int("fps", cfg.View.FPS, "frames per second")
	palette := flag.String("palette", cfg.UI.Palette, "GIMP .gpl palette (default: built-in)")
	tempoPort := flag.String("tempo-port", cfg.TempoInput.Port, "MIDI input port (substring) whose knob sets the tempo")
	noReconnect := flag.Bool("no-reconnect", !cfg.Feed.Reconnect, "exit when the feed connection closes")
	debugLog := flag.Bool("debug", false, "write debug.log to the config directory")
	save := flag.Bool("save", false, "store these flags in the config file")
	flag.Parse()

	cfg.Feed.Address = *addr
	cfg.Feed.Reconnect = !*noReconnect
	cfg.View.Layout = *layout
	cfg.UI.Palette = *palette
	cfg.TempoInput.Port = *tempoPort
	cfg.View.FPS = *fps
	// explicit flags win over the state saved on the last exit
	if flag.CommandLine.Changed("tracks") {
		cfg.View.ActiveTracks = *tracks
		cfg.UI.LastActiveTracks = 0
	}
	if flag.CommandLine.Changed("steps") {
		cfg.View.WindowLength = *steps
		cfg.UI.LastWindowLength = 0
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *debugLog {
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		if err := debug.Enable(dir); err != nil {
			return err
		}
		defer debug.Disable()
	}

	if *save {
		out := *cfg
		if !flag.CommandLine.Changed("addr") {
			if stored, err := config.Load(); err == nil {
				out.Feed.Address = stored.Feed.Address
			}
		}
		if err := out.Save(); err != nil {
			return err
		}
	}

	theme.ApplyEnv()
	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}

	params, err := cfg.EngineParams()
	if err != nil {
		return err
	}
	queue := engine.NewQueue()
	eng, err := engine.New(params, queue)
	if err != nil {
		return err
	}

	client := feed.NewClient(cfg.Feed.Address, queue,
		feed.WithReconnect(cfg.Feed.Reconnect),
		feed.WithCodec(feed.Codec{MaxTracks: params.MaxTracks}),
	)
	eng.SetRequester(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedDone := make(chan error, 1)
	go func() { feedDone <- client.Run(ctx) }()

	deviceMgr := midi.NewDeviceManager(cfg.TempoInput.Port)
	for _, port := range cfg.IgnoredPorts() {
		deviceMgr.Ignore(port)
	}
	go deviceMgr.Run(ctx)

	mirror := pads.NewMirror(th)
	go mirror.Run(ctx)

	m := tui.NewModel(tui.Options{
		Engine:    eng,
		Theme:     th,
		FPS:       cfg.View.FPS,
		Feed:      client,
		FeedDone:  feedDone,
		DeviceMgr: deviceMgr,
		Mirror:    mirror,
		Tempo:     feed.NewTempoBridge(cfg.TempoInput.CC, queue),
		Ctx:       ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return err
	}
	debug.Dump("main", "stats", eng.Stats())

	// reload so one-off flags are not persisted
	if stored, err := config.Load(); err == nil {
		snap := eng.Snapshot()
		stored.UI.LastWindowLength = snap.Scroll.WindowLength
		stored.UI.LastActiveTracks = snap.ActiveTracks
		for id, c := range deviceMgr.Controllers() {
			if stored.FindController(id) == nil {
				stored.AddController(config.ControllerConfig{
					PortName:    id,
					Type:        controllerKind(id, c.Type()),
					AutoConnect: true,
				})
			}
		}
		if err := stored.Save(); err != nil {
			debug.Log("main", "save config: %v", err)
		}
	}

	if fm, ok := final.(tui.Model); ok {
		return fm.Err()
	}
	return nil
}

// controllerKind maps a connected device to its saved config type
func controllerKind(port string, t midi.ControllerType) config.ControllerType {
	switch {
	case t == midi.ControllerTempoKnob:
		return config.ControllerTempoKnob
	case strings.Contains(strings.ToLower(port), "mini"):
		return config.ControllerLaunchpadMini
	}
	return config.ControllerLaunchpadX
}
