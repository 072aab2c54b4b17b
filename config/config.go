package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-stepscope/engine"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerTempoKnob     ControllerType = "tempo-knob"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
}

// FeedConfig locates the matrix feed
type FeedConfig struct {
	Address   string `json:"address"`
	Reconnect bool   `json:"reconnect"`
}

// ViewConfig fixes the engine dimensions
type ViewConfig struct {
	MatrixLength   int     `json:"matrixLength"`
	MaxTracks      int     `json:"maxTracks"`
	ActiveTracks   int     `json:"activeTracks"`
	WindowLength   int     `json:"windowLength"`
	MinWindow      int     `json:"minWindow"`
	MaxWindow      int     `json:"maxWindow"`
	FutureFraction float64 `json:"futureFraction"`
	ViewportWidth  float64 `json:"viewportWidth"`
	FPS            int     `json:"fps"`
	Tempo          float64 `json:"tempo"`
	Layout         string  `json:"layout"`
}

// TempoInputConfig selects the MIDI knob that drives the tempo
type TempoInputConfig struct {
	Port string `json:"port,omitempty"` // substring of the input port name; empty disables
	CC   uint8  `json:"cc"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette          string `json:"palette,omitempty"`
	LastWindowLength int    `json:"lastWindowLength,omitempty"`
	LastActiveTracks int    `json:"lastActiveTracks,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Feed        FeedConfig         `json:"feed"`
	View        ViewConfig         `json:"view"`
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	TempoInput  TempoInputConfig   `json:"tempoInput"`
	UI          UIConfig           `json:"ui,omitempty"`
}

// DefaultFeedHost is used when WS_SERVER_IP is unset
const DefaultFeedHost = "127.0.0.1"

// FeedHostEnv names the environment variable that selects the feed host
const FeedHostEnv = "WS_SERVER_IP"

// FeedAddress builds the websocket address of a feed host
func FeedAddress(host string) string {
	return fmt.Sprintf("ws://%s:8080", host)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			Address:   FeedAddress(DefaultFeedHost),
			Reconnect: true,
		},
		View: ViewConfig{
			MatrixLength:   engine.DefaultMatrixLength,
			MaxTracks:      engine.DefaultMaxTracks,
			ActiveTracks:   engine.DefaultMaxTracks,
			WindowLength:   engine.DefaultWindowLength,
			MinWindow:      engine.DefaultMinWindow,
			MaxWindow:      engine.DefaultMaxWindow,
			FutureFraction: engine.DefaultFutureFraction,
			ViewportWidth:  engine.DefaultViewportWidth,
			FPS:            60,
			Tempo:          engine.DefaultTempo,
			Layout:         "single",
		},
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		TempoInput: TempoInputConfig{
			CC: 1,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-stepscope"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ApplyEnv lets WS_SERVER_IP override the saved feed address. Load does
// not call it, so a config loaded for saving never carries the env host.
func (c *Config) ApplyEnv() {
	if host := os.Getenv(FeedHostEnv); host != "" {
		c.Feed.Address = FeedAddress(host)
	}
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

var ErrInvalid = errors.New("invalid config")

// Validate checks the fields the engine cannot clamp on its own
func (c *Config) Validate() error {
	if c.Feed.Address == "" {
		return fmt.Errorf("%w: empty feed address", ErrInvalid)
	}
	if c.View.FPS <= 0 || c.View.FPS > 240 {
		return fmt.Errorf("%w: fps %d out of range [1, 240]", ErrInvalid, c.View.FPS)
	}
	if c.TempoInput.CC > 127 {
		return fmt.Errorf("%w: tempo cc %d", ErrInvalid, c.TempoInput.CC)
	}
	if _, err := c.EngineParams(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// EngineParams converts the view section into engine parameters
func (c *Config) EngineParams() (engine.Params, error) {
	layout, err := engine.ParseLayout(c.View.Layout)
	if err != nil {
		return engine.Params{}, err
	}
	p := engine.Params{
		MatrixLength:   c.View.MatrixLength,
		MaxTracks:      c.View.MaxTracks,
		ActiveTracks:   c.View.ActiveTracks,
		WindowLength:   c.View.WindowLength,
		MinWindow:      c.View.MinWindow,
		MaxWindow:      c.View.MaxWindow,
		FutureFraction: c.View.FutureFraction,
		ViewportWidth:  c.View.ViewportWidth,
		Tempo:          c.View.Tempo,
		Layout:         layout,
	}
	if c.UI.LastWindowLength > 0 {
		p.WindowLength = c.UI.LastWindowLength
	}
	if c.UI.LastActiveTracks > 0 {
		p.ActiveTracks = c.UI.LastActiveTracks
	}
	return p, p.Validate()
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// IgnoredPorts lists saved controllers that must not be opened
func (c *Config) IgnoredPorts() []string {
	var ports []string
	for _, ctrl := range c.Controllers {
		if !ctrl.AutoConnect {
			ports = append(ports, ctrl.PortName)
		}
	}
	return ports
}
