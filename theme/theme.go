package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"go-stepscope/render"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Marker rune // ┊ playhead line
	Pad    rune // ■ LED preview
	Off    rune // · dark LED
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Phosphor
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Marker: '┊',
			Pad:    '■',
			Off:    '·',
		},
	}
}

// Load returns the theme for the palette at path, or the built-in one
// when path is empty
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// ApplyEnv drops to plain text when NO_COLOR is set
func ApplyEnv() {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG     = 0.0
	RoleMuted  = 0.3
	RoleFuture = 0.45
	RoleFG     = 0.6
	RoleTrace  = 0.75
	RoleMarker = 0.9
	RoleAccent = 1.0
)

func (t *Theme) BG() lipgloss.Color {
	return t.Color(RoleBG)
}

func (t *Theme) FG() lipgloss.Color {
	return t.Color(RoleFG)
}

func (t *Theme) Muted() lipgloss.Color {
	return t.Color(RoleMuted)
}

func (t *Theme) Accent() lipgloss.Color {
	return t.Color(RoleAccent)
}

func (t *Theme) Trace() lipgloss.Color {
	return t.Color(RoleTrace)
}

func (t *Theme) Future() lipgloss.Color {
	return t.Color(RoleFuture)
}

func (t *Theme) Marker() lipgloss.Color {
	return t.Color(RoleMarker)
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// RGB returns raw RGB for any normalized value (for Launchpad)
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

// LED returns the pad color for a level
func (t *Theme) LED(l render.Level) RGB {
	switch l {
	case render.LevelLow:
		return t.RGB(RoleMuted)
	case render.LevelOn:
		return t.RGB(RoleTrace)
	case render.LevelAhead:
		return t.RGB(RoleFuture)
	case render.LevelNow:
		return t.RGB(RoleAccent)
	}
	return RGB{}
}
