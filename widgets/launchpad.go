package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-stepscope/render"
	"go-stepscope/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color theme.RGB, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color.Hex()))
	return style.Render(string(symbol))
}

// RenderPadGrid previews an LED frame as the Launchpad would show it
// (row 0 at bottom, row 7 at top)
func RenderPadGrid(f render.LEDFrame, th *theme.Theme) string {
	lines := make([]string, 0, render.GridSize)
	for row := render.GridSize - 1; row >= 0; row-- {
		var line strings.Builder
		for col := 0; col < render.GridSize; col++ {
			if col > 0 {
				line.WriteString(" ")
			}
			level := f[row][col]
			if level == render.LevelOff {
				line.WriteString(RenderPad(th.RGB(theme.RoleMuted), th.Symbols.Off))
				continue
			}
			line.WriteString(RenderPad(th.LED(level), th.Symbols.Pad))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine formats key bindings on one line: "key:desc  key:desc"
func RenderKeyLine(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key + ":" + k.Desc
	}
	return strings.Join(parts, "  ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
