package theme

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// Phosphor is the built-in palette: an oscilloscope green ramp from the
// screen background to the brightest trace
var Phosphor = &Palette{
	Name: "phosphor",
	Colors: []RGB{
		{0x04, 0x0a, 0x04},
		{0x0b, 0x24, 0x0e},
		{0x16, 0x4a, 0x1c},
		{0x1f, 0x7a, 0x2a},
		{0x2f, 0xb0, 0x3c},
		{0x4c, 0xe0, 0x5a},
		{0x9c, 0xff, 0x9f},
		{0xe6, 0xff, 0xd8},
	},
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := &Palette{}
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if name, ok := strings.CutPrefix(line, "Name:"); ok {
			p.Name = strings.TrimSpace(name)
			continue
		}

		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// R G B [name]
		if c, ok := parseRGB(strings.Fields(line)); ok {
			p.Colors = append(p.Colors, c)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %s", path)
	}

	return p, nil
}

func parseRGB(fields []string) (RGB, bool) {
	if len(fields) < 3 {
		return RGB{}, false
	}
	var c RGB
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return RGB{}, false
		}
		c[i] = uint8(v)
	}
	return c, true
}

// Lookup returns the color at norm (0-1) along the palette, blended in
// Lab space between neighbouring entries
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 || len(p.Colors) == 1 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c := toColorful(p.Colors[i]).BlendLab(toColorful(p.Colors[i+1]), frac).Clamped()
	r, g, b := c.RGB255()
	return RGB{r, g, b}
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}

// Hex formats c as #rrggbb
func (c RGB) Hex() string {
	return toColorful(c).Hex()
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}
