package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-stepscope/render"
)

// line directions leaving a cell
const (
	up uint8 = 1 << iota
	down
	left
	right
)

var boxRunes = [16]rune{
	0:                        ' ',
	up:                       '╵',
	down:                     '╷',
	up | down:                '│',
	left:                     '╴',
	right:                    '╶',
	left | right:             '─',
	down | right:             '┌',
	down | left:              '┐',
	up | right:               '└',
	up | left:                '┘',
	up | down | right:        '├',
	up | down | left:         '┤',
	down | left | right:      '┬',
	up | left | right:        '┴',
	up | down | left | right: '┼',
}

// Class picks the style a cell is drawn with
type Class uint8

const (
	ClassNone Class = iota
	ClassTrace
	ClassFuture
	ClassMarker
)

// Canvas rasterizes horizontal and vertical lines into box-drawing
// characters, one cell per terminal column and row
type Canvas struct {
	w, h  int
	dirs  []uint8
	class []Class
	marks []rune
}

func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 0), max(h, 0)
	return &Canvas{
		w:     w,
		h:     h,
		dirs:  make([]uint8, w*h),
		class: make([]Class, w*h),
		marks: make([]rune, w*h),
	}
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }

func (c *Canvas) in(x, y int) bool {
	return x >= 0 && x < c.w && y >= 0 && y < c.h
}

func (c *Canvas) set(x, y int, d uint8, cl Class) {
	if !c.in(x, y) {
		return
	}
	i := y*c.w + x
	c.dirs[i] |= d
	if cl > c.class[i] || c.class[i] == ClassMarker {
		// traces draw over the marker
		c.class[i] = cl
	}
}

// HLine draws from column x0 to x1 on row y
func (c *Canvas) HLine(y, x0, x1 int, cl Class) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		var d uint8
		if x > x0 {
			d |= left
		}
		if x < x1 {
			d |= right
		}
		if x0 == x1 {
			d = left | right
		}
		c.set(x, y, d, cl)
	}
}

// VLine draws from row y0 to y1 in column x
func (c *Canvas) VLine(x, y0, y1 int, cl Class) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		var d uint8
		if y > y0 {
			d |= up
		}
		if y < y1 {
			d |= down
		}
		c.set(x, y, d, cl)
	}
}

// Mark puts r in every empty cell of column x that lies on an even row,
// a dashed playhead line
func (c *Canvas) Mark(x int, r rune) {
	for y := 0; y < c.h; y += 2 {
		if c.in(x, y) {
			c.marks[y*c.w+x] = r
			if c.class[y*c.w+x] == ClassNone {
				c.class[y*c.w+x] = ClassMarker
			}
		}
	}
}

// Rune returns what cell x, y shows
func (c *Canvas) Rune(x, y int) rune {
	if !c.in(x, y) {
		return ' '
	}
	i := y*c.w + x
	if c.dirs[i] == 0 && c.marks[i] != 0 {
		return c.marks[i]
	}
	return boxRunes[c.dirs[i]]
}

// Lines returns the canvas as plain text, one string per row
func (c *Canvas) Lines() []string {
	lines := make([]string, c.h)
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		b.Reset()
		for x := 0; x < c.w; x++ {
			b.WriteRune(c.Rune(x, y))
		}
		lines[y] = b.String()
	}
	return lines
}

// Render styles each run of same-class cells with styles[class]. Classes
// without a style are written plain.
func (c *Canvas) Render(styles map[Class]lipgloss.Style) string {
	rows := make([]string, c.h)
	var b, run strings.Builder
	for y := 0; y < c.h; y++ {
		b.Reset()
		cur := ClassNone
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if st, ok := styles[cur]; ok {
				b.WriteString(st.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for x := 0; x < c.w; x++ {
			if cl := c.class[y*c.w+x]; cl != cur {
				flush()
				cur = cl
			}
			run.WriteRune(c.Rune(x, y))
		}
		flush()
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}

// DrawScene rasterizes a projected scene. Scene units map to cells, so the
// scene should be projected at the canvas size.
func DrawScene(c *Canvas, sc render.Scene, marker rune) {
	if sc.NowX >= 0 {
		c.Mark(cell(sc.NowX), marker)
	}
	for _, s := range sc.Segments {
		cl := ClassTrace
		if s.Future {
			cl = ClassFuture
		}
		if s.Vertical() {
			c.VLine(cell(s.A.X), cell(s.A.Y), cell(s.B.Y), cl)
			continue
		}
		// runs share their end column with the next run or edge
		c.HLine(cell(s.A.Y), cell(s.A.X), cell(s.B.X), cl)
	}
}

func cell(v float64) int {
	return int(math.Floor(v))
}
