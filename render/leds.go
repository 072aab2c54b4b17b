package render

import "go-stepscope/engine"

// GridSize is the edge of a Launchpad's main grid
const GridSize = 8

// Level is what one pad shows
type Level uint8

const (
	LevelOff Level = iota
	LevelLow       // a 0 sample in the look-ahead region
	LevelOn        // a 1 sample
	LevelAhead     // a 1 sample in the look-ahead region
	LevelNow       // playhead column marker
)

// LEDFrame is a full grid image. Row 0 is the bottom row, matching the
// Launchpad's note layout.
type LEDFrame [GridSize][GridSize]Level

// LEDs renders the first view onto the grid, two rows per track from the
// top down. The upper row shows the newest GridSize samples, the lower row
// marks the playhead column and the look-ahead columns. Tracks beyond
// GridSize/2 are not shown.
func LEDs(snap engine.Snapshot) LEDFrame {
	var f LEDFrame
	if snap.Blank || len(snap.Views) == 0 {
		return f
	}

	view := snap.Views[0]
	s := snap.Scroll
	now := view.NowIndex(s)
	tracks := min(snap.ActiveTracks, len(view.Tracks), GridSize/2)

	for t := 0; t < tracks; t++ {
		buf := view.Tracks[t]
		start := len(buf) - GridSize
		upper := GridSize - 1 - 2*t
		lower := upper - 1

		for col := 0; col < GridSize; col++ {
			slot := start + col
			if slot < 0 {
				continue
			}
			ahead := slot > now
			switch {
			case buf[slot] != 0 && ahead:
				f[upper][col] = LevelAhead
			case buf[slot] != 0:
				f[upper][col] = LevelOn
			case ahead:
				f[upper][col] = LevelLow
			}
			switch {
			case slot == now:
				f[lower][col] = LevelNow
			case ahead:
				f[lower][col] = LevelLow
			}
		}
	}
	return f
}

// Diff lists the pads whose level differs between prev and next
func Diff(prev, next *LEDFrame) [][2]int {
	var changed [][2]int
	for row := range next {
		for col := range next[row] {
			if prev == nil || prev[row][col] != next[row][col] {
				changed = append(changed, [2]int{row, col})
			}
		}
	}
	return changed
}
