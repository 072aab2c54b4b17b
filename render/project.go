package render

import "go-stepscope/engine"

// Scene is everything needed to draw one view for one frame
type Scene struct {
	Name     string
	Width    float64
	Height   float64
	Segments []Segment
	// NowX is where the playhead marker goes; negative when the view has
	// no look-ahead region.
	NowX  float64
	Blank bool
}

// Project lays out the active tracks of view in a width x height area.
// The window spans the whole width; the extra sample scrolls in from the
// right as the sub-step offset grows.
func Project(snap engine.Snapshot, view engine.ViewSnapshot, width, height float64) Scene {
	sc := Scene{Name: view.Name, Width: width, Height: height, NowX: -1, Blank: snap.Blank}

	s := snap.Scroll
	if s.WindowLength <= 0 || width <= 0 {
		return sc
	}
	step := width / float64(s.WindowLength)

	if now := view.NowIndex(s); now < s.WindowLength {
		sc.NowX = step * float64(now)
	}
	if snap.Blank {
		return sc
	}

	// the offset is measured in engine pixels
	sub := 0.0
	if s.StepSize > 0 {
		sub = s.SubOffset / s.StepSize * step
	}

	tracks := min(snap.ActiveTracks, len(view.Tracks))
	lanes := Lanes(tracks, height)
	for t := 0; t < tracks; t++ {
		for _, seg := range Trace(view.Tracks[t], -sub, step, lanes[t]) {
			seg, ok := clip(seg, width)
			if !ok {
				continue
			}
			seg.Track = t
			seg.Future = sc.NowX >= 0 && seg.A.X >= sc.NowX
			sc.Segments = append(sc.Segments, seg)
		}
	}
	return sc
}

// ProjectAll projects every view of snap, stacked in chain order
func ProjectAll(snap engine.Snapshot, width, height float64) []Scene {
	scenes := make([]Scene, len(snap.Views))
	for i, v := range snap.Views {
		scenes[i] = Project(snap, v, width, height)
	}
	return scenes
}
