// Package render turns engine snapshots into geometry. It never mutates a
// snapshot and keeps no state between frames.
package render

import "math"

// Point is a position in scene units, y grows downward
type Point struct {
	X, Y float64
}

// Segment is one straight piece of a trace. Segments are always horizontal
// or vertical.
type Segment struct {
	A, B   Point
	Track  int
	Future bool // right of the playhead marker
}

// Vertical reports whether the segment is an edge
func (s Segment) Vertical() bool {
	return s.A.X == s.B.X
}

// Lane is the vertical band a track is drawn in. Low is the y of a 0
// sample, High the y of a 1 sample.
type Lane struct {
	Low, High float64
}

// Lanes splits height into one band per track, first track on top. Each
// trace spans the middle of its band.
func Lanes(tracks int, height float64) []Lane {
	if tracks <= 0 || height <= 0 {
		return nil
	}
	band := height / float64(tracks)
	lanes := make([]Lane, tracks)
	for t := range lanes {
		top := band * float64(t)
		lanes[t] = Lane{
			High: math.Floor(top + band*0.25),
			Low:  math.Floor(top + band*0.75),
		}
	}
	return lanes
}

// Trace draws one window as a square wave: a horizontal run per sample and
// a vertical edge wherever the value changes. Sample i starts at
// originX + i*stepSize. The level before the first sample counts as 0.
func Trace(buf []uint8, originX, stepSize float64, lane Lane) []Segment {
	segs := make([]Segment, 0, len(buf)+len(buf)/2)
	var prev uint8
	for i, v := range buf {
		x0 := originX + stepSize*float64(i)
		x1 := x0 + stepSize
		y := lane.Low
		if v != 0 {
			y = lane.High
		}
		if v != prev {
			segs = append(segs, Segment{A: Point{x0, lane.Low}, B: Point{x0, lane.High}})
		}
		segs = append(segs, Segment{A: Point{x0, y}, B: Point{x1, y}})
		prev = v
	}
	return segs
}

// clip keeps the part of s inside [0, width]. ok is false when nothing is
// left.
func clip(s Segment, width float64) (Segment, bool) {
	if s.Vertical() {
		return s, s.A.X >= 0 && s.A.X <= width
	}
	lo, hi := math.Min(s.A.X, s.B.X), math.Max(s.A.X, s.B.X)
	if hi <= 0 || lo >= width {
		return s, false
	}
	s.A.X, s.B.X = math.Max(lo, 0), math.Min(hi, width)
	return s, true
}
