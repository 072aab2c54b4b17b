package render

import (
	"testing"
	"time"

	"go-stepscope/engine"
)

func TestTraceEdges(t *testing.T) {
	lane := Lane{Low: 10, High: 2}
	segs := Trace([]uint8{0, 1, 1, 0}, 0, 4, lane)

	// 4 runs, a rise before sample 1 and a fall before sample 3
	if len(segs) != 6 {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}

	var edges []Segment
	for _, s := range segs {
		if s.Vertical() {
			edges = append(edges, s)
		}
	}
	if len(edges) != 2 || edges[0].A.X != 4 || edges[1].A.X != 12 {
		t.Fatalf("edges %+v", edges)
	}

	runs := map[float64]float64{}
	for _, s := range segs {
		if !s.Vertical() {
			runs[s.A.X] = s.A.Y
		}
	}
	want := map[float64]float64{0: 10, 4: 2, 8: 2, 12: 10}
	for x, y := range want {
		if runs[x] != y {
			t.Errorf("run at x=%g has y=%g, want %g", x, runs[x], y)
		}
	}
}

func TestTraceStartsLow(t *testing.T) {
	segs := Trace([]uint8{1}, 5, 2, Lane{Low: 3, High: 1})
	if len(segs) != 2 || !segs[0].Vertical() || segs[0].A.X != 5 {
		t.Fatalf("leading 1 should rise from the baseline: %+v", segs)
	}
}

func TestLanesSplitHeight(t *testing.T) {
	lanes := Lanes(2, 40)
	if len(lanes) != 2 {
		t.Fatal("want 2 lanes")
	}
	if lanes[0] != (Lane{High: 5, Low: 15}) || lanes[1] != (Lane{High: 25, Low: 35}) {
		t.Fatalf("lanes %+v", lanes)
	}
	if Lanes(0, 40) != nil {
		t.Fatal("no tracks, no lanes")
	}
}

func TestClip(t *testing.T) {
	s, ok := clip(Segment{A: Point{-2, 1}, B: Point{3, 1}}, 10)
	if !ok || s.A.X != 0 || s.B.X != 3 {
		t.Fatalf("left clip %+v ok=%v", s, ok)
	}
	if _, ok := clip(Segment{A: Point{10, 1}, B: Point{12, 1}}, 10); ok {
		t.Fatal("segment past the right edge kept")
	}
	if _, ok := clip(Segment{A: Point{-1, 0}, B: Point{-1, 5}}, 10); ok {
		t.Fatal("edge left of the viewport kept")
	}
}

func snapshotWith(t *testing.T, layout engine.Layout, mutate func(e *engine.Engine)) engine.Snapshot {
	t.Helper()
	p := engine.DefaultParams()
	p.Layout = layout
	p.WindowLength = 16
	e, err := engine.New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := make([]uint8, p.MatrixLength)
	for i := range m {
		m[i] = uint8(i % 2)
	}
	if err := e.Apply(engine.MatrixUpdate{Matrix: m}); err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(e)
	}
	return e.Snapshot()
}

func TestProjectMarksFuture(t *testing.T) {
	snap := snapshotWith(t, engine.LayoutSingle, nil)
	view := snap.Views[0]
	sc := Project(snap, view, 160, 40)

	// W=16, depth=3, so the marker sits at slot 13
	if sc.NowX != 130 {
		t.Fatalf("NowX = %g, want 130", sc.NowX)
	}
	if len(sc.Segments) == 0 {
		t.Fatal("no segments")
	}

	tracks := map[int]bool{}
	for _, s := range sc.Segments {
		tracks[s.Track] = true
		if s.A.X < 0 || s.B.X > 160 {
			t.Fatalf("segment outside the viewport: %+v", s)
		}
		if s.Future != (s.A.X >= 130) {
			t.Fatalf("future flag wrong on %+v", s)
		}
	}
	if len(tracks) != 4 {
		t.Fatalf("drew %d tracks, want 4", len(tracks))
	}
}

func TestProjectBlankDrawsNothing(t *testing.T) {
	snap := snapshotWith(t, engine.LayoutSingle, func(e *engine.Engine) { e.ToggleBlank() })
	sc := Project(snap, snap.Views[0], 160, 40)
	if !sc.Blank || len(sc.Segments) != 0 {
		t.Fatalf("blank scene has %d segments", len(sc.Segments))
	}
}

func TestProjectShiftViewHasNoMarker(t *testing.T) {
	snap := snapshotWith(t, engine.LayoutPreview, nil)
	scenes := ProjectAll(snap, 160, 40)
	if len(scenes) != 2 {
		t.Fatalf("got %d scenes", len(scenes))
	}
	if scenes[0].NowX < 0 {
		t.Fatal("preview view should have a marker")
	}
	if scenes[1].NowX >= 0 {
		t.Fatal("shift view should not have a marker")
	}
}

func TestProjectOnlyActiveTracks(t *testing.T) {
	snap := snapshotWith(t, engine.LayoutSingle, func(e *engine.Engine) { e.SetActiveTracks(2) })
	for _, s := range Project(snap, snap.Views[0], 160, 40).Segments {
		if s.Track >= 2 {
			t.Fatalf("inactive track %d drawn", s.Track)
		}
	}
}

func TestLEDs(t *testing.T) {
	snap := snapshotWith(t, engine.LayoutSingle, func(e *engine.Engine) {
		// 32px steps at 200px/s: 20px, then 40px wraps to 8 and steps
		if e.Frame(100 * time.Millisecond).Stepped {
			t.Fatal("stepped before the offset wrapped")
		}
		if !e.Frame(100 * time.Millisecond).Stepped {
			t.Fatal("expected a step")
		}
	})

	f := LEDs(snap)
	// W=16 -> 17 samples, now at slot 13, the grid shows slots 9..16
	upper, lower := GridSize-1, GridSize-2
	if f[lower][4] != LevelNow {
		t.Fatalf("playhead marker missing: %v", f[lower])
	}
	for col := 5; col < GridSize; col++ {
		if f[lower][col] != LevelLow {
			t.Fatalf("look-ahead column %d not marked: %v", col, f[lower])
		}
		if f[upper][col] != LevelAhead && f[upper][col] != LevelLow {
			t.Fatalf("look-ahead sample %d shown as %v", col, f[upper][col])
		}
	}

	if LEDs(snapshotWith(t, engine.LayoutSingle, func(e *engine.Engine) { e.ToggleBlank() })) != (LEDFrame{}) {
		t.Fatal("blank frame should be dark")
	}
}

func TestDiff(t *testing.T) {
	var a, b LEDFrame
	if got := Diff(&a, &b); len(got) != 0 {
		t.Fatalf("equal frames differ at %v", got)
	}
	b[3][5] = LevelOn
	got := Diff(&a, &b)
	if len(got) != 1 || got[0] != [2]int{3, 5} {
		t.Fatalf("Diff = %v", got)
	}
	if n := len(Diff(nil, &b)); n != GridSize*GridSize {
		t.Fatalf("Diff against nil = %d pads", n)
	}
}
