package engine

import (
	"errors"
	"testing"
)

func TestStoreSetRejectsWrongLength(t *testing.T) {
	s := NewStore(8)
	if err := s.Set([]uint8{1, 0, 1, 0, 1, 0, 1, 0}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err := s.Set([]uint8{1, 1, 1})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}

	got := s.Get()
	want := []uint8{1, 0, 1, 0, 1, 0, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matrix changed after rejected set: %v", got)
		}
	}
}

func TestStoreSetNormalizesAndCopies(t *testing.T) {
	s := NewStore(4)
	in := []uint8{0, 7, 1, 255}
	if err := s.Set(in); err != nil {
		t.Fatal(err)
	}
	in[0] = 1 // caller mutation must not leak in

	got := s.Get()
	want := []uint8{0, 1, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	got[1] = 0 // nor must mutation of the copy leak back
	if s.Get()[1] != 1 {
		t.Fatal("Get returned live storage")
	}
}

func TestTrackCycleLength(t *testing.T) {
	s := NewStore(64)
	cases := []struct {
		active, want int
	}{
		{1, 64},
		{2, 32},
		{3, 21}, // remainder dropped
		{4, 16},
		{0, 0},
		{-1, 0},
	}
	for _, c := range cases {
		if got := s.TrackCycleLength(c.active); got != c.want {
			t.Errorf("TrackCycleLength(%d) = %d, want %d", c.active, got, c.want)
		}
	}
}

func TestCellWrapsNegativeSteps(t *testing.T) {
	s := NewStore(8)
	// track 0 = 0..3, track 1 = 4..7
	if err := s.Set([]uint8{1, 0, 0, 0, 0, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		track, step, want int
	}{
		{0, 0, 1},
		{0, -4, 1},
		{0, -1, 0},
		{1, -1, 1}, // last step of track 1
		{1, 3, 1},
		{1, 7, 1},
		{1, 4, 0},
		{2, 0, 1}, // hidden track wraps to the start of the matrix
	}
	for _, c := range cases {
		if got := s.Cell(c.track, c.step, 4); int(got) != c.want {
			t.Errorf("Cell(%d, %d, 4) = %d, want %d", c.track, c.step, got, c.want)
		}
	}

	if got := s.Cell(0, 0, 0); got != 0 {
		t.Fatalf("Cell with zero cycle = %d, want 0", got)
	}
}

func TestMod(t *testing.T) {
	cases := []struct{ a, n, want int }{
		{5, 4, 1},
		{-1, 4, 3},
		{-4, 4, 0},
		{-9, 4, 3},
		{0, 1, 0},
	}
	for _, c := range cases {
		if got := mod(c.a, c.n); got != c.want {
			t.Errorf("mod(%d, %d) = %d, want %d", c.a, c.n, got, c.want)
		}
	}
}
