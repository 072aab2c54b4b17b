package engine

import (
	"testing"
	"time"
)

func TestClockZeroTempoFreezes(t *testing.T) {
	c := NewClock(0)
	for i := 0; i < 1000; i++ {
		if c.Advance(16*time.Millisecond, 8) {
			t.Fatalf("frame %d: step fired at tempo 0", i)
		}
	}
	if c.SubOffset() != 0 {
		t.Fatalf("sub offset moved to %v", c.SubOffset())
	}
}

func TestClockFiresOncePerWrap(t *testing.T) {
	// 20 * 1/32s * 10 = 6.25px per frame against 8px steps
	c := NewClock(20)
	dt := time.Second / 32

	steps := 0
	for i := 0; i < 64; i++ {
		prev := c.SubOffset()
		fired := c.Advance(dt, 8)
		if fired != (c.SubOffset() < prev) {
			t.Fatalf("frame %d: fired=%v but offset %v -> %v", i, fired, prev, c.SubOffset())
		}
		if c.SubOffset() < 0 || c.SubOffset() >= 8 {
			t.Fatalf("frame %d: offset %v out of range", i, c.SubOffset())
		}
		if fired {
			steps++
		}
	}
	// 64 * 6.25 = 400px = 50 steps
	if steps != 50 {
		t.Fatalf("got %d steps, want 50", steps)
	}
}

func TestClockLargeDeltaSkipsButNeverRepeats(t *testing.T) {
	c := NewClock(20)
	c.Advance(time.Second/32, 8) // offset 6.25

	// 10.0625s = 2012.5px = 251.5 steps, reported as a single step
	fired := c.Advance(10*time.Second+time.Second/16, 8)
	if !fired {
		t.Fatal("expected the wrap to be reported")
	}
	if got := c.SubOffset(); got != 2.75 {
		t.Fatalf("offset = %v, want 2.75", got)
	}

	// A whole multiple of the step size lands on the same offset: no wrap seen
	if c.Advance(4*time.Second, 8) {
		t.Fatal("exact multiple of a step must not report a wrap")
	}
}

func TestClockNegativeTempoClamped(t *testing.T) {
	c := NewClock(-5)
	if c.Tempo() != 0 {
		t.Fatalf("tempo = %v, want 0", c.Tempo())
	}
	if c.Advance(time.Second, 8) {
		t.Fatal("negative tempo must not scroll")
	}
}

func TestClockRescale(t *testing.T) {
	c := NewClock(20)
	c.Advance(time.Second/32, 8) // 6.25 of 8
	c.Rescale(8, 16)
	if got := c.SubOffset(); got != 12.5 {
		t.Fatalf("offset = %v, want 12.5", got)
	}
	c.Rescale(16, 0)
	if c.SubOffset() != 0 {
		t.Fatal("rescale to zero width must reset")
	}
}
