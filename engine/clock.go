package engine

import (
	"math"
	"time"
)

const (
	// ScrollGain converts tempo units into virtual pixels per second.
	ScrollGain = 10.0

	// TempoScale maps a raw feed tempo value to the internal tempo.
	TempoScale = 1.0 / 32.0

	// DefaultTempo is the internal tempo before any TempoUpdate arrives.
	DefaultTempo = 20.0
)

// Clock advances the sub-step scroll offset and reports step boundaries.
//
// A boundary is detected by the offset wrapping, so at most one step can
// advance per frame. If tempo*dt*ScrollGain reaches a full step within one
// frame the surplus steps are silently lost; callers that need exact step
// counts must clamp dt.
type Clock struct {
	subOffset float64
	tempo     float64
}

// NewClock creates a clock at offset zero
func NewClock(tempo float64) *Clock {
	c := &Clock{}
	c.SetTempo(tempo)
	return c
}

// SetTempo sets the internal tempo; negative values are clamped to 0
func (c *Clock) SetTempo(tempo float64) {
	if tempo < 0 || math.IsNaN(tempo) {
		tempo = 0
	}
	c.tempo = tempo
}

// Tempo returns the internal tempo
func (c *Clock) Tempo() float64 {
	return c.tempo
}

// SubOffset returns the offset into the current step, in [0, stepSize)
func (c *Clock) SubOffset() float64 {
	return c.subOffset
}

// Advance moves the offset forward by dt and reports whether it wrapped.
func (c *Clock) Advance(dt time.Duration, stepSize float64) bool {
	if stepSize <= 0 || c.tempo == 0 {
		return false
	}
	prev := c.subOffset
	next := math.Mod(prev+c.tempo*dt.Seconds()*ScrollGain, stepSize)
	if next < 0 {
		next += stepSize
	}
	c.subOffset = next
	return next < prev
}

// Rescale keeps the fractional progress through the current step when the
// step size changes from oldSize to newSize.
func (c *Clock) Rescale(oldSize, newSize float64) {
	if oldSize <= 0 || newSize <= 0 {
		c.subOffset = 0
		return
	}
	c.subOffset = c.subOffset / oldSize * newSize
	if c.subOffset >= newSize {
		c.subOffset = 0
	}
}
