package engine

import (
	"errors"
	"fmt"
)

// Defaults describe a 512px wide window over a 64 cell, 4 track matrix.
const (
	DefaultMatrixLength   = 64
	DefaultMaxTracks      = 4
	DefaultWindowLength   = 32
	DefaultMinWindow      = 16
	DefaultMaxWindow      = 64
	DefaultFutureFraction = 0.2
	DefaultViewportWidth  = 512.0
)

// Params fixes the engine dimensions at startup
type Params struct {
	MatrixLength   int
	MaxTracks      int
	ActiveTracks   int
	WindowLength   int
	MinWindow      int
	MaxWindow      int
	FutureFraction float64
	ViewportWidth  float64
	Tempo          float64
	Layout         Layout
}

// DefaultParams returns the stock 64 cell, 4 track setup
func DefaultParams() Params {
	return Params{
		MatrixLength:   DefaultMatrixLength,
		MaxTracks:      DefaultMaxTracks,
		ActiveTracks:   DefaultMaxTracks,
		WindowLength:   DefaultWindowLength,
		MinWindow:      DefaultMinWindow,
		MaxWindow:      DefaultMaxWindow,
		FutureFraction: DefaultFutureFraction,
		ViewportWidth:  DefaultViewportWidth,
		Tempo:          DefaultTempo,
		Layout:         LayoutSingle,
	}
}

var ErrInvalidParams = errors.New("invalid engine params")

// Validate rejects dimensions the engine cannot run with. ActiveTracks and
// WindowLength are clamped by New rather than rejected.
func (p Params) Validate() error {
	switch {
	case p.MatrixLength <= 0:
		return fmt.Errorf("%w: matrix length %d", ErrInvalidParams, p.MatrixLength)
	case p.MaxTracks <= 0:
		return fmt.Errorf("%w: max tracks %d", ErrInvalidParams, p.MaxTracks)
	case p.MinWindow < 1 || p.MaxWindow < p.MinWindow:
		return fmt.Errorf("%w: window bounds [%d, %d]", ErrInvalidParams, p.MinWindow, p.MaxWindow)
	case p.FutureFraction < 0 || p.FutureFraction >= 1:
		return fmt.Errorf("%w: future fraction %g", ErrInvalidParams, p.FutureFraction)
	case p.ViewportWidth <= 0:
		return fmt.Errorf("%w: viewport width %g", ErrInvalidParams, p.ViewportWidth)
	}
	if err := p.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// trackLimit is the largest active track count that keeps the cycle >= 1
func (p Params) trackLimit() int {
	return min(p.MaxTracks, p.MatrixLength)
}
