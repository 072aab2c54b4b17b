package engine

import (
	"errors"
	"math"
	"time"

	"go-stepscope/debug"
)

// Requester asks the feed for the current matrix. It must not block.
type Requester interface {
	RequestMatrix() error
}

var ErrNoRequester = errors.New("no matrix requester configured")

// Engine owns the matrix, the scroll clock and the buffer set. All methods
// must be called from the render loop; producers talk to it only through
// the Queue.
type Engine struct {
	params    Params
	store     *Store
	clock     *Clock
	buffers   *BufferSet
	inbox     *Queue
	requester Requester

	position     int
	windowLength int
	activeTracks int
	blank        bool
	stepped      bool

	stats Stats
}

// New creates an engine reading updates from inbox
func New(p Params, inbox *Queue) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if inbox == nil {
		inbox = NewQueue()
	}
	e := &Engine{
		params:       p,
		store:        NewStore(p.MatrixLength),
		clock:        NewClock(p.Tempo),
		inbox:        inbox,
		windowLength: clamp(p.WindowLength, p.MinWindow, p.MaxWindow),
		activeTracks: clamp(p.ActiveTracks, 1, p.trackLimit()),
	}
	e.buffers = NewBufferSet(p.Layout, p.MaxTracks, e.windowLength)
	e.buffers.ahead = e.previewDepth()
	// one before the first step, so the first advance shows step 0
	e.position = e.cycleLength() - 1
	return e, nil
}

// SetRequester sets where RequestMatrixRefresh sends its request
func (e *Engine) SetRequester(r Requester) {
	e.requester = r
}

// Inbox returns the queue producers push updates onto
func (e *Engine) Inbox() *Queue {
	return e.inbox
}

// Frame runs one synchronization point: apply at most one queued update,
// advance the clock, refresh the buffers on a step boundary, and return a
// snapshot for the projectors.
//
// Bursts of updates are applied one per frame in arrival order, never
// coalesced; this bounds the work done in a single frame.
func (e *Engine) Frame(dt time.Duration) Snapshot {
	e.stats.Frames++

	if u, ok := e.inbox.TryPop(); ok {
		if err := e.Apply(u); err != nil {
			debug.Log("engine", "update rejected: %v", err)
		}
	}

	e.stepped = e.clock.Advance(dt, e.stepSize())
	if e.stepped {
		e.step()
	}
	debug.LogEvery(600, "frame", "pos=%d sub=%.2f tempo=%.2f", e.position, e.clock.SubOffset(), e.clock.Tempo())

	return e.Snapshot()
}

// step moves the playhead and refreshes every view in chain order
func (e *Engine) step() {
	cycle := e.cycleLength()
	e.position = (e.position + 1) % cycle
	e.buffers.Advance(e.store, e.position, cycle, e.previewDepth())
	e.stats.Steps++
}

// Apply applies one update immediately
func (e *Engine) Apply(u Update) error {
	switch u := u.(type) {
	case MatrixUpdate:
		if err := e.store.Set(u.Matrix); err != nil {
			e.stats.Rejected++
			return err
		}
	case TempoUpdate:
		e.clock.SetTempo(u.Value * TempoScale)
	case TrackCountUpdate:
		e.SetActiveTracks(u.Value)
	default:
		e.stats.Rejected++
		return errors.New("unknown update type")
	}
	e.stats.Applied++
	return nil
}

// IncreaseWindow shows one more step, up to the ceiling
func (e *Engine) IncreaseWindow() {
	if e.windowLength >= e.params.MaxWindow {
		return
	}
	e.resize(e.windowLength + 1)
	e.buffers.Grow()
}

// DecreaseWindow shows one step less, down to the floor
func (e *Engine) DecreaseWindow() {
	if e.windowLength <= e.params.MinWindow {
		return
	}
	e.resize(e.windowLength - 1)
	e.buffers.Shrink()
}

func (e *Engine) resize(n int) {
	old := e.stepSize()
	e.windowLength = n
	e.clock.Rescale(old, e.stepSize())
	debug.Log("engine", "window length %d", n)
}

// SetActiveTracks changes how the matrix is divided. Buffers of every track
// keep being refreshed, so hidden tracks resume without a reset.
func (e *Engine) SetActiveTracks(n int) {
	n = clamp(n, 1, e.params.trackLimit())
	if n == e.activeTracks {
		return
	}
	e.activeTracks = n
	e.position = mod(e.position, e.cycleLength())
	debug.Log("engine", "active tracks %d (cycle %d)", n, e.cycleLength())
}

// ToggleBlank hides or shows the traces; scrolling continues either way
func (e *Engine) ToggleBlank() {
	e.blank = !e.blank
}

// RequestMatrixRefresh asks the feed for the current matrix
func (e *Engine) RequestMatrixRefresh() error {
	if e.requester == nil {
		return ErrNoRequester
	}
	return e.requester.RequestMatrix()
}

// SetViewportWidth changes the width the window is spread across
func (e *Engine) SetViewportWidth(w float64) {
	if w <= 0 || w == e.params.ViewportWidth {
		return
	}
	old := e.stepSize()
	e.params.ViewportWidth = w
	e.clock.Rescale(old, e.stepSize())
}

// Matrix returns a copy of the current matrix
func (e *Engine) Matrix() []uint8 {
	return e.store.Get()
}

// Stats returns activity counters
func (e *Engine) Stats() Stats {
	s := e.stats
	s.QueuePeak = e.inbox.Peak()
	return s
}

// Snapshot copies the current state for read-only use
func (e *Engine) Snapshot() Snapshot {
	layout := e.buffers.Layout()
	views := make([]ViewSnapshot, len(layout))
	for v, spec := range layout {
		tracks := make([][]uint8, e.buffers.Tracks())
		for t := range tracks {
			tracks[t] = append([]uint8(nil), e.buffers.Buffer(v, t)...)
		}
		views[v] = ViewSnapshot{Name: spec.Name, Strategy: spec.Strategy, Tracks: tracks}
	}
	return Snapshot{
		Scroll: ScrollState{
			Position:     e.position,
			SubOffset:    e.clock.SubOffset(),
			StepSize:     e.stepSize(),
			Tempo:        e.clock.Tempo(),
			WindowLength: e.windowLength,
			CycleLength:  e.cycleLength(),
			PreviewDepth: e.buffers.Ahead(),
		},
		ActiveTracks: e.activeTracks,
		Blank:        e.blank,
		Stepped:      e.stepped,
		Views:        views,
	}
}

func (e *Engine) cycleLength() int {
	return e.store.TrackCycleLength(e.activeTracks)
}

func (e *Engine) stepSize() float64 {
	return e.params.ViewportWidth / float64(e.windowLength)
}

func (e *Engine) previewDepth() int {
	return int(math.Floor(float64(e.windowLength) * e.params.FutureFraction))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
