package engine

// BufferSet holds one rolling window per view per track. Every window has
// the same length: the window length plus one sample for the partially
// scrolled step.
type BufferSet struct {
	layout Layout
	bufs   [][][]uint8 // view -> track -> samples, newest last
	ahead  int         // look-ahead depth of the last Lookahead fill
}

// NewBufferSet allocates zeroed windows for every view and track
func NewBufferSet(layout Layout, tracks, windowLength int) *BufferSet {
	b := &BufferSet{
		layout: layout,
		bufs:   make([][][]uint8, len(layout)),
	}
	for v := range b.bufs {
		b.bufs[v] = make([][]uint8, tracks)
		for t := range b.bufs[v] {
			b.bufs[v][t] = make([]uint8, windowLength+1)
		}
	}
	return b
}

// Layout returns the view chain
func (b *BufferSet) Layout() Layout {
	return b.layout
}

// Tracks returns the number of tracks kept per view
func (b *BufferSet) Tracks() int {
	if len(b.bufs) == 0 {
		return 0
	}
	return len(b.bufs[0])
}

// Len returns the number of samples in every window
func (b *BufferSet) Len() int {
	if len(b.bufs) == 0 || len(b.bufs[0]) == 0 {
		return 0
	}
	return len(b.bufs[0][0])
}

// Buffer returns the live window of a view and track. Callers outside the
// render loop must copy it.
func (b *BufferSet) Buffer(view, track int) []uint8 {
	return b.bufs[view][track]
}

// Ahead returns how many slots after the playhead the Lookahead views
// hold. It only changes on Advance, so a resize between steps keeps the
// playhead slot where the samples actually are.
func (b *BufferSet) Ahead() int {
	return min(b.ahead, max(b.Len()-1, 0))
}

// Grow prepends a zero sample to every window. History is never invented.
func (b *BufferSet) Grow() {
	for v := range b.bufs {
		for t, buf := range b.bufs[v] {
			grown := make([]uint8, len(buf)+1)
			copy(grown[1:], buf)
			b.bufs[v][t] = grown
		}
	}
}

// Shrink drops the oldest sample from every window
func (b *BufferSet) Shrink() {
	for v := range b.bufs {
		for t, buf := range b.bufs[v] {
			if len(buf) > 1 {
				b.bufs[v][t] = buf[1:]
			}
		}
	}
}

// Advance refreshes every view once, in chain order, for the playhead at
// position in a cycle of the given length. depth is the number of
// look-ahead steps shown by Lookahead views.
func (b *BufferSet) Advance(store *Store, position, cycle, depth int) {
	b.ahead = depth
	for v, spec := range b.layout {
		for t := range b.bufs[v] {
			switch spec.Strategy {
			case Shift:
				b.bufs[v][t] = shiftAppend(b.bufs[v][t], store.Cell(t, position, cycle))
			case Lookahead:
				b.bufs[v][t] = fillAhead(b.bufs[v][t], store, t, position, cycle, depth)
			case Relay:
				// the upstream view has already shifted this step
				b.bufs[v][t] = shiftAppend(b.bufs[v][t], b.bufs[v-1][t][0])
			}
		}
	}
}

// shiftAppend slides the window by one. Re-slicing forward and appending
// reallocates only when capacity runs out, so a step is amortized O(1).
func shiftAppend(buf []uint8, sample uint8) []uint8 {
	return append(buf[1:], sample)
}

// fillAhead shifts in the sample at position+depth, then rewrites the depth
// slots before it so that slot len-1-depth+k holds position+k. Recomputing
// from the matrix keeps the preview correct right after a matrix update.
func fillAhead(buf []uint8, store *Store, track, position, cycle, depth int) []uint8 {
	head := position + depth
	buf = shiftAppend(buf, store.Cell(track, head, cycle))
	last := len(buf) - 1
	for n := 1; n <= depth && n <= last; n++ {
		buf[last-n] = store.Cell(track, head-n, cycle)
	}
	return buf
}
