package engine

// ScrollState is the timing state read by projectors
type ScrollState struct {
	Position     int     // playhead step in [0, CycleLength)
	SubOffset    float64 // offset into the current step, [0, StepSize)
	StepSize     float64 // virtual pixels per step
	Tempo        float64
	WindowLength int
	CycleLength  int
	PreviewDepth int // look-ahead steps held by Lookahead views since the last step
}

// ViewSnapshot is a copy of one view's windows, one per track
type ViewSnapshot struct {
	Name     string
	Strategy Strategy
	Tracks   [][]uint8
}

// NowIndex returns the window slot that holds the playhead step.
// Lookahead views put the playhead PreviewDepth slots before the end.
func (v ViewSnapshot) NowIndex(s ScrollState) int {
	last := s.WindowLength
	if v.Strategy == Lookahead {
		return last - s.PreviewDepth
	}
	return last
}

// Snapshot is a deep copy of everything a projector may read for one frame
type Snapshot struct {
	Scroll       ScrollState
	ActiveTracks int
	Blank        bool
	Stepped      bool // a step-advance happened in this frame
	Views        []ViewSnapshot
}

// View returns the view with the given name
func (s Snapshot) View(name string) (ViewSnapshot, bool) {
	for _, v := range s.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewSnapshot{}, false
}

// Stats counts engine activity since creation
type Stats struct {
	Frames    uint64
	Steps     uint64
	Applied   uint64
	Rejected  uint64
	QueuePeak int
}
