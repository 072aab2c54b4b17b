package engine

import "fmt"

// Op is a discrete input command
type Op int

const (
	OpIncreaseWindow Op = iota
	OpDecreaseWindow
	OpSetActiveTracks
	OpToggleBlank
	OpRequestMatrixRefresh
)

func (o Op) String() string {
	switch o {
	case OpIncreaseWindow:
		return "increase-window"
	case OpDecreaseWindow:
		return "decrease-window"
	case OpSetActiveTracks:
		return "set-active-tracks"
	case OpToggleBlank:
		return "toggle-blank"
	case OpRequestMatrixRefresh:
		return "request-matrix"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is an input command. Tracks is only used by OpSetActiveTracks.
type Command struct {
	Op     Op
	Tracks int
}

// Execute runs one input command on the engine
func (e *Engine) Execute(c Command) error {
	switch c.Op {
	case OpIncreaseWindow:
		e.IncreaseWindow()
	case OpDecreaseWindow:
		e.DecreaseWindow()
	case OpSetActiveTracks:
		e.SetActiveTracks(c.Tracks)
	case OpToggleBlank:
		e.ToggleBlank()
	case OpRequestMatrixRefresh:
		return e.RequestMatrixRefresh()
	default:
		return fmt.Errorf("unknown command %v", c.Op)
	}
	return nil
}
