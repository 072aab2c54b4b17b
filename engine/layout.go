package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how a view is refreshed on a step-advance.
type Strategy int

const (
	// Shift drops the oldest sample and appends the sample at the playhead.
	Shift Strategy = iota
	// Lookahead appends the sample previewDepth steps ahead of the playhead
	// and rewrites the previewDepth slots before it from the matrix.
	Lookahead
	// Relay appends the oldest sample of the previous view in the chain.
	Relay
)

func (s Strategy) String() string {
	switch s {
	case Shift:
		return "shift"
	case Lookahead:
		return "lookahead"
	case Relay:
		return "relay"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ViewSpec names one vantage point and how it is populated
type ViewSpec struct {
	Name     string
	Strategy Strategy
}

// Layout is a chain of views ordered from the farthest to the nearest.
// Views are refreshed in this order on every step-advance.
type Layout []ViewSpec

// Built-in layouts
var (
	LayoutSingle = Layout{
		{Name: "visible", Strategy: Lookahead},
	}
	LayoutPreview = Layout{
		{Name: "preview", Strategy: Lookahead},
		{Name: "visible", Strategy: Shift},
	}
	LayoutTriple = Layout{
		{Name: "far", Strategy: Lookahead},
		{Name: "mid", Strategy: Relay},
		{Name: "near", Strategy: Relay},
	}
)

var layouts = map[string]Layout{
	"single":  LayoutSingle,
	"preview": LayoutPreview,
	"triple":  LayoutTriple,
}

var ErrUnknownLayout = errors.New("unknown layout")

// LayoutNames lists the built-in layout names in display order
func LayoutNames() []string {
	return []string{"single", "preview", "triple"}
}

// ParseLayout returns a copy of the named built-in layout
func ParseLayout(name string) (Layout, error) {
	l, ok := layouts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownLayout, name, strings.Join(LayoutNames(), ", "))
	}
	return append(Layout(nil), l...), nil
}

// Validate checks that the chain can be refreshed
func (l Layout) Validate() error {
	if len(l) == 0 {
		return errors.New("layout has no views")
	}
	seen := make(map[string]bool, len(l))
	for i, v := range l {
		if v.Name == "" {
			return fmt.Errorf("view %d has no name", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate view %q", v.Name)
		}
		seen[v.Name] = true
		if v.Strategy < Shift || v.Strategy > Relay {
			return fmt.Errorf("view %q: invalid strategy %d", v.Name, v.Strategy)
		}
	}
	if l[0].Strategy == Relay {
		return fmt.Errorf("view %q: first view cannot relay", l[0].Name)
	}
	return nil
}
