package nav

import (
	"tubenav/cursor"
	"tubenav/dom"
)

// Discovery is the readiness of the current item set.
type Discovery int

const (
	// NotReady: no discovery pass has produced items yet.
	NotReady Discovery = iota
	// Ready: the last pass produced at least one item.
	Ready
	// Stale: the host navigated since the last pass; re-discovery is pending.
	Stale
)

func (d Discovery) String() string {
	switch d {
	case NotReady:
		return "not-ready"
	case Ready:
		return "ready"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// State is the only mutable navigation state. Items and Cursor are always
// replaced together by a discovery pass.
type State struct {
	Items     []dom.Element
	Cursor    cursor.Cursor
	Discovery Discovery
	Strategy  string // strategy that produced Items
}

// Selected returns the item under the cursor, or nil.
func (s State) Selected() dom.Element {
	i, ok := s.Cursor.Index()
	if !ok || i >= len(s.Items) {
		return nil
	}
	return s.Items[i]
}
