package models

import "fmt"

// LayoutItem describes one widget's rectangle in one breakpoint's grid
type LayoutItem struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
	MinW   int    `json:"minW,omitempty"`
	MinH   int    `json:"minH,omitempty"`
	MaxW   int    `json:"maxW,omitempty"`
	MaxH   int    `json:"maxH,omitempty"`
	Static bool   `json:"static,omitempty"`

	// Moved is an ephemeral flag set by the grid renderer during a drag
	// gesture. It is stripped during normalization and never persisted.
	Moved bool `json:"moved,omitempty"`
}

// Layout holds each breakpoint's item list
type Layout map[Breakpoint][]LayoutItem

// Intersects reports whether two items' rectangles overlap
func (li LayoutItem) Intersects(other LayoutItem) bool {
	if li.X+li.W <= other.X || other.X+other.W <= li.X {
		return false
	}
	if li.Y+li.H <= other.Y || other.Y+other.H <= li.Y {
		return false
	}
	return true
}

// Validate checks the bounds invariants of an item within the given breakpoint
func (li LayoutItem) Validate(bp Breakpoint) error {
	if li.ID == "" {
		return fmt.Errorf("layout item must have an id")
	}
	if li.X < 0 || li.Y < 0 {
		return fmt.Errorf("layout item %s has negative position (%d, %d)", li.ID, li.X, li.Y)
	}
	if li.W < 1 || li.H < 1 {
		return fmt.Errorf("layout item %s has non-positive size (%dx%d)", li.ID, li.W, li.H)
	}
	if cols := bp.Columns(); cols > 0 && li.X+li.W > cols {
		return fmt.Errorf("layout item %s exceeds %s column count: x=%d w=%d columns=%d", li.ID, bp, li.X, li.W, cols)
	}
	if li.MinW > 0 && li.W < li.MinW {
		return fmt.Errorf("layout item %s width %d below minW %d", li.ID, li.W, li.MinW)
	}
	if li.MaxW > 0 && li.W > li.MaxW {
		return fmt.Errorf("layout item %s width %d above maxW %d", li.ID, li.W, li.MaxW)
	}
	if li.MinH > 0 && li.H < li.MinH {
		return fmt.Errorf("layout item %s height %d below minH %d", li.ID, li.H, li.MinH)
	}
	if li.MaxH > 0 && li.H > li.MaxH {
		return fmt.Errorf("layout item %s height %d above maxH %d", li.ID, li.H, li.MaxH)
	}
	return nil
}

// Validate checks every breakpoint's item list for bounds and overlap violations
func (l Layout) Validate() error {
	for bp, items := range l {
		if err := bp.Validate(); err != nil {
			return err
		}
		for i, item := range items {
			if err := item.Validate(bp); err != nil {
				return err
			}
			for _, other := range items[:i] {
				if item.ID == other.ID {
					return fmt.Errorf("duplicate layout item id %s in breakpoint %s", item.ID, bp)
				}
				if item.Intersects(other) {
					return fmt.Errorf("layout items %s and %s overlap in breakpoint %s", other.ID, item.ID, bp)
				}
			}
		}
	}
	return nil
}

// IDs returns the distinct item ids across all breakpoints
func (l Layout) IDs() map[string]bool {
	ids := make(map[string]bool)
	for _, items := range l {
		for _, item := range items {
			ids[item.ID] = true
		}
	}
	return ids
}

// SizingHint carries a widget kind's preferred grid footprint
type SizingHint struct {
	W    int `json:"w"`
	H    int `json:"h"`
	MinW int `json:"minW,omitempty"`
	MinH int `json:"minH,omitempty"`
	MaxW int `json:"maxW,omitempty"`
	MaxH int `json:"maxH,omitempty"`
}
