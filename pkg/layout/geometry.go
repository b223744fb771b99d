package layout

import (
	"sort"

	"github.com/griddeck/griddeck/pkg/models"
)

// firstCollision returns the first item in items overlapping candidate,
// ignoring any item with the same id
func firstCollision(items []models.LayoutItem, candidate models.LayoutItem) *models.LayoutItem {
	for i := range items {
		if items[i].ID == candidate.ID {
			continue
		}
		if items[i].Intersects(candidate) {
			return &items[i]
		}
	}
	return nil
}

// sortByPosition returns a copy of items in stable top-down order (y, then x)
func sortByPosition(items []models.LayoutItem) []models.LayoutItem {
	sorted := append([]models.LayoutItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	return sorted
}

// compactVertical moves every non-static item as far up as it can go without
// overlapping an item placed before it, preserving stable y-then-x order.
// Static items keep their position and act as obstacles.
func compactVertical(items []models.LayoutItem) []models.LayoutItem {
	sorted := sortByPosition(items)
	placed := make([]models.LayoutItem, 0, len(sorted))
	for _, item := range sorted {
		if !item.Static {
			for item.Y > 0 {
				probe := item
				probe.Y--
				if firstCollision(placed, probe) != nil {
					break
				}
				item.Y--
			}
			for firstCollision(placed, item) != nil {
				item.Y++
			}
		}
		placed = append(placed, item)
	}
	return placed
}

// firstFreePosition scans positions left-to-right, then row by row, and
// returns the first spot where a w×h rectangle fits without overlap
func firstFreePosition(items []models.LayoutItem, w, h, columns int) (int, int) {
	if w > columns {
		w = columns
	}
	maxY := 0
	for _, item := range items {
		if item.Y+item.H > maxY {
			maxY = item.Y + item.H
		}
	}
	for y := 0; y <= maxY; y++ {
		for x := 0; x+w <= columns; x++ {
			probe := models.LayoutItem{X: x, Y: y, W: w, H: h}
			if firstCollision(items, probe) == nil {
				return x, y
			}
		}
	}
	return 0, maxY
}

// clampToBounds forces an item inside the breakpoint's columns and its own
// min/max constraints. Out-of-bounds input is clamped, never rejected.
func clampToBounds(item models.LayoutItem, bp models.Breakpoint) models.LayoutItem {
	columns := bp.Columns()
	if columns < 1 {
		columns = 1
	}
	// Width constraints shrink with the breakpoint: a 1-column grid cannot
	// honor minW 2, so the constraint itself is clamped first.
	if item.MinW > columns {
		item.MinW = columns
	}
	if item.MaxW > columns {
		item.MaxW = columns
	}
	if item.W < 1 {
		item.W = 1
	}
	if item.H < 1 {
		item.H = 1
	}
	if item.MinW > 0 && item.W < item.MinW {
		item.W = item.MinW
	}
	if item.MaxW > 0 && item.W > item.MaxW {
		item.W = item.MaxW
	}
	if item.MinH > 0 && item.H < item.MinH {
		item.H = item.MinH
	}
	if item.MaxH > 0 && item.H > item.MaxH {
		item.H = item.MaxH
	}
	if item.W > columns {
		item.W = columns
	}
	if item.X < 0 {
		item.X = 0
	}
	if item.X+item.W > columns {
		item.X = columns - item.W
	}
	if item.Y < 0 {
		item.Y = 0
	}
	return item
}
