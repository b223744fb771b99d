package layout

import (
	"sort"

	"github.com/griddeck/griddeck/pkg/models"
)

// normalizeItems strips ephemeral renderer fields and orders items by id so
// two geometries can be compared structurally
func normalizeItems(items []models.LayoutItem) []models.LayoutItem {
	normalized := make([]models.LayoutItem, len(items))
	for i, item := range items {
		item.Moved = false
		if item.MinW < 0 {
			item.MinW = 0
		}
		if item.MinH < 0 {
			item.MinH = 0
		}
		normalized[i] = item
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].ID < normalized[j].ID
	})
	return normalized
}

// NormalizeLayout returns a normalized copy of a full layout
func NormalizeLayout(l models.Layout) models.Layout {
	normalized := make(models.Layout, len(l))
	for bp, items := range l {
		normalized[bp] = normalizeItems(items)
	}
	return normalized
}

// LayoutsEqual reports structural equality of two layouts after
// normalization. Item order and ephemeral fields do not matter.
func LayoutsEqual(a, b models.Layout) bool {
	na, nb := NormalizeLayout(a), NormalizeLayout(b)
	for bp := range na {
		if len(na[bp]) == 0 {
			delete(na, bp)
		}
	}
	for bp := range nb {
		if len(nb[bp]) == 0 {
			delete(nb, bp)
		}
	}
	if len(na) != len(nb) {
		return false
	}
	for bp, itemsA := range na {
		itemsB, ok := nb[bp]
		if !ok || len(itemsA) != len(itemsB) {
			return false
		}
		for i := range itemsA {
			if itemsA[i] != itemsB[i] {
				return false
			}
		}
	}
	return true
}
