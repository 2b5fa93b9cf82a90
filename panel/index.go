// Package panel answers spatial queries against the fixed set of panel
// rectangles delivered by the layout pipeline. The set is immutable for the
// lifetime of an editing session; a regenerated layout produces a new Index.
package panel

import (
	"sort"

	"github.com/milk9111/bubbleedit/geom"
)

// None marks a bubble that is not assigned to any panel.
const None = -1

// Padding is the inset, in normalized units, kept between a bubble and its
// panel's edges when clamping.
const Padding = 0.02

// Panel is one rectangular region of the scene image, normalized to the
// full image extent. Panels are read-only input; the editor never moves
// them.
type Panel struct {
	ID   int       `json:"id"`
	Rect geom.Rect `json:"rect"`
}

// Index holds the session's panels ordered by id for stable iteration.
type Index struct {
	panels []Panel
	byID   map[int]Panel
}

func NewIndex(panels []Panel) *Index {
	idx := &Index{
		panels: make([]Panel, len(panels)),
		byID:   make(map[int]Panel, len(panels)),
	}
	copy(idx.panels, panels)
	sort.Slice(idx.panels, func(i, j int) bool { return idx.panels[i].ID < idx.panels[j].ID })
	for _, p := range idx.panels {
		idx.byID[p.ID] = p
	}
	return idx
}

// Panels returns the panels in id order. Callers must not mutate the slice.
func (idx *Index) Panels() []Panel {
	return idx.panels
}

// Contains reports whether the given panel id exists in this layout.
func (idx *Index) Contains(id int) bool {
	_, ok := idx.byID[id]
	return ok
}

// Find returns the id of the panel containing the point, or None. A valid
// layout has non-overlapping panels; if panels do overlap at the point the
// smallest one wins rather than the lookup failing.
func (idx *Index) Find(p geom.Point) int {
	best := None
	bestArea := 0.0
	for _, pn := range idx.panels {
		if !pn.Rect.Contains(p) {
			continue
		}
		if best == None || pn.Rect.Area() < bestArea {
			best = pn.ID
			bestArea = pn.Rect.Area()
		}
	}
	return best
}

// ClampTo fits box inside the named panel's rect inset by Padding. If the
// id is None or unknown the box is returned unchanged; unassigned bubbles
// are free to sit anywhere on the image.
func (idx *Index) ClampTo(box geom.Rect, id int) geom.Rect {
	pn, ok := idx.byID[id]
	if !ok {
		return box
	}
	return geom.ClampBox(box, pn.Rect, Padding)
}
