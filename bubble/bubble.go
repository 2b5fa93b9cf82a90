// Package bubble holds the annotation entities and the in-memory store
// that owns them for one editing session. The store is the single source of
// truth; the canvas renderer is a pure projection of it.
package bubble

import (
	"github.com/google/uuid"

	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/panel"
)

// Kind selects the bubble's rendering style. Geometry rules are identical
// across kinds; only speech and thought carry a tail.
type Kind string

const (
	Speech    Kind = "speech"
	Thought   Kind = "thought"
	Narration Kind = "narration"
	SFX       Kind = "sfx"
)

// Valid reports whether k is one of the known bubble kinds.
func (k Kind) Valid() bool {
	switch k {
	case Speech, Thought, Narration, SFX:
		return true
	}
	return false
}

// HasTail reports whether bubbles of this kind carry a directional pointer.
func (k Kind) HasTail() bool {
	return k == Speech || k == Thought
}

// Bubble is one placed dialogue/narration/SFX annotation. Geometry is
// normalized to the full background image, not to the panel.
type Bubble struct {
	ID      string
	PanelID int // panel.None when unassigned
	Kind    Kind
	Text    string
	Speaker string
	Geometry geom.Rect
	Tail     *geom.Point
	ZIndex   int
}

// New creates a bubble with a fresh id and a text-derived default size at
// the given normalized position (interpreted as the desired center).
func New(kind Kind, text string, center geom.Point, panelID int) *Bubble {
	size := geom.DefaultSize(text)
	b := &Bubble{
		ID:      uuid.NewString(),
		PanelID: panelID,
		Kind:    kind,
		Text:    text,
		Geometry: geom.Rect{
			X: center.X - size.W/2,
			Y: center.Y - size.H/2,
			W: size.W,
			H: size.H,
		},
	}
	if kind.HasTail() {
		b.Tail = &geom.Point{X: center.X, Y: center.Y + size.H/2 + 0.04}
	}
	return b
}

// Clone returns a deep copy. Commands snapshot bubbles through this so
// undo state cannot be mutated through shared pointers.
func (b *Bubble) Clone() *Bubble {
	if b == nil {
		return nil
	}
	c := *b
	if b.Tail != nil {
		t := *b.Tail
		c.Tail = &t
	}
	return &c
}

// ClampGeometry forces a rect into the hard bubble invariants: size within
// the min/max bounds, position within the unit square. Violations are
// corrected, never rejected, so an interactive resize can't wedge.
func ClampGeometry(r geom.Rect) geom.Rect {
	r.W = geom.Clamp(r.W, geom.MinBubbleW, geom.MaxBubbleW)
	r.H = geom.Clamp(r.H, geom.MinBubbleH, geom.MaxBubbleH)
	r.X = geom.Clamp(r.X, 0, 1)
	r.Y = geom.Clamp(r.Y, 0, 1)
	return r
}

// ClampTail keeps a tail point inside the unit square.
func ClampTail(p geom.Point) geom.Point {
	return geom.Point{X: geom.Clamp(p.X, 0, 1), Y: geom.Clamp(p.Y, 0, 1)}
}

// Unassigned reports whether the bubble has no panel.
func (b *Bubble) Unassigned() bool {
	return b.PanelID == panel.None
}
