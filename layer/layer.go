// Package layer defines the persisted dialogue-layer wire shape and the
// adapters that load and save it. Save and load move whole layers and
// bypass history: persistence never rewrites the undo stacks.
package layer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/panel"
)

// ErrNotFound is the valid no-layer-yet outcome of a load. The editor
// starts empty on it; it is not a failure.
var ErrNotFound = errors.New("dialogue layer not found")

// WireBubble is the persisted form of one bubble.
type WireBubble struct {
	BubbleID string      `json:"bubble_id"`
	PanelID  *int        `json:"panel_id"`
	Type     string      `json:"bubble_type"`
	Speaker  string      `json:"speaker,omitempty"`
	Text     string      `json:"text"`
	Position geom.Point  `json:"position"`
	Size     geom.Size   `json:"size"`
	Tail     *geom.Point `json:"tail,omitempty"`
}

// DialogueLayer is the persisted bubble collection for one scene. An empty
// bubbles array is a valid, saveable layer.
type DialogueLayer struct {
	Bubbles []WireBubble `json:"bubbles"`
}

// FromStore snapshots the store into wire form, in draw order so the
// round-trip preserves stacking.
func FromStore(s *bubble.Store) DialogueLayer {
	all := s.All()
	out := DialogueLayer{Bubbles: make([]WireBubble, 0, len(all))}
	for _, b := range all {
		wb := WireBubble{
			BubbleID: b.ID,
			Type:     string(b.Kind),
			Speaker:  b.Speaker,
			Text:     b.Text,
			Position: geom.Point{X: b.Geometry.X, Y: b.Geometry.Y},
			Size:     geom.Size{W: b.Geometry.W, H: b.Geometry.H},
		}
		if b.PanelID != panel.None {
			id := b.PanelID
			wb.PanelID = &id
		}
		if b.Tail != nil {
			t := *b.Tail
			wb.Tail = &t
		}
		out.Bubbles = append(out.Bubbles, wb)
	}
	return out
}

// Hydrate turns a loaded layer into store bubbles against the session's
// panel index. A structurally broken bubble fails the whole load (the
// editor falls back to an empty session rather than half-hydrating).
// Geometry out of bounds is clamped silently; a panel id the current layout
// no longer has demotes the bubble to unassigned.
func Hydrate(dl DialogueLayer, idx *panel.Index) ([]*bubble.Bubble, error) {
	out := make([]*bubble.Bubble, 0, len(dl.Bubbles))
	for i, wb := range dl.Bubbles {
		if wb.BubbleID == "" {
			return nil, fmt.Errorf("bubble %d: missing bubble_id", i)
		}
		kind := bubble.Kind(wb.Type)
		if !kind.Valid() {
			return nil, fmt.Errorf("bubble %d: unknown bubble_type %q", i, wb.Type)
		}
		if !finite(wb.Position.X, wb.Position.Y, wb.Size.W, wb.Size.H) {
			return nil, fmt.Errorf("bubble %d: non-finite geometry", i)
		}
		panelID := panel.None
		if wb.PanelID != nil && idx != nil && idx.Contains(*wb.PanelID) {
			panelID = *wb.PanelID
		}
		b := &bubble.Bubble{
			ID:      wb.BubbleID,
			PanelID: panelID,
			Kind:    kind,
			Text:    wb.Text,
			Speaker: wb.Speaker,
			Geometry: bubble.ClampGeometry(geom.Rect{
				X: wb.Position.X, Y: wb.Position.Y,
				W: wb.Size.W, H: wb.Size.H,
			}),
			ZIndex: i + 1,
		}
		if wb.Tail != nil && kind.HasTail() {
			if !finite(wb.Tail.X, wb.Tail.Y) {
				return nil, fmt.Errorf("bubble %d: non-finite tail", i)
			}
			t := bubble.ClampTail(*wb.Tail)
			b.Tail = &t
		}
		out = append(out, b)
	}
	return out, nil
}

// Decode parses raw JSON into a layer. Any schema mismatch is a load
// failure, not a partial hydrate.
func Decode(data []byte) (DialogueLayer, error) {
	var dl DialogueLayer
	if err := json.Unmarshal(data, &dl); err != nil {
		return DialogueLayer{}, fmt.Errorf("decode dialogue layer: %w", err)
	}
	return dl, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
