package history

import (
	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
)

// Command constructors. Each snapshots the Before side from the store's
// current state so the command is self-contained by the time it executes.

// Add records the creation of b. Undo removes it; the full clone in After
// means redo restores the identical bubble, id and zIndex included.
func Add(b *bubble.Bubble) Command {
	return Command{
		Op:       OpAdd,
		BubbleID: b.ID,
		After:    Patch{Bubble: b.Clone()},
	}
}

// Delete records the removal of the bubble. Before keeps the full object so
// undo brings it back exactly.
func Delete(s *bubble.Store, id string) Command {
	return Command{
		Op:       OpDelete,
		BubbleID: id,
		Before:   Patch{Bubble: s.Get(id).Clone()},
	}
}

// Move records a geometry change from the explicit start rect (the gesture
// origin) to after. Used for both drags and programmatic nudges.
func Move(id string, before, after geom.Rect) Command {
	b, a := before, after
	return Command{
		Op:       OpMove,
		BubbleID: id,
		Before:   Patch{Geometry: &b},
		After:    Patch{Geometry: &a},
	}
}

// Resize is a Move with its own op so intent survives in the history.
func Resize(id string, before, after geom.Rect) Command {
	c := Move(id, before, after)
	c.Op = OpResize
	return c
}

// MoveTail records a tail anchor change.
func MoveTail(id string, before, after geom.Point) Command {
	b, a := before, after
	return Command{
		Op:       OpMoveTail,
		BubbleID: id,
		Before:   Patch{Tail: &b, TailSet: true},
		After:    Patch{Tail: &a, TailSet: true},
	}
}

// EditText records a text change against the store's current text.
func EditText(s *bubble.Store, id, text string) Command {
	before := s.Get(id).Text
	return Command{
		Op:       OpEditText,
		BubbleID: id,
		Before:   Patch{Text: &before},
		After:    Patch{Text: &text},
	}
}

// SetSpeaker records a speaker label change.
func SetSpeaker(s *bubble.Store, id, speaker string) Command {
	before := s.Get(id).Speaker
	return Command{
		Op:       OpSpeaker,
		BubbleID: id,
		Before:   Patch{Speaker: &before},
		After:    Patch{Speaker: &speaker},
	}
}

// SetPanel records a panel reassignment, including the geometry shift from
// re-clamping into the new panel so undo restores both.
func SetPanel(s *bubble.Store, id string, panelID int, clamped geom.Rect) Command {
	cur := s.Get(id)
	beforePanel, afterPanel := cur.PanelID, panelID
	beforeGeom, afterGeom := cur.Geometry, clamped
	return Command{
		Op:       OpSetPanel,
		BubbleID: id,
		Before:   Patch{Panel: &beforePanel, Geometry: &beforeGeom},
		After:    Patch{Panel: &afterPanel, Geometry: &afterGeom},
	}
}
