// Package history implements linear undo/redo over the bubble store as a
// stack of invertible commands. Every user-visible content change is one
// command; a drag produces exactly one covering the net change, never one
// per pointer frame.
package history

import (
	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
)

// Op names the kind of edit a command performs.
type Op string

const (
	OpAdd      Op = "add"
	OpMove     Op = "move"
	OpResize   Op = "resize"
	OpEditText Op = "edit_text"
	OpMoveTail Op = "move_tail"
	OpSetPanel Op = "set_panel"
	OpSpeaker  Op = "speaker"
	OpDelete   Op = "delete"
)

// Patch carries only the fields its command touches. Bubble is the full
// snapshot used by add/delete so an undone delete restores id, zIndex and
// all. Applying a patch is idempotent and independent of other bubbles.
type Patch struct {
	Bubble   *bubble.Bubble
	Geometry *geom.Rect
	Tail     *geom.Point
	TailSet  bool
	Text     *string
	Speaker  *string
	Panel    *int
}

// Command is one invertible edit: After is the forward state, Before the
// state to restore on undo. Both are self-contained snapshots.
type Command struct {
	Op       Op
	BubbleID string
	Before   Patch
	After    Patch
}

func (c Command) apply(s *bubble.Store, p Patch) {
	switch c.Op {
	case OpAdd, OpDelete:
		if p.Bubble != nil {
			s.Insert(p.Bubble)
		} else {
			s.Remove(c.BubbleID)
		}
	default:
		if p.Geometry != nil {
			s.SetGeometry(c.BubbleID, *p.Geometry)
		}
		if p.TailSet {
			s.SetTail(c.BubbleID, p.Tail)
		}
		if p.Text != nil {
			s.SetText(c.BubbleID, *p.Text)
		}
		if p.Speaker != nil {
			s.SetSpeaker(c.BubbleID, *p.Speaker)
		}
		if p.Panel != nil {
			s.SetPanel(c.BubbleID, *p.Panel)
		}
	}
}

// History owns the past/future stacks for one store. Oldest entries fall
// off once the cap is hit, same as the editor's snapshot stack always has.
type History struct {
	store   *bubble.Store
	past    []Command
	future  []Command
	maxUndo int
}

func New(store *bubble.Store) *History {
	return &History{store: store, maxUndo: 100}
}

// Execute applies the command's After state and records it. Any redo branch
// is discarded: history is linear, not a tree.
func (h *History) Execute(c Command) {
	c.apply(h.store, c.After)
	h.past = append(h.past, c)
	if len(h.past) > h.maxUndo {
		h.past = h.past[1:]
	}
	h.future = h.future[:0]
}

// Undo reverts the most recent command. No-op on an empty past.
func (h *History) Undo() bool {
	n := len(h.past)
	if n == 0 {
		return false
	}
	c := h.past[n-1]
	h.past = h.past[:n-1]
	c.apply(h.store, c.Before)
	h.future = append(h.future, c)
	return true
}

// Redo reapplies the most recently undone command. No-op on an empty
// future.
func (h *History) Redo() bool {
	n := len(h.future)
	if n == 0 {
		return false
	}
	c := h.future[n-1]
	h.future = h.future[:n-1]
	c.apply(h.store, c.After)
	h.past = append(h.past, c)
	return true
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depths reports the past/future stack sizes, mostly for tests and the
// status line.
func (h *History) Depths() (past, future int) {
	return len(h.past), len(h.future)
}
