// Package session owns the ephemeral editing state for one open scene: the
// bubble store, its history, the immutable panel index and the dirty flag.
// One session per scene; regenerating the layout discards the session and
// a new one is opened against the new artifact.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/history"
	"github.com/milk9111/bubbleedit/layer"
	"github.com/milk9111/bubbleedit/panel"
)

type Session struct {
	SceneID    string
	Background string
	Panels     *panel.Index

	Store   *bubble.Store
	History *history.History

	adapter  layer.Adapter
	dirty    bool
	revision int
}

// New creates an empty session. Panels may be nil for a scene with no
// layout yet; every bubble is then unassigned.
func New(sceneID, background string, panels *panel.Index, adapter layer.Adapter) *Session {
	store := bubble.NewStore()
	return &Session{
		SceneID:    sceneID,
		Background: background,
		Panels:     panels,
		Store:      store,
		History:    history.New(store),
		adapter:    adapter,
	}
}

// Open loads the scene's saved layer through the adapter. No saved layer is
// a normal empty start. A malformed payload also yields an empty session —
// never a partial hydrate — with the error returned so the editor can
// surface it.
func Open(ctx context.Context, sceneID, background string, panels *panel.Index, adapter layer.Adapter) (*Session, error) {
	s := New(sceneID, background, panels, adapter)
	dl, err := adapter.Load(ctx, sceneID)
	if err != nil {
		if errors.Is(err, layer.ErrNotFound) {
			return s, nil
		}
		return s, fmt.Errorf("load scene %s: %w", sceneID, err)
	}
	bubbles, err := layer.Hydrate(dl, panels)
	if err != nil {
		return s, fmt.Errorf("load scene %s: %w", sceneID, err)
	}
	for _, b := range bubbles {
		s.Store.Insert(b)
	}
	return s, nil
}

// Dirty reports whether there are edits not yet saved.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) markDirty() {
	s.dirty = true
	s.revision++
}

// Revision increments on every edit. An asynchronous save snapshots the
// revision along with the layer; MarkSaved then clears the dirty flag only
// if no edit landed while the save was in flight.
func (s *Session) Revision() int { return s.revision }

// Snapshot captures the current store as a wire layer for saving off the
// update loop.
func (s *Session) Snapshot() layer.DialogueLayer { return layer.FromStore(s.Store) }

// MarkSaved records that a save of the given revision completed.
func (s *Session) MarkSaved(rev int) {
	if rev == s.revision {
		s.dirty = false
	}
}

// AddBubble creates a bubble of the given kind centered at the normalized
// point, resolves its panel from the drop position, clamps it in, and
// records the add. The new bubble becomes the selection.
func (s *Session) AddBubble(kind bubble.Kind, text, speaker string, at geom.Point) *bubble.Bubble {
	panelID := panel.None
	if s.Panels != nil {
		panelID = s.Panels.Find(at)
	}
	b := bubble.New(kind, text, at, panelID)
	b.Speaker = speaker
	b.Geometry = s.clampFor(panelID, b.Geometry)
	if b.Tail != nil {
		t := bubble.ClampTail(*b.Tail)
		b.Tail = &t
	}
	s.History.Execute(history.Add(b))
	s.Store.Select(b.ID)
	s.markDirty()
	return s.Store.Get(b.ID)
}

// DeleteBubble records the removal; undo restores the bubble whole.
func (s *Session) DeleteBubble(id string) {
	if s.Store.Get(id) == nil {
		return
	}
	s.History.Execute(history.Delete(s.Store, id))
	s.markDirty()
}

// MoveBubble records the net geometry change of a finished drag: before is
// the gesture-start rect, after the final one. Both sides are panel-clamped
// so neither direction of the command can escape the panel.
func (s *Session) MoveBubble(id string, before, after geom.Rect) {
	b := s.Store.Get(id)
	if b == nil {
		return
	}
	s.History.Execute(history.Move(id, before, s.clampFor(b.PanelID, after)))
	s.markDirty()
}

// ResizeBubble records the net size change of a finished resize gesture.
func (s *Session) ResizeBubble(id string, before, after geom.Rect) {
	b := s.Store.Get(id)
	if b == nil {
		return
	}
	s.History.Execute(history.Resize(id, before, s.clampFor(b.PanelID, after)))
	s.markDirty()
}

// MoveTail records the net tail move of a finished tail drag.
func (s *Session) MoveTail(id string, before, after geom.Point) {
	if s.Store.Get(id) == nil {
		return
	}
	s.History.Execute(history.MoveTail(id, before, bubble.ClampTail(after)))
	s.markDirty()
}

// EditText records a text change.
func (s *Session) EditText(id, text string) {
	b := s.Store.Get(id)
	if b == nil || b.Text == text {
		return
	}
	s.History.Execute(history.EditText(s.Store, id, text))
	s.markDirty()
}

// SetSpeaker records a speaker label change.
func (s *Session) SetSpeaker(id, speaker string) {
	b := s.Store.Get(id)
	if b == nil || b.Speaker == speaker {
		return
	}
	s.History.Execute(history.SetSpeaker(s.Store, id, speaker))
	s.markDirty()
}

// AssignPanel reassigns the bubble and re-clamps it into the new panel in
// the same command, so one undo restores both panel and position.
func (s *Session) AssignPanel(id string, panelID int) {
	b := s.Store.Get(id)
	if b == nil || b.PanelID == panelID {
		return
	}
	if panelID != panel.None && (s.Panels == nil || !s.Panels.Contains(panelID)) {
		return
	}
	s.History.Execute(history.SetPanel(s.Store, id, panelID, s.clampFor(panelID, b.Geometry)))
	s.markDirty()
}

// PreviewGeometry applies live drag feedback without touching history. The
// geometry is clamped into the bubble's panel on every call so what the
// user sees mid-gesture is what will commit.
func (s *Session) PreviewGeometry(id string, r geom.Rect) {
	b := s.Store.Get(id)
	if b == nil {
		return
	}
	s.Store.SetGeometry(id, s.clampFor(b.PanelID, r))
}

// PreviewTail applies live tail feedback without touching history.
func (s *Session) PreviewTail(id string, p geom.Point) {
	if s.Store.Get(id) == nil {
		return
	}
	t := bubble.ClampTail(p)
	s.Store.SetTail(id, &t)
}

func (s *Session) Undo() bool {
	if s.History.Undo() {
		s.markDirty()
		return true
	}
	return false
}

func (s *Session) Redo() bool {
	if s.History.Redo() {
		s.markDirty()
		return true
	}
	return false
}

// Save writes the current store through the adapter. The store itself is
// untouched either way; a failed save keeps the session dirty so the
// editor keeps nagging.
func (s *Session) Save(ctx context.Context) error {
	if s.adapter == nil {
		return fmt.Errorf("no persistence adapter configured")
	}
	dl := layer.FromStore(s.Store)
	if _, err := s.adapter.Save(ctx, s.SceneID, dl); err != nil {
		log.Printf("save scene %s failed: %v", s.SceneID, err)
		return err
	}
	s.dirty = false
	return nil
}

func (s *Session) clampFor(panelID int, r geom.Rect) geom.Rect {
	if panelID != panel.None && s.Panels != nil {
		return s.Panels.ClampTo(r, panelID)
	}
	return geom.ClampBox(r, geom.Rect{X: 0, Y: 0, W: 1, H: 1}, 0)
}
