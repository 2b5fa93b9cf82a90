package session

import (
	"context"
	"errors"
	"testing"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/layer"
	"github.com/milk9111/bubbleedit/panel"
)

// fakeAdapter scripts load/save outcomes and records saved layers.
type fakeAdapter struct {
	loadLayer layer.DialogueLayer
	loadErr   error
	saveErr   error
	saved     []layer.DialogueLayer
}

func (f *fakeAdapter) Load(_ context.Context, _ string) (layer.DialogueLayer, error) {
	return f.loadLayer, f.loadErr
}

func (f *fakeAdapter) Save(_ context.Context, _ string, dl layer.DialogueLayer) (layer.DialogueLayer, error) {
	if f.saveErr != nil {
		return layer.DialogueLayer{}, f.saveErr
	}
	f.saved = append(f.saved, dl)
	return dl, nil
}

func testPanels() *panel.Index {
	return panel.NewIndex([]panel.Panel{
		{ID: 1, Rect: geom.Rect{X: 0, Y: 0, W: 0.5, H: 0.5}},
		{ID: 2, Rect: geom.Rect{X: 0.5, Y: 0.5, W: 0.5, H: 0.5}},
	})
}

func TestOpenMissingLayerStartsEmpty(t *testing.T) {
	fa := &fakeAdapter{loadErr: layer.ErrNotFound}
	s, err := Open(context.Background(), "scene-001", "", testPanels(), fa)
	if err != nil {
		t.Fatalf("no saved layer is not an error, got %v", err)
	}
	if s.Store.Len() != 0 || s.Dirty() {
		t.Fatalf("expected a clean empty session")
	}
}

func TestOpenCorruptLayerFallsBackEmpty(t *testing.T) {
	fa := &fakeAdapter{loadLayer: layer.DialogueLayer{Bubbles: []layer.WireBubble{
		{BubbleID: "", Type: "speech"}, // structurally broken
	}}}
	s, err := Open(context.Background(), "scene-001", "", testPanels(), fa)
	if err == nil {
		t.Fatalf("corrupt layer should surface an error")
	}
	if s == nil || s.Store.Len() != 0 {
		t.Fatalf("fallback must be a usable empty session, not a partial one")
	}
}

func TestOpenHydratesSavedBubbles(t *testing.T) {
	pid := 1
	fa := &fakeAdapter{loadLayer: layer.DialogueLayer{Bubbles: []layer.WireBubble{{
		BubbleID: "b-1",
		PanelID:  &pid,
		Type:     "speech",
		Text:     "hi",
		Position: geom.Point{X: 0.2, Y: 0.2},
		Size:     geom.Size{W: 0.2, H: 0.1},
	}}}}
	s, err := Open(context.Background(), "scene-001", "", testPanels(), fa)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Store.Len() != 1 || s.Store.Get("b-1") == nil {
		t.Fatalf("saved bubble not hydrated")
	}
	if s.Dirty() {
		t.Fatalf("a freshly opened session is clean")
	}
}

func TestAddBubbleResolvesPanelAndClamps(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)

	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.49, Y: 0.49})
	if b.PanelID != 1 {
		t.Fatalf("panel = %d, want 1", b.PanelID)
	}
	if b.Geometry.X+b.Geometry.W > 0.5-panel.Padding+geom.Epsilon {
		t.Fatalf("bubble not clamped into its panel: %+v", b.Geometry)
	}
	if s.Store.Selected() != b.ID {
		t.Fatalf("new bubble should be selected")
	}
	if !s.Dirty() {
		t.Fatalf("adding marks the session dirty")
	}
}

func TestDropLongLineCapsWidthInsidePanel(t *testing.T) {
	idx := panel.NewIndex([]panel.Panel{
		{ID: 2, Rect: geom.Rect{X: 0.5, Y: 0, W: 0.5, H: 0.5}},
	})
	s := New("scene-001", "", idx, nil)

	text := "0123456789012345678901234567890123456789" // 40 chars
	b := s.AddBubble(bubble.Speech, text, "", geom.Point{X: 0.7, Y: 0.2})
	if b.PanelID != 2 {
		t.Fatalf("panel = %d, want 2", b.PanelID)
	}
	if got := b.Geometry.W; got < 0.42-geom.Epsilon || got > 0.42+geom.Epsilon {
		t.Fatalf("width = %v, want the 0.42 cap", got)
	}
	if b.Geometry.X < 0.5+panel.Padding-geom.Epsilon ||
		b.Geometry.X+b.Geometry.W > 1.0-panel.Padding+geom.Epsilon {
		t.Fatalf("bubble escaped panel 2: %+v", b.Geometry)
	}
}

func TestAddMoveUndoRedoSequence(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})

	g0 := s.Store.Get(b.ID).Geometry
	g1 := geom.Rect{X: g0.X + 0.02, Y: g0.Y, W: g0.W, H: g0.H}
	g2 := geom.Rect{X: g1.X, Y: g1.Y + 0.02, W: g1.W, H: g1.H}
	s.MoveBubble(b.ID, g0, g1)
	s.MoveBubble(b.ID, g1, g2)

	for i := 0; i < 3; i++ {
		if !s.Undo() {
			t.Fatalf("undo %d should succeed", i+1)
		}
	}
	if s.Store.Len() != 0 {
		t.Fatalf("undoing everything should empty the store, len = %d", s.Store.Len())
	}

	for i := 0; i < 3; i++ {
		if !s.Redo() {
			t.Fatalf("redo %d should succeed", i+1)
		}
	}
	if got := s.Store.Get(b.ID).Geometry; got != g2 {
		t.Fatalf("redo must replay the moves in order: %+v, want %+v", got, g2)
	}
}

func TestAddBubbleInGutterIsUnassigned(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.9, Y: 0.1})
	if b.PanelID != panel.None {
		t.Fatalf("gutter drop should be unassigned, got %d", b.PanelID)
	}
}

func TestAssignPanelOneUndoStep(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})
	origGeom := s.Store.Get(b.ID).Geometry

	s.AssignPanel(b.ID, 2)
	got := s.Store.Get(b.ID)
	if got.PanelID != 2 {
		t.Fatalf("panel = %d, want 2", got.PanelID)
	}
	if got.Geometry.X < 0.5+panel.Padding-geom.Epsilon {
		t.Fatalf("reassign must clamp into the new panel: %+v", got.Geometry)
	}

	s.Undo()
	got = s.Store.Get(b.ID)
	if got.PanelID != 1 || got.Geometry != origGeom {
		t.Fatalf("one undo must revert panel and geometry: %+v", got)
	}
}

func TestAssignPanelUnknownIgnored(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})
	past, _ := s.History.Depths()

	s.AssignPanel(b.ID, 42)
	if got := s.Store.Get(b.ID).PanelID; got != 1 {
		t.Fatalf("unknown target panel must be rejected, got %d", got)
	}
	if p, _ := s.History.Depths(); p != past {
		t.Fatalf("rejected reassign must not enter history")
	}
}

func TestNoopEditsSkipHistory(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "mina", geom.Point{X: 0.25, Y: 0.25})
	past, _ := s.History.Depths()

	s.EditText(b.ID, "hi")
	s.SetSpeaker(b.ID, "mina")
	s.AssignPanel(b.ID, 1)

	if p, _ := s.History.Depths(); p != past {
		t.Fatalf("no-op edits must not grow history")
	}
}

func TestSaveClearsDirtyFailureKeepsIt(t *testing.T) {
	fa := &fakeAdapter{loadErr: layer.ErrNotFound}
	s, _ := Open(context.Background(), "scene-001", "", testPanels(), fa)
	s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})
	if !s.Dirty() {
		t.Fatalf("edit should dirty the session")
	}

	fa.saveErr = errors.New("disk full")
	if err := s.Save(context.Background()); err == nil {
		t.Fatalf("save should report the adapter failure")
	}
	if !s.Dirty() {
		t.Fatalf("a failed save must keep the session dirty")
	}
	if s.Store.Len() != 1 {
		t.Fatalf("a failed save must not touch the store")
	}

	fa.saveErr = nil
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("successful save clears the dirty flag")
	}
	if len(fa.saved) != 1 || len(fa.saved[0].Bubbles) != 1 {
		t.Fatalf("adapter received %+v", fa.saved)
	}
}

func TestMarkSavedIgnoresStaleRevision(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})

	rev := s.Revision()
	// an edit lands while the save is in flight
	s.EditText(b.ID, "changed")

	s.MarkSaved(rev)
	if !s.Dirty() {
		t.Fatalf("a save that missed later edits must not clear dirty")
	}
	s.MarkSaved(s.Revision())
	if s.Dirty() {
		t.Fatalf("a save at the current revision clears dirty")
	}
}

func TestUndoRedoDirtyTracking(t *testing.T) {
	fa := &fakeAdapter{loadErr: layer.ErrNotFound}
	s, _ := Open(context.Background(), "scene-001", "", testPanels(), fa)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !s.Undo() {
		t.Fatalf("undo should succeed")
	}
	if s.Store.Get(b.ID) != nil {
		t.Fatalf("undoing the add removes the bubble")
	}
	if !s.Dirty() {
		t.Fatalf("undo diverges from the saved state, session is dirty")
	}

	if !s.Redo() {
		t.Fatalf("redo should succeed")
	}
	if s.Store.Get(b.ID) == nil {
		t.Fatalf("redo restores the bubble")
	}
}

func TestPreviewSkipsHistory(t *testing.T) {
	s := New("scene-001", "", testPanels(), nil)
	b := s.AddBubble(bubble.Speech, "hi", "", geom.Point{X: 0.25, Y: 0.25})
	past, _ := s.History.Depths()

	s.PreviewGeometry(b.ID, geom.Rect{X: 0.25, Y: 0.3, W: 0.2, H: 0.1})
	s.PreviewTail(b.ID, geom.Point{X: 0.4, Y: 0.45})

	if p, _ := s.History.Depths(); p != past {
		t.Fatalf("previews must never enter history")
	}
	if got := s.Store.Get(b.ID).Geometry.X; got != 0.25 {
		t.Fatalf("preview geometry not applied, x = %v", got)
	}
}
