package layer

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/panel"
)

func intPtr(v int) *int { return &v }

func testIndex() *panel.Index {
	return panel.NewIndex([]panel.Panel{
		{ID: 1, Rect: geom.Rect{X: 0, Y: 0, W: 0.5, H: 0.5}},
		{ID: 2, Rect: geom.Rect{X: 0.5, Y: 0.5, W: 0.5, H: 0.5}},
	})
}

func TestRoundTripThroughWireForm(t *testing.T) {
	s := bubble.NewStore()
	b1 := bubble.New(bubble.Speech, "hello", geom.Point{X: 0.25, Y: 0.25}, 1)
	b1.Speaker = "mina"
	b2 := bubble.New(bubble.Narration, "later that day", geom.Point{X: 0.7, Y: 0.2}, panel.None)
	s.Insert(b1)
	s.Insert(b2)

	dl := FromStore(s)
	if len(dl.Bubbles) != 2 {
		t.Fatalf("wire layer has %d bubbles, want 2", len(dl.Bubbles))
	}

	restored, err := Hydrate(dl, testIndex())
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("restored %d bubbles, want 2", len(restored))
	}

	got := restored[0]
	want := s.Get(b1.ID)
	if got.ID != want.ID || got.Kind != want.Kind || got.Text != want.Text || got.Speaker != want.Speaker {
		t.Fatalf("restored bubble differs: %+v vs %+v", got, want)
	}
	if got.PanelID != 1 {
		t.Fatalf("panel id = %d, want 1", got.PanelID)
	}
	if got.Tail == nil {
		t.Fatalf("speech tail lost in round trip")
	}
	if restored[1].PanelID != panel.None {
		t.Fatalf("unassigned bubble gained a panel: %d", restored[1].PanelID)
	}
	if restored[1].Tail != nil {
		t.Fatalf("narration must not carry a tail")
	}
}

func TestHydrateEdgeCases(t *testing.T) {
	base := func() WireBubble {
		return WireBubble{
			BubbleID: "b-1",
			Type:     "speech",
			Text:     "hi",
			Position: geom.Point{X: 0.2, Y: 0.2},
			Size:     geom.Size{W: 0.2, H: 0.1},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*WireBubble)
		wantErr bool
		check   func(t *testing.T, b *bubble.Bubble)
	}{
		{
			name:    "missing_id_fails_load",
			mutate:  func(wb *WireBubble) { wb.BubbleID = "" },
			wantErr: true,
		},
		{
			name:    "unknown_type_fails_load",
			mutate:  func(wb *WireBubble) { wb.Type = "shout" },
			wantErr: true,
		},
		{
			name:    "nan_geometry_fails_load",
			mutate:  func(wb *WireBubble) { wb.Position.X = math.NaN() },
			wantErr: true,
		},
		{
			name:   "stale_panel_demotes_to_unassigned",
			mutate: func(wb *WireBubble) { wb.PanelID = intPtr(99) },
			check: func(t *testing.T, b *bubble.Bubble) {
				if b.PanelID != panel.None {
					t.Fatalf("stale panel id should demote, got %d", b.PanelID)
				}
			},
		},
		{
			name:   "oversize_geometry_clamped",
			mutate: func(wb *WireBubble) { wb.Size = geom.Size{W: 3.0, H: 0.01} },
			check: func(t *testing.T, b *bubble.Bubble) {
				if b.Geometry.W > geom.MaxBubbleW || b.Geometry.H < geom.MinBubbleH {
					t.Fatalf("geometry not clamped: %+v", b.Geometry)
				}
			},
		},
		{
			name:   "tail_on_narration_dropped",
			mutate: func(wb *WireBubble) { wb.Type = "narration"; wb.Tail = &geom.Point{X: 0.5, Y: 0.5} },
			check: func(t *testing.T, b *bubble.Bubble) {
				if b.Tail != nil {
					t.Fatalf("tail should be dropped for tailless kinds")
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			wb := base()
			c.mutate(&wb)
			got, err := Hydrate(DialogueLayer{Bubbles: []WireBubble{wb}}, testIndex())
			if c.wantErr {
				if err == nil {
					t.Fatalf("want load failure, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("hydrate: %v", err)
			}
			c.check(t, got[0])
		})
	}
}

func TestHydrateAssignsDrawOrder(t *testing.T) {
	dl := DialogueLayer{Bubbles: []WireBubble{
		{BubbleID: "a", Type: "speech", Text: "1", Position: geom.Point{X: 0.1, Y: 0.1}, Size: geom.Size{W: 0.2, H: 0.1}},
		{BubbleID: "b", Type: "speech", Text: "2", Position: geom.Point{X: 0.1, Y: 0.1}, Size: geom.Size{W: 0.2, H: 0.1}},
	}}
	got, err := Hydrate(dl, nil)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got[0].ZIndex >= got[1].ZIndex {
		t.Fatalf("file order must become draw order: %d, %d", got[0].ZIndex, got[1].ZIndex)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{"bubbles": [{]`)); err == nil {
		t.Fatalf("malformed json must fail to decode")
	}
	dl, err := Decode([]byte(`{"bubbles": []}`))
	if err != nil {
		t.Fatalf("empty layer is valid: %v", err)
	}
	if len(dl.Bubbles) != 0 {
		t.Fatalf("expected empty layer")
	}
}

func TestFileAdapterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := NewFileAdapter(filepath.Join(dir, "scenes"))
	ctx := context.Background()

	if _, err := a.Load(ctx, "scene-001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing layer should be ErrNotFound, got %v", err)
	}

	dl := DialogueLayer{Bubbles: []WireBubble{{
		BubbleID: "b-1",
		PanelID:  intPtr(1),
		Type:     "speech",
		Text:     "hi",
		Position: geom.Point{X: 0.2, Y: 0.2},
		Size:     geom.Size{W: 0.2, H: 0.1},
	}}}
	if _, err := a.Save(ctx, "scene-001", dl); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := a.Load(ctx, "scene-001")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Bubbles) != 1 || got.Bubbles[0].BubbleID != "b-1" {
		t.Fatalf("loaded %+v", got)
	}
	if got.Bubbles[0].PanelID == nil || *got.Bubbles[0].PanelID != 1 {
		t.Fatalf("panel id lost in file round trip")
	}
}

func TestFileAdapterEmptyLayerIsNotNotFound(t *testing.T) {
	a := NewFileAdapter(t.TempDir())
	ctx := context.Background()

	if _, err := a.Save(ctx, "scene-002", DialogueLayer{Bubbles: []WireBubble{}}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	got, err := a.Load(ctx, "scene-002")
	if err != nil {
		t.Fatalf("an explicitly saved empty layer must load, got %v", err)
	}
	if len(got.Bubbles) != 0 {
		t.Fatalf("expected empty bubbles, got %+v", got)
	}
}
