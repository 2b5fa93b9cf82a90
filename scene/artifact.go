// Package scene reads the planning pipeline's outputs at the editor
// boundary: the approved background render, the panel layout, and any
// suggested dialogue lines. All of it is read-only input; the editor never
// writes an artifact back.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/panel"
)

// Line is one suggested dialogue line, grouped by panel. Drag-source
// content only, never authoritative state.
type Line struct {
	PanelID int    `json:"panel_id"`
	Speaker string `json:"speaker,omitempty"`
	Type    string `json:"type"`
	Text    string `json:"text"`
}

// ArtifactPanel is the layout pipeline's panel rect, normalized to the
// background image.
type ArtifactPanel struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// Artifact is one scene's editor-facing bundle.
type Artifact struct {
	SceneID     string          `json:"scene_id"`
	Background  string          `json:"background"`
	Panels      []ArtifactPanel `json:"panels"`
	Suggestions []Line          `json:"suggestions,omitempty"`
}

// Load reads a scene artifact JSON from disk. The background path is
// resolved relative to the artifact file when not absolute.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse scene artifact %s: %w", path, err)
	}
	if a.SceneID == "" {
		return nil, fmt.Errorf("scene artifact %s: missing scene_id", path)
	}
	if a.Background != "" && !filepath.IsAbs(a.Background) {
		a.Background = filepath.Join(filepath.Dir(path), a.Background)
	}
	return &a, nil
}

// PanelIndex builds the session's panel index from the artifact layout.
func (a *Artifact) PanelIndex() *panel.Index {
	panels := make([]panel.Panel, 0, len(a.Panels))
	for _, p := range a.Panels {
		panels = append(panels, panel.Panel{
			ID:   p.ID,
			Rect: geom.Rect{X: p.X, Y: p.Y, W: p.W, H: p.H},
		})
	}
	return panel.NewIndex(panels)
}

// SuggestionsFor returns the artifact's suggested lines for one panel.
func (a *Artifact) SuggestionsFor(panelID int) []Line {
	var out []Line
	for _, l := range a.Suggestions {
		if l.PanelID == panelID {
			out = append(out, l)
		}
	}
	return out
}
