package scene

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleArtifact = `{
  "scene_id": "ep12-s03",
  "background": "renders/ep12-s03.png",
  "panels": [
    {"id": 1, "x": 0.05, "y": 0.02, "w": 0.9, "h": 0.3},
    {"id": 2, "x": 0.05, "y": 0.36, "w": 0.9, "h": 0.3}
  ],
  "suggestions": [
    {"panel_id": 1, "speaker": "mina", "type": "speech", "text": "We made it."},
    {"panel_id": 2, "type": "narration", "text": "Three hours earlier."}
  ]
}`

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ep12-s03.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoadArtifact(t *testing.T) {
	path := writeArtifact(t, sampleArtifact)
	a, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.SceneID != "ep12-s03" {
		t.Fatalf("scene id = %q", a.SceneID)
	}
	want := filepath.Join(filepath.Dir(path), "renders", "ep12-s03.png")
	if a.Background != want {
		t.Fatalf("background = %q, want %q (relative resolution)", a.Background, want)
	}

	idx := a.PanelIndex()
	if !idx.Contains(1) || !idx.Contains(2) {
		t.Fatalf("panel index missing panels")
	}

	got := a.SuggestionsFor(1)
	if len(got) != 1 || got[0].Speaker != "mina" {
		t.Fatalf("suggestions for panel 1: %+v", got)
	}
}

func TestLoadArtifactRejectsMissingSceneID(t *testing.T) {
	path := writeArtifact(t, `{"background": "x.png", "panels": []}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("artifact without scene_id must fail")
	}
}

func TestLoadArtifactMalformed(t *testing.T) {
	path := writeArtifact(t, `{"scene_id": `)
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed artifact must fail")
	}
}

func TestIsArtifactFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"scenes/ep12-s03.json", true},
		{"scenes/EP12-S03.JSON", true},
		{"scenes/ep12-s03.layer.json", false},
		{"scenes/ep12-s03.png", false},
	}
	for _, c := range cases {
		if got := isArtifactFile(c.path); got != c.want {
			t.Fatalf("isArtifactFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
