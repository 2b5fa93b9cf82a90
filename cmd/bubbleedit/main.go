package main

import (
	"context"
	"flag"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.design/x/clipboard"

	"github.com/milk9111/bubbleedit/config"
	"github.com/milk9111/bubbleedit/layer"
	"github.com/milk9111/bubbleedit/scene"
	"github.com/milk9111/bubbleedit/session"
	"github.com/milk9111/bubbleedit/suggest"
)

// loadBackground loads the scene render both as a GPU image for the canvas
// and as a decoded image for the PNG exporter. A missing render is not
// fatal; the canvas falls back to a flat stage.
func loadBackground(path string) (*ebiten.Image, image.Image, error) {
	if path == "" {
		return nil, nil, nil
	}
	img, decoded, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	return img, decoded, nil
}

func main() {
	scenePath := flag.String("scene", "", "Path to a scene artifact JSON (required)")
	configPath := flag.String("config", "", "Optional path to a bubbleedit.yaml")
	local := flag.Bool("local", false, "Save layers as files next to the scenes dir instead of the layer service")
	flag.Parse()

	if *scenePath == "" {
		log.Fatalf("-scene is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	art, err := scene.Load(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene artifact: %v", err)
	}
	log.Printf("Editing scene %s (%d panels, %d script lines)", art.SceneID, len(art.Panels), len(art.Suggestions))

	var adapter layer.Adapter
	if *local || cfg.ServerURL == "" {
		adapter = layer.NewFileAdapter(cfg.ScenesDir)
	} else {
		adapter = layer.NewHTTPAdapter(cfg.ServerURL)
	}

	sess, err := session.Open(context.Background(), art.SceneID, art.Background, art.PanelIndex(), adapter)
	if err != nil {
		// the session came back empty; keep going but say why
		log.Printf("Saved layer unusable, starting empty: %v", err)
	}

	bg, decoded, err := loadBackground(art.Background)
	if err != nil {
		log.Printf("Failed to load background render: %v", err)
	}

	var suggestClient *suggest.Client
	if cfg.SuggestURL != "" {
		suggestClient = suggest.NewClient(cfg.SuggestURL)
		go func() {
			if err := suggestClient.Prefetch(context.Background(), []string{art.SceneID}); err != nil {
				log.Printf("Suggestion prefetch: %v", err)
			}
		}()
	}

	watchDir := filepath.Dir(*scenePath)
	watcher, err := scene.NewWatcher(watchDir)
	if err != nil {
		log.Printf("Artifact watcher disabled: %v", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	clipboardOK := true
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable: %v", err)
		clipboardOK = false
	}

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		log.Printf("Failed to create export dir: %v", err)
	}

	app := NewApp(cfg, *scenePath, art, sess, adapter, bg, decoded, suggestClient, watcher, clipboardOK)

	ebiten.SetWindowTitle("bubbleedit - " + art.SceneID)
	ebiten.SetFullscreen(true)
	if err := ebiten.RunGame(app); err != nil {
		log.Fatalf("Editor exited: %v", err)
	}
}
