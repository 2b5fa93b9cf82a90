package layer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Adapter is the persistence boundary. Load returns ErrNotFound for a
// scene with no saved layer yet; Save is create-or-replace and echoes the
// stored layer back.
type Adapter interface {
	Load(ctx context.Context, sceneID string) (DialogueLayer, error)
	Save(ctx context.Context, sceneID string, dl DialogueLayer) (DialogueLayer, error)
}

// FileAdapter keeps one pretty-printed JSON file per scene under a
// directory. The default for working offline against local scene
// artifacts.
type FileAdapter struct {
	Dir string
}

func NewFileAdapter(dir string) *FileAdapter {
	return &FileAdapter{Dir: dir}
}

func (a *FileAdapter) path(sceneID string) string {
	return filepath.Join(a.Dir, fmt.Sprintf("%s.layer.json", sceneID))
}

func (a *FileAdapter) Load(_ context.Context, sceneID string) (DialogueLayer, error) {
	data, err := os.ReadFile(a.path(sceneID))
	if err != nil {
		if os.IsNotExist(err) {
			return DialogueLayer{}, ErrNotFound
		}
		return DialogueLayer{}, err
	}
	return Decode(data)
}

func (a *FileAdapter) Save(_ context.Context, sceneID string, dl DialogueLayer) (DialogueLayer, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return DialogueLayer{}, err
	}
	f, err := os.Create(a.path(sceneID))
	if err != nil {
		return DialogueLayer{}, err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dl); err != nil {
		return DialogueLayer{}, err
	}
	return dl, nil
}

// HTTPAdapter talks to a dialogue-layer service (cmd/layerd or the real
// backend) over plain JSON.
type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPAdapter(baseURL string) *HTTPAdapter {
	return &HTTPAdapter{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *HTTPAdapter) layerURL(sceneID string) string {
	return fmt.Sprintf("%s/scenes/%s/layer", a.BaseURL, url.PathEscape(sceneID))
}

func (a *HTTPAdapter) Load(ctx context.Context, sceneID string) (DialogueLayer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.layerURL(sceneID), nil)
	if err != nil {
		return DialogueLayer{}, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return DialogueLayer{}, fmt.Errorf("load layer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return DialogueLayer{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return DialogueLayer{}, fmt.Errorf("load layer: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return DialogueLayer{}, err
	}
	return Decode(data)
}

func (a *HTTPAdapter) Save(ctx context.Context, sceneID string, dl DialogueLayer) (DialogueLayer, error) {
	body, err := json.Marshal(dl)
	if err != nil {
		return DialogueLayer{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.layerURL(sceneID), bytes.NewReader(body))
	if err != nil {
		return DialogueLayer{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Client.Do(req)
	if err != nil {
		return DialogueLayer{}, fmt.Errorf("save layer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return DialogueLayer{}, fmt.Errorf("save layer: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return DialogueLayer{}, err
	}
	return Decode(data)
}
