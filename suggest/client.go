// Package suggest fetches suggested dialogue lines from the planning
// pipeline. Responses are cached with a TTL because the editor re-opens
// the same scene repeatedly while a pipeline run is stable, and requests
// are rate limited so a prefetch across an episode doesn't hammer the
// backend.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/milk9111/bubbleedit/scene"
)

type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
	}
}

// Lines returns the suggested lines for a scene, grouped by panel on the
// caller's side via scene.Line.PanelID. Cached per scene until the TTL
// expires or Invalidate is called.
func (c *Client) Lines(ctx context.Context, sceneID string) ([]scene.Line, error) {
	if cached, ok := c.cache.Get(sceneID); ok {
		return cached.([]scene.Line), nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/scenes/%s/suggestions", c.baseURL, url.PathEscape(sceneID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch suggestions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// a scene without suggestions is normal
		c.cache.SetDefault(sceneID, []scene.Line(nil))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch suggestions: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Lines []scene.Line `json:"lines"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	c.cache.SetDefault(sceneID, payload.Lines)
	return payload.Lines, nil
}

// Prefetch warms the cache for a batch of scenes, typically every scene of
// the open episode, in parallel under the rate limit.
func (c *Client) Prefetch(ctx context.Context, sceneIDs []string) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, id := range sceneIDs {
		eg.Go(func() error {
			_, err := c.Lines(egCtx, id)
			return err
		})
	}
	return eg.Wait()
}

// Invalidate drops a scene's cached lines, used when the pipeline reports
// a regenerated artifact.
func (c *Client) Invalidate(sceneID string) {
	c.cache.Delete(sceneID)
}
