package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestLinesFetchAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/scenes/ep12-s03/suggestions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lines": [{"panel_id": 1, "speaker": "mina", "type": "speech", "text": "We made it."}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	lines, err := c.Lines(ctx, "ep12-s03")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].Speaker != "mina" {
		t.Fatalf("lines = %+v", lines)
	}

	// second call must come from cache
	if _, err := c.Lines(ctx, "ep12-s03"); err != nil {
		t.Fatalf("cached lines: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("backend hit %d times, want 1", got)
	}

	c.Invalidate("ep12-s03")
	if _, err := c.Lines(ctx, "ep12-s03"); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("invalidate should force a refetch, hits = %d", got)
	}
}

func TestLinesNotFoundIsEmpty(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	lines, err := c.Lines(context.Background(), "no-such-scene")
	if err != nil {
		t.Fatalf("404 is not an error: %v", err)
	}
	if lines != nil {
		t.Fatalf("lines = %+v, want none", lines)
	}

	// the miss is cached too
	if _, err := c.Lines(context.Background(), "no-such-scene"); err != nil {
		t.Fatalf("cached miss: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("404 should be cached, hits = %d", got)
	}
}

func TestLinesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Lines(context.Background(), "ep12-s03"); err == nil {
		t.Fatalf("5xx must surface an error")
	}
}

func TestPrefetchWarmsCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"lines": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ids := []string{"s1", "s2", "s3"}
	if err := c.Prefetch(context.Background(), ids); err != nil {
		t.Fatalf("prefetch: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("prefetch hit backend %d times, want 3", got)
	}
	for _, id := range ids {
		if _, err := c.Lines(context.Background(), id); err != nil {
			t.Fatalf("warm cache read %s: %v", id, err)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("reads after prefetch must be cache hits, got %d", got)
	}
}
