package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/milk9111/bubbleedit/layer"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "layers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return repo
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "scene-001"); !errors.Is(err, layer.ErrNotFound) {
		t.Fatalf("missing scene should be ErrNotFound, got %v", err)
	}
}

func TestRepositoryPutGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	payload := []byte(`{"bubbles":[{"bubble_id":"b-1","bubble_type":"speech","text":"hi","position":{"x":0.2,"y":0.2},"size":{"w":0.2,"h":0.1}}]}`)
	if err := repo.Put(ctx, "scene-001", payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "scene-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload round trip: got %s", got)
	}
}

func TestRepositoryPutReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, "scene-001", []byte(`{"bubbles":[]}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	updated := []byte(`{"bubbles":[{"bubble_id":"b-2","bubble_type":"narration","text":"later","position":{"x":0.1,"y":0.1},"size":{"w":0.2,"h":0.1}}]}`)
	if err := repo.Put(ctx, "scene-001", updated); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.Get(ctx, "scene-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(updated) {
		t.Fatalf("replace did not stick: %s", got)
	}
}
