package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/milk9111/bubbleedit/layer"
)

const migration = `
CREATE TABLE IF NOT EXISTS scene_layers (
    scene_id   TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Repository stores one dialogue-layer JSON document per scene.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// Get returns the stored layer payload, or layer.ErrNotFound.
func (r *Repository) Get(ctx context.Context, sceneID string) ([]byte, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT payload FROM scene_layers WHERE scene_id = ?
    `, sceneID)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, layer.ErrNotFound
		}
		return nil, err
	}
	return []byte(payload), nil
}

// Put creates or replaces the scene's layer.
func (r *Repository) Put(ctx context.Context, sceneID string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO scene_layers (scene_id, payload, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(scene_id) DO UPDATE SET
            payload = excluded.payload,
            updated_at = excluded.updated_at
    `, sceneID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store layer: %w", err)
	}
	return nil
}

// OpenSQLite opens (creating if needed) the sqlite database at dbPath.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
