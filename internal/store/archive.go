// Package store persists generated mind maps to a local SQLite
// archive, so batch jobs can be browsed and re-loaded later without
// re-spending LLM calls.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"themetree/internal/logging"
	"themetree/internal/mindmap"
)

const schema = `
CREATE TABLE IF NOT EXISTS mindmaps (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	theme      TEXT NOT NULL,
	focus      TEXT NOT NULL DEFAULT '',
	map_type   TEXT NOT NULL DEFAULT 'theme',
	label      TEXT NOT NULL,
	tree_json  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_mindmaps_theme ON mindmaps(theme);
`

// Archive is a SQLite-backed mind-map archive.
type Archive struct {
	db *sql.DB
}

// Entry is one archived mind map's metadata.
type Entry struct {
	ID        int64
	Theme     string
	Focus     string
	MapType   string
	Label     string
	CreatedAt time.Time
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	logging.Store("opened archive %s", path)
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores a generated tree and returns its archive id.
func (a *Archive) Save(ctx context.Context, theme, focus, mapType string, tree *mindmap.MindMap) (int64, error) {
	treeJSON, err := tree.ToJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize tree: %w", err)
	}
	if mapType == "" {
		mapType = "theme"
	}

	res, err := a.db.ExecContext(ctx,
		`INSERT INTO mindmaps (theme, focus, map_type, label, tree_json) VALUES (?, ?, ?, ?, ?)`,
		theme, focus, mapType, tree.Label, treeJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mindmap: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	logging.Store("archived mindmap %d (theme=%q)", id, theme)
	return id, nil
}

// Get loads an archived tree by id.
func (a *Archive) Get(ctx context.Context, id int64) (*mindmap.MindMap, error) {
	var treeJSON string
	err := a.db.QueryRowContext(ctx,
		`SELECT tree_json FROM mindmaps WHERE id = ?`, id,
	).Scan(&treeJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mindmap %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mindmap %d: %w", id, err)
	}
	return mindmap.FromJSON([]byte(treeJSON))
}

// List returns the archive entries, newest first.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, theme, focus, map_type, label, created_at FROM mindmaps ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mindmaps: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Theme, &e.Focus, &e.MapType, &e.Label, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
