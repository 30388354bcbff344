// Package drafts keeps unsaved admin editor state in SQLite so an editor
// can resume work after the browser session ends.
package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// ErrNotFound is returned when no draft has the requested id.
var ErrNotFound = errors.New("drafts: not found")

// Draft is a snapshot of the editor. PostID is empty for unpublished posts.
type Draft struct {
	ID        string
	PostID    string
	Title     string
	Post      post.Post
	UpdatedAt time.Time
}

// Store persists drafts in a single SQLite table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates or opens the database at path. ":memory:" is accepted for
// tests. The parent directory is created when missing.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("drafts: database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("drafts: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("drafts: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("drafts: ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("drafts: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_drafts_updated_at ON drafts(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_drafts_post_id ON drafts(post_id);
	`)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces d. An empty ID gets a new uuid. PostID and the
// post's own id fill each other in and must agree when both are set. The
// stored title follows the post and keeps d.Title while the post is untitled.
func (s *Store) Save(ctx context.Context, d Draft) (Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	} else if _, err := uuid.Parse(d.ID); err != nil {
		return Draft{}, fmt.Errorf("drafts: invalid id %q: %w", d.ID, err)
	}
	post.Normalize(&d.Post)
	switch {
	case d.PostID == "":
		d.PostID = d.Post.ID
	case d.Post.ID == "":
		d.Post.ID = d.PostID
	case d.Post.ID != d.PostID:
		return Draft{}, fmt.Errorf("drafts: post id %q does not match draft post id %q", d.Post.ID, d.PostID)
	}
	if d.Post.Title != "" {
		d.Title = d.Post.Title
	}
	d.UpdatedAt = s.now().UTC()

	payload, err := json.Marshal(d.Post)
	if err != nil {
		return Draft{}, fmt.Errorf("drafts: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO drafts (id, post_id, title, payload, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		post_id = excluded.post_id,
		title = excluded.title,
		payload = excluded.payload,
		updated_at = excluded.updated_at
	`, d.ID, d.PostID, d.Title, string(payload), d.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Draft{}, fmt.Errorf("drafts: save %s: %w", d.ID, err)
	}
	return d, nil
}

// Get loads a draft by id.
func (s *Store) Get(ctx context.Context, id string) (Draft, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, post_id, title, payload, updated_at FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Draft{}, fmt.Errorf("drafts: get %s: %w", id, err)
	}
	return d, nil
}

// List returns drafts newest first. A limit of zero returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Draft, error) {
	query := `SELECT id, post_id, title, payload, updated_at FROM drafts ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("drafts: list: %w", err)
	}
	defer rows.Close()

	out := []Draft{}
	for rows.Next() {
		d, err := scanDraft(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("drafts: list: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("drafts: list: %w", err)
	}
	return out, nil
}

// Delete removes a draft. Deleting a missing draft returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("drafts: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// DeleteForPost drops every draft of a published post, used after a
// successful save.
func (s *Store) DeleteForPost(ctx context.Context, postID string) error {
	if postID == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("drafts: delete for post %s: %w", postID, err)
	}
	return nil
}

func scanDraft(scan func(...any) error) (Draft, error) {
	var (
		d                  Draft
		payload, updatedAt string
	)
	if err := scan(&d.ID, &d.PostID, &d.Title, &payload, &updatedAt); err != nil {
		return Draft{}, err
	}
	if err := json.Unmarshal([]byte(payload), &d.Post); err != nil {
		return Draft{}, fmt.Errorf("decode payload: %w", err)
	}
	post.Normalize(&d.Post)
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("parse updated_at: %w", err)
	}
	d.UpdatedAt = ts
	return d, nil
}
