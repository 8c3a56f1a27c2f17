package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"fan_hub/internal/domain"
)

// Domain keys. The version suffix invalidates cached data from prior
// schema generations.
const (
	matchesKey = "matches"
	newsKey    = "news"
)

const schema = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
`

// Store persists the last-known-good payload per data domain. Saving is
// best effort: failures are logged, never surfaced, because the
// in-memory copy still serves the current render.
type Store struct {
	db         *sqlx.DB
	keyVersion string
	logger     *slog.Logger
}

// Open opens (creating if needed) the cache database at path.
func Open(path, keyVersion string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Store{
		db:         db,
		keyVersion: keyVersion,
		logger:     logger.With("component", "cache"),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMatches overwrites the match payload and returns its timestamp.
func (s *Store) SaveMatches(ctx context.Context, matches []domain.Match) time.Time {
	return save(ctx, s, matchesKey, matches)
}

// LoadMatches returns the cached match payload, or nil when absent or
// invalid.
func (s *Store) LoadMatches(ctx context.Context) *domain.CachedPayload[domain.Match] {
	return load[domain.Match](ctx, s, matchesKey)
}

// SaveNews overwrites the news payload and returns its timestamp.
func (s *Store) SaveNews(ctx context.Context, items []domain.NewsItem) time.Time {
	return save(ctx, s, newsKey, items)
}

// LoadNews returns the cached news payload, or nil when absent or
// invalid.
func (s *Store) LoadNews(ctx context.Context) *domain.CachedPayload[domain.NewsItem] {
	return load[domain.NewsItem](ctx, s, newsKey)
}

func (s *Store) key(name string) string {
	return name + "-" + s.keyVersion
}

func save[T any](ctx context.Context, s *Store, name string, data []T) time.Time {
	payload := domain.CachedPayload[T]{
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("could not serialize payload", "key", s.key(name), "error", err)
		return payload.UpdatedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, s.key(name), string(raw), payload.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("could not persist payload", "key", s.key(name), "error", err)
	}

	return payload.UpdatedAt
}

func load[T any](ctx context.Context, s *Store, name string) *domain.CachedPayload[T] {
	var raw string
	err := s.db.GetContext(ctx, &raw,
		"SELECT payload FROM cache_entries WHERE key = ?", s.key(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Warn("could not read payload", "key", s.key(name), "error", err)
		return nil
	}

	var payload domain.CachedPayload[T]
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.logger.Warn("discarding unparsable payload", "key", s.key(name), "error", err)
		return nil
	}
	if payload.Data == nil {
		return nil
	}

	return &payload
}
