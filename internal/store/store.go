// Package store persists listing caches and user preferences between
// runs, backed by a local SQLite file. It is the stand-in for the
// browser-extension storage area the tool grew out of.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// Well-known keys. Listing caches share the kv table with preferences.
const (
	KeyMetadataTypes = "metadata_types_cache"
	KeyAPIVersions   = "api_versions_cache"
	KeyAPIVersion    = "pref_api_version"
	KeySelectedTypes = "pref_selected_types"
)

// Store provides a SQLite implementation of the persistence layer.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open creates (if needed) and opens the store at path, verifying the
// connection and schema before returning.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	s := &Store{
		db:  db,
		log: logger.Named("store"),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS kv (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );
    `
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetList loads a cached listing. The second return is false when the
// key has never been written.
func (s *Store) GetList(ctx context.Context, key string) (schemas.CachedList, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return schemas.CachedList{}, false, nil
	}
	if err != nil {
		return schemas.CachedList{}, false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	var list schemas.CachedList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// A corrupt entry is treated as absent rather than fatal.
		s.log.Warn("Dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		return schemas.CachedList{}, false, nil
	}
	return list, true, nil
}

// PutList stores a cached listing, replacing any previous value.
func (s *Store) PutList(ctx context.Context, key string, list schemas.CachedList) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return s.put(ctx, key, string(raw))
}

// GetString loads a preference value; ok is false when unset.
func (s *Store) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// PutString stores a preference value.
func (s *Store) PutString(ctx context.Context, key, value string) error {
	return s.put(ctx, key, value)
}

func (s *Store) put(ctx context.Context, key, value string) error {
	const upsert = `
        INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET
            value = excluded.value,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.ExecContext(ctx, upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}
