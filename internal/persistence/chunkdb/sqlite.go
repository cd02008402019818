// Package chunkdb persists chunk snapshots in a SQLite database, one
// zstd-compressed blob per chunk coordinate.
package chunkdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/Fayzenx/Vinox/internal/world"
	"github.com/Fayzenx/Vinox/internal/world/chunk"
)

// ErrNotFound is returned by Get for coordinates with no stored snapshot.
var ErrNotFound = errors.New("chunkdb: chunk not found")

type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	z INTEGER NOT NULL,
	data BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (x, y, z)
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("chunkdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chunkdb: create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// Put stores (or replaces) the snapshot for a chunk coordinate.
func (s *Store) Put(ctx context.Context, key world.ChunkKey, raw chunk.RawChunk) error {
	b, err := raw.Marshal()
	if err != nil {
		return err
	}
	blob := s.enc.EncodeAll(b, nil)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (x, y, z, data, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(x, y, z) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key.X, key.Y, key.Z, blob, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("chunkdb: put (%d,%d,%d): %w", key.X, key.Y, key.Z, err)
	}
	return nil
}

// Get loads the snapshot for a chunk coordinate. A row that fails to
// decompress or decode is reported as an error so the caller can discard or
// regenerate the chunk.
func (s *Store) Get(ctx context.Context, key world.ChunkKey) (chunk.RawChunk, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM chunks WHERE x = ? AND y = ? AND z = ?`,
		key.X, key.Y, key.Z).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return chunk.RawChunk{}, ErrNotFound
	}
	if err != nil {
		return chunk.RawChunk{}, fmt.Errorf("chunkdb: get (%d,%d,%d): %w", key.X, key.Y, key.Z, err)
	}
	b, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return chunk.RawChunk{}, fmt.Errorf("chunkdb: corrupt chunk (%d,%d,%d): %w", key.X, key.Y, key.Z, err)
	}
	raw, err := chunk.UnmarshalRaw(b)
	if err != nil {
		return chunk.RawChunk{}, fmt.Errorf("chunkdb: corrupt chunk (%d,%d,%d): %w", key.X, key.Y, key.Z, err)
	}
	return raw, nil
}

// Delete removes the snapshot for a chunk coordinate, if present.
func (s *Store) Delete(ctx context.Context, key world.ChunkKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE x = ? AND y = ? AND z = ?`, key.X, key.Y, key.Z)
	return err
}

// PutMeta stores (or replaces) one world metadata entry, for example the
// generation seed the database was created with.
func (s *Store) PutMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("chunkdb: put meta %q: %w", key, err)
	}
	return nil
}

// GetMeta reads one metadata entry, or ErrNotFound.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("chunkdb: get meta %q: %w", key, err)
	}
	return value, nil
}

// Keys lists every stored chunk coordinate, sorted.
func (s *Store) Keys(ctx context.Context) ([]world.ChunkKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, z FROM chunks ORDER BY x, y, z`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []world.ChunkKey
	for rows.Next() {
		var k world.ChunkKey
		if err := rows.Scan(&k.X, &k.Y, &k.Z); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
