// Package backup writes the whole chunk database to a single portable file:
// a JSON header line followed by a gob body, zstd-compressed. Backups are
// what the offsite mirror ships and what a fresh server can be seeded from.
package backup

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Fayzenx/Vinox/internal/persistence/chunkdb"
	"github.com/Fayzenx/Vinox/internal/world"
	"github.com/Fayzenx/Vinox/internal/world/chunk"
)

type Header struct {
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	Seed        int64  `json:"seed"`
	ChunkEdge   int    `json:"chunk_edge"`
	BlockDigest string `json:"block_digest,omitempty"`
}

type BackupV1 struct {
	Header Header
	Chunks []ChunkV1
}

// ChunkV1 carries one chunk's marshaled snapshot. The snapshot codec owns
// the voxel encoding; the backup only frames it.
type ChunkV1 struct {
	Pos [3]int
	Raw []byte
}

const version = 1

// Capture reads every stored chunk out of the database.
func Capture(ctx context.Context, store *chunkdb.Store, header Header) (BackupV1, error) {
	header.Version = version
	if header.CreatedAt == "" {
		header.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		return BackupV1{}, err
	}
	b := BackupV1{Header: header, Chunks: make([]ChunkV1, 0, len(keys))}
	for _, key := range keys {
		raw, err := store.Get(ctx, key)
		if err != nil {
			return BackupV1{}, fmt.Errorf("backup: chunk (%d,%d,%d): %w", key.X, key.Y, key.Z, err)
		}
		data, err := raw.Marshal()
		if err != nil {
			return BackupV1{}, err
		}
		b.Chunks = append(b.Chunks, ChunkV1{Pos: [3]int{key.X, key.Y, key.Z}, Raw: data})
	}
	return b, nil
}

// Restore writes every chunk of a backup into the database, replacing
// existing rows. Chunks that fail to decode abort the restore.
func Restore(ctx context.Context, store *chunkdb.Store, b BackupV1) error {
	for _, c := range b.Chunks {
		raw, err := chunk.UnmarshalRaw(c.Raw)
		if err != nil {
			return fmt.Errorf("backup: chunk (%d,%d,%d): %w", c.Pos[0], c.Pos[1], c.Pos[2], err)
		}
		key := world.ChunkKey{X: c.Pos[0], Y: c.Pos[1], Z: c.Pos[2]}
		if err := store.Put(ctx, key, raw); err != nil {
			return err
		}
	}
	return nil
}

func Write(path string, b BackupV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	// Header first as a plain JSON line so tooling can identify a backup
	// without decoding the body.
	hb, err := json.Marshal(b.Header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&b); err != nil {
		return fmt.Errorf("backup: encode: %w", err)
	}
	return nil
}

func Read(path string) (BackupV1, error) {
	var b BackupV1
	f, err := os.Open(path)
	if err != nil {
		return b, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return b, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body carries the header too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return b, fmt.Errorf("backup: header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&b); err != nil {
		return b, fmt.Errorf("backup: decode: %w", err)
	}
	if b.Header.Version != version {
		return b, fmt.Errorf("backup: unsupported version %d", b.Header.Version)
	}
	return b, nil
}
