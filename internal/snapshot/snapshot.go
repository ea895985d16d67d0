// Package snapshot moves image artifacts in and out of segmented SQLite
// snapshot chunks. Each chunk is a standalone database file holding one
// table, images(id TEXT PRIMARY KEY, base64 TEXT), capped at a fixed number
// of rows so peak memory during export stays bounded by one batch.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"illust/internal/store"
)

// DefaultChunkSize is the row cap per exported chunk.
const DefaultChunkSize = 50

var (
	// ErrInvalidFormat means a buffer could not be opened as a snapshot
	// container at all.
	ErrInvalidFormat = errors.New("not a valid snapshot container")
	// ErrInvalidSchema means the container opened but has no images table.
	ErrInvalidSchema = errors.New("snapshot container has no images table")
)

// ProgressFunc receives export progress as a percentage of artifacts
// processed over total key count. Values are non-decreasing.
type ProgressFunc func(percent int)

// Options configures an export.
type Options struct {
	ChunkSize  int
	OnProgress ProgressFunc
}

// ChunkIterator is a lazy, finite, non-restartable sequence of chunk
// buffers. Each Next call builds exactly one chunk; the container backing a
// chunk is created, populated, serialized, and released before Next
// returns.
type ChunkIterator struct {
	store      store.ImageStore
	keys       []string
	next       int
	chunkSize  int
	processed  int
	onProgress ProgressFunc
}

// Export snapshots the key set and returns an iterator over chunk buffers.
// Keys deleted between Export and Next are skipped silently.
func Export(ctx context.Context, st store.ImageStore, opts Options) (*ChunkIterator, error) {
	keys, err := st.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkIterator{
		store:      st,
		keys:       keys,
		chunkSize:  chunkSize,
		onProgress: opts.OnProgress,
	}, nil
}

// Next returns the next chunk's serialized bytes, or (nil, nil) when the
// export is exhausted.
func (it *ChunkIterator) Next(ctx context.Context) ([]byte, error) {
	if it.next >= len(it.keys) {
		return nil, nil
	}
	end := it.next + it.chunkSize
	if end > len(it.keys) {
		end = len(it.keys)
	}
	buf, err := it.buildChunk(ctx, it.keys[it.next:end])
	if err != nil {
		return nil, err
	}
	it.next = end
	return buf, nil
}

func (it *ChunkIterator) buildChunk(ctx context.Context, batch []string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "illust-chunk-")
	if err != nil {
		return nil, fmt.Errorf("creating chunk workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "chunk.db")
	db, err := openContainer(path)
	if err != nil {
		return nil, fmt.Errorf("creating chunk container: %w", err)
	}

	if _, err := db.ExecContext(ctx, containerSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating chunk schema: %w", err)
	}

	for _, key := range batch {
		value, ok, err := it.store.Get(ctx, key)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if ok {
			if _, err := db.ExecContext(ctx,
				"INSERT INTO images (id, base64) VALUES (?, ?)", key, value); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("writing chunk row %q: %w", key, err)
			}
		}
		it.processed++
		it.notify()
	}

	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("finalizing chunk: %w", err)
	}
	return os.ReadFile(path)
}

func (it *ChunkIterator) notify() {
	if it.onProgress == nil || len(it.keys) == 0 {
		return
	}
	it.onProgress(it.processed * 100 / len(it.keys))
}

const containerSchemaSQL = `
CREATE TABLE IF NOT EXISTS images (
  id TEXT PRIMARY KEY,
  base64 TEXT
);
`

// openContainer opens a standalone chunk database. Containers use rollback
// journaling so the serialized result is a single file.
func openContainer(path string) (*sql.DB, error) {
	u := url.URL{Scheme: "file", Path: path}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = DELETE;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
