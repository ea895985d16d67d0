package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"illust/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func fillStore(t *testing.T, st *store.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("s%03d", i)
		if err := st.Put(ctx, key, "data:image/png;base64,"+key); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
}

func collectChunks(t *testing.T, it *ChunkIterator) [][]byte {
	t.Helper()
	var chunks [][]byte
	for {
		buf, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if buf == nil {
			return chunks
		}
		chunks = append(chunks, buf)
	}
}

func TestExportChunking(t *testing.T) {
	st := testStore(t)
	fillStore(t, st, 120)
	ctx := context.Background()

	it, err := Export(ctx, st, Options{ChunkSize: 50})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	chunks := collectChunks(t, it)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	// Chunk sizes must be 50, 50, 20: verify by importing each chunk into a
	// fresh store and counting rows.
	wantSizes := []int{50, 50, 20}
	for i, chunk := range chunks {
		dst := testStore(t)
		n, err := Import(ctx, dst, chunk)
		if err != nil {
			t.Fatalf("import chunk %d: %v", i, err)
		}
		if n != wantSizes[i] {
			t.Fatalf("chunk %d: expected %d rows, got %d", i, wantSizes[i], n)
		}
	}
}

func TestExportEmptyStore(t *testing.T) {
	st := testStore(t)

	it, err := Export(context.Background(), st, Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if chunks := collectChunks(t, it); len(chunks) != 0 {
		t.Fatalf("expected zero chunks, got %d", len(chunks))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := testStore(t)
	fillStore(t, src, 7)
	ctx := context.Background()

	it, err := Export(ctx, src, Options{ChunkSize: 3})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := testStore(t)
	total := 0
	for _, chunk := range collectChunks(t, it) {
		n, err := Import(ctx, dst, chunk)
		if err != nil {
			t.Fatalf("import: %v", err)
		}
		total += n
	}
	if total != 7 {
		t.Fatalf("expected 7 imports, got %d", total)
	}

	keys, err := dst.ListKeys(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 7 {
		t.Fatalf("expected 7 keys, got %d", len(keys))
	}
	got, ok, err := dst.Get(ctx, "s003")
	if err != nil || !ok {
		t.Fatalf("get s003: ok=%v err=%v", ok, err)
	}
	if got != "data:image/png;base64,s003" {
		t.Fatalf("value mismatch: %q", got)
	}
}

func TestExportSkipsDeletedKeys(t *testing.T) {
	st := testStore(t)
	fillStore(t, st, 4)
	ctx := context.Background()

	it, err := Export(ctx, st, Options{ChunkSize: 10})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// Delete after the key list is taken but before the chunk is built.
	if err := st.Delete(ctx, "s001"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	chunks := collectChunks(t, it)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	dst := testStore(t)
	n, err := Import(ctx, dst, chunks[0])
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows after racing delete, got %d", n)
	}
}

func TestExportProgress(t *testing.T) {
	st := testStore(t)
	fillStore(t, st, 12)

	var reported []int
	it, err := Export(context.Background(), st, Options{
		ChunkSize:  5,
		OnProgress: func(pct int) { reported = append(reported, pct) },
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	collectChunks(t, it)

	if len(reported) != 12 {
		t.Fatalf("expected one notification per artifact, got %d", len(reported))
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Fatalf("progress regressed: %v", reported)
		}
	}
	if last := reported[len(reported)-1]; last != 100 {
		t.Fatalf("final progress = %d, want 100", last)
	}
}

// rejectingStore refuses writes for one key and delegates the rest.
type rejectingStore struct {
	store.ImageStore
	rejectKey string
}

func (s *rejectingStore) Put(ctx context.Context, key, value string) error {
	if key == s.rejectKey {
		return errors.New("write refused")
	}
	return s.ImageStore.Put(ctx, key, value)
}

func TestImportIsolatesFailedRows(t *testing.T) {
	src := testStore(t)
	fillStore(t, src, 5)
	ctx := context.Background()

	it, err := Export(ctx, src, Options{ChunkSize: 10})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	chunks := collectChunks(t, it)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	dst := testStore(t)
	n, err := Import(ctx, &rejectingStore{ImageStore: dst, rejectKey: "s002"}, chunks[0])
	if err != nil {
		t.Fatalf("a single failed row must not abort the restore, got %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 successful writes, got %d", n)
	}

	keys, err := dst.ListKeys(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 4 {
		t.Fatalf("expected 4 keys, got %d", len(keys))
	}
	if _, ok, err := dst.Get(ctx, "s002"); err != nil || ok {
		t.Fatalf("rejected key must stay absent: ok=%v err=%v", ok, err)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	dst := testStore(t)

	_, err := Import(context.Background(), dst, []byte("this is not a database"))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestImportRejectsWrongSchema(t *testing.T) {
	// A real SQLite file, but without the images table.
	dir := t.TempDir()
	path := filepath.Join(dir, "other.db")
	u := url.URL{Scheme: "file", Path: path}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE notes (id TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dst := testStore(t)
	_, err = Import(context.Background(), dst, buf)
	if !errors.Is(err, ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}
