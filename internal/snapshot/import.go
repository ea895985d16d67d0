package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"illust/internal/store"
)

// Import restores every image row of a single chunk buffer into the store
// and returns the number of rows written. Multi-chunk exports are restored
// by calling Import once per chunk; chunks carry no sequencing.
func Import(ctx context.Context, st store.ImageStore, buf []byte) (int, error) {
	dir, err := os.MkdirTemp("", "illust-restore-")
	if err != nil {
		return 0, fmt.Errorf("creating restore workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "chunk.db")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return 0, fmt.Errorf("staging chunk: %w", err)
	}

	db, err := openContainer(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer db.Close()

	if err := verifySchema(ctx, db); err != nil {
		return 0, err
	}

	rows, err := db.QueryContext(ctx, "SELECT id, base64 FROM images")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id, base64 string
		if err := rows.Scan(&id, &base64); err != nil {
			return count, fmt.Errorf("reading chunk row: %w", err)
		}
		if err := st.Put(ctx, id, base64); err != nil {
			// Per-key failures are isolated; the rest of the chunk still
			// restores.
			slog.Warn("skipping chunk row, store write failed", "id", id, "error", err)
			continue
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return count, nil
}

// verifySchema distinguishes a non-database buffer from a database that was
// not produced by the exporter. SQLite defers reading the file until the
// first statement, so the sqlite_master probe covers both cases.
func verifySchema(ctx context.Context, db *sql.DB) error {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'images'").Scan(&name)
	if err == sql.ErrNoRows {
		return ErrInvalidSchema
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}
