package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"illust/internal/models"
	"illust/internal/store"
)

// readChunkSize is the read granularity of the import stream. Progress is
// reported once per chunk, not per line.
const readChunkSize = 64 * 1024

// ImportResult is what a finished backup import hands to reconciliation.
type ImportResult struct {
	// Images is the number of image records written to the store.
	Images int
	// Sentences are the restored sentence records, status forced to
	// pending.
	Sentences []models.Sentence
	// LegacyImageIDs are ids seen only as legacy image records; the caller
	// synthesizes sentence entries for them.
	LegacyImageIDs []string
}

// ImportOptions configures an import.
type ImportOptions struct {
	OnProgress ProgressFunc
}

// Import consumes a backup stream incrementally. A read may end mid-line;
// the unconsumed tail is retained and prepended to the next chunk. Blank
// lines are skipped and unparseable lines are logged and skipped; neither
// aborts the stream. size is the total stream length in bytes and is used
// only for progress reporting.
func Import(ctx context.Context, st store.ImageStore, r io.Reader, size int64, opts ImportOptions) (*ImportResult, error) {
	res := &ImportResult{}
	imp := &importer{store: st, res: res}

	buf := make([]byte, readChunkSize)
	var tail []byte
	var consumed int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			consumed += int64(n)
			tail = append(tail, buf[:n]...)
			for {
				idx := bytes.IndexByte(tail, '\n')
				if idx < 0 {
					break
				}
				if err := imp.processLine(ctx, tail[:idx]); err != nil {
					return res, err
				}
				tail = tail[idx+1:]
			}
			if opts.OnProgress != nil && size > 0 {
				opts.OnProgress(int(consumed * 100 / size))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return res, fmt.Errorf("reading backup stream: %w", rerr)
		}
	}

	// A file with no trailing newline still carries its last record in the
	// retained tail.
	if err := imp.processLine(ctx, tail); err != nil {
		return res, err
	}
	return res, nil
}

type importer struct {
	store store.ImageStore
	res   *ImportResult
}

func (im *importer) processLine(ctx context.Context, line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		slog.Warn("skipping unparseable backup line", "error", err)
		return nil
	}

	switch rec.kind() {
	case KindSentence:
		im.res.Sentences = append(im.res.Sentences, models.Sentence{
			ID:     rec.ID,
			Text:   rec.Text,
			Status: models.StatusPending,
		})
	case KindImage:
		return im.putImage(ctx, rec, false)
	case KindLegacyImage:
		return im.putImage(ctx, rec, true)
	case KindHeader, KindUnknown:
		// Ignored: headers carry no state and unknown shapes are tolerated
		// for forward compatibility.
	}
	return nil
}

func (im *importer) putImage(ctx context.Context, rec record, legacy bool) error {
	if err := im.store.Put(ctx, rec.ID, rec.Base64); err != nil {
		// Per-key failures are isolated; the stream continues.
		slog.Warn("skipping image record, store write failed", "id", rec.ID, "error", err)
		return nil
	}
	im.res.Images++
	if legacy {
		im.res.LegacyImageIDs = append(im.res.LegacyImageIDs, rec.ID)
	}
	return nil
}
