// Package backup reads and writes the .evb archive: one newline-delimited
// JSON record per line, a header first, then sentence and image records in
// any interleaving. The import side also accepts legacy image records that
// predate the type field.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"illust/internal/models"
	"illust/internal/store"
)

// ErrCancelled is returned by a destination picker when the user declines
// to choose a target. The export unwinds silently: no output, no error.
var ErrCancelled = errors.New("backup destination cancelled")

// ProgressFunc receives progress as a percentage. Export reports items
// processed over total item count; Import reports bytes consumed over
// stream length.
type ProgressFunc func(percent int)

// progressInterval throttles export notifications to every N items plus
// the final one.
const progressInterval = 50

// ExportOptions configures where an export lands.
type ExportOptions struct {
	// PickDestination obtains the direct-write target, typically a freshly
	// created file. Returning ErrCancelled aborts the whole export with a
	// nil error and no partial output.
	PickDestination func() (io.WriteCloser, error)
	// Fallback delivers the fully materialized document when no direct
	// destination is available or direct writing failed.
	Fallback   func(data []byte) error
	OnProgress ProgressFunc
}

// Export streams the sentence list and every stored image as one backup
// document. Keys that vanish between ListKeys and Get are skipped.
func Export(ctx context.Context, st store.ImageStore, sentences []models.Sentence, opts ExportOptions) error {
	keys, err := st.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}

	// One exporter serves both passes: its progress high-water mark keeps
	// notifications non-decreasing when a failed direct write forces the
	// stream to be rebuilt in memory.
	e := &exporter{store: st, sentences: sentences, keys: keys, onProgress: opts.OnProgress}

	if opts.PickDestination != nil {
		w, err := opts.PickDestination()
		if errors.Is(err, ErrCancelled) {
			return nil
		}
		if err != nil {
			slog.Warn("backup destination unavailable, falling back to in-memory export", "error", err)
		} else {
			werr := e.run(ctx, w)
			if cerr := w.Close(); werr == nil {
				werr = cerr
			}
			if werr == nil {
				return nil
			}
			slog.Warn("direct backup write failed, falling back to in-memory export", "error", werr)
		}
	}

	if opts.Fallback == nil {
		return errors.New("no backup destination available")
	}
	var buf bytes.Buffer
	if err := e.run(ctx, &buf); err != nil {
		return err
	}
	return opts.Fallback(buf.Bytes())
}

type exporter struct {
	store      store.ImageStore
	sentences  []models.Sentence
	keys       []string
	processed  int
	reported   int
	onProgress ProgressFunc
}

func (e *exporter) run(ctx context.Context, w io.Writer) error {
	e.processed = 0
	bw := bufio.NewWriter(w)
	total := len(e.sentences) + len(e.keys)

	header := headerRecord{
		Type:    "header",
		Version: FormatVersion,
		Created: time.Now().UTC().Format(time.RFC3339),
		Count:   total,
	}
	if err := writeLine(bw, header); err != nil {
		return err
	}

	for _, s := range e.sentences {
		if err := writeLine(bw, sentenceRecord{Type: "sentence", ID: s.ID, Text: s.Text}); err != nil {
			return err
		}
		e.advance(total)
	}

	for _, key := range e.keys {
		value, ok, err := e.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			if err := writeLine(bw, imageRecord{Type: "image", ID: key, Base64: value}); err != nil {
				return err
			}
		}
		e.advance(total)
	}

	return bw.Flush()
}

// advance counts every item, even skipped ones, so the final notification
// always lands on 100. Notifications fire every progressInterval items and
// on the last item; values below the high-water mark of an earlier pass are
// swallowed.
func (e *exporter) advance(total int) {
	e.processed++
	if e.onProgress == nil || total == 0 {
		return
	}
	if e.processed%progressInterval != 0 && e.processed != total {
		return
	}
	pct := e.processed * 100 / total
	if pct < e.reported {
		return
	}
	e.reported = pct
	e.onProgress(pct)
}

func writeLine(w *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding backup record: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
