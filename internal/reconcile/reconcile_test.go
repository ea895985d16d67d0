package reconcile

import (
	"context"
	"path/filepath"
	"testing"

	"illust/internal/models"
	"illust/internal/store"
)

func sentenceByID(t *testing.T, list []models.Sentence, id string) models.Sentence {
	t.Helper()
	for _, s := range list {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("sentence %q not found in %v", id, list)
	return models.Sentence{}
}

func TestMergeRestoredWinsOnCollision(t *testing.T) {
	existing := []models.Sentence{
		{ID: "a", Text: "old text", Status: models.StatusCompleted, ImageData: "cached"},
		{ID: "b", Text: "untouched", Status: models.StatusError},
	}
	restored := []models.Sentence{
		{ID: "a", Text: "new text", Status: models.StatusPending},
		{ID: "c", Text: "brand new", Status: models.StatusPending},
	}

	merged := Merge(existing, restored, nil)
	if len(merged) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(merged))
	}

	a := sentenceByID(t, merged, "a")
	if a.Text != "new text" || a.Status != models.StatusPending || a.ImageData != "" {
		t.Fatalf("collision must be full replacement, got %+v", a)
	}
	b := sentenceByID(t, merged, "b")
	if b.Text != "untouched" || b.Status != models.StatusError {
		t.Fatalf("unrelated entry changed: %+v", b)
	}
	sentenceByID(t, merged, "c")
}

func TestMergeSynthesizesLegacyPlaceholders(t *testing.T) {
	existing := []models.Sentence{{ID: "known", Text: "kept", Status: models.StatusPending}}

	merged := Merge(existing, nil, []string{"x1", "known"})
	if len(merged) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(merged))
	}

	placeholder := sentenceByID(t, merged, "x1")
	if placeholder.Text != RestoredPlaceholderText {
		t.Fatalf("placeholder text = %q", placeholder.Text)
	}
	if placeholder.Status != models.StatusCompleted {
		t.Fatalf("placeholder status = %q, want completed", placeholder.Status)
	}
	if placeholder.ImageData != "" {
		t.Fatal("placeholder must not cache image data")
	}

	known := sentenceByID(t, merged, "known")
	if known.Text != "kept" {
		t.Fatalf("legacy id with existing sentence must not be replaced: %+v", known)
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if merged := Merge(nil, nil, nil); len(merged) != 0 {
		t.Fatalf("expected empty merge, got %v", merged)
	}
}

func TestSyncWithStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	if err := st.Put(ctx, "has-image", "data"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Put(ctx, "mid-flight", "data"); err != nil {
		t.Fatalf("put: %v", err)
	}

	sentences := []models.Sentence{
		{ID: "has-image", Status: models.StatusPending},
		{ID: "was-deleted", Status: models.StatusCompleted, ImageData: "stale"},
		{ID: "mid-flight", Status: models.StatusProcessing},
		{ID: "never-had", Status: models.StatusError},
	}

	synced, err := SyncWithStore(ctx, st, sentences)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if got := sentenceByID(t, synced, "has-image").Status; got != models.StatusCompleted {
		t.Fatalf("stored key must complete its sentence, got %q", got)
	}
	deleted := sentenceByID(t, synced, "was-deleted")
	if deleted.Status != models.StatusPending {
		t.Fatalf("deleted key must revert completed to pending, got %q", deleted.Status)
	}
	if deleted.ImageData != "" {
		t.Fatal("stale cached image must be dropped")
	}
	if got := sentenceByID(t, synced, "mid-flight").Status; got != models.StatusProcessing {
		t.Fatalf("processing must be left untouched, got %q", got)
	}
	if got := sentenceByID(t, synced, "never-had").Status; got != models.StatusError {
		t.Fatalf("error status without stored key must be left, got %q", got)
	}
}
