// Package reconcile merges restored backup records into the live sentence
// list and realigns sentence statuses with the image store.
package reconcile

import (
	"context"

	"illust/internal/models"
	"illust/internal/store"
)

// RestoredPlaceholderText marks sentences synthesized for legacy image
// records whose original text is gone.
const RestoredPlaceholderText = "(restored image, original text unavailable)"

// Merge overlays restored sentences onto the existing list by id. A
// restored sentence replaces an existing one wholesale. Every legacy image
// id without a sentence gets a placeholder entry so its artifact stays
// reachable; the placeholder carries no cached image data, forcing a lazy
// re-fetch from the store. Output order is unspecified.
func Merge(existing, restored []models.Sentence, legacyImageIDs []string) []models.Sentence {
	byID := make(map[string]models.Sentence, len(existing)+len(restored))
	for _, s := range existing {
		byID[s.ID] = s
	}
	for _, s := range restored {
		byID[s.ID] = s
	}
	for _, id := range legacyImageIDs {
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = models.Sentence{
			ID:     id,
			Text:   RestoredPlaceholderText,
			Status: models.StatusCompleted,
		}
	}

	merged := make([]models.Sentence, 0, len(byID))
	for _, s := range byID {
		merged = append(merged, s)
	}
	return merged
}

// SyncWithStore realigns sentence statuses with store membership: a stored
// key marks its sentence completed, a missing key reverts a completed
// sentence to pending and drops the stale cached image. Sentences mid-flight
// in processing are left untouched either way.
func SyncWithStore(ctx context.Context, st store.ImageStore, sentences []models.Sentence) ([]models.Sentence, error) {
	keys, err := st.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}

	synced := make([]models.Sentence, len(sentences))
	for i, s := range sentences {
		if s.Status == models.StatusProcessing {
			synced[i] = s
			continue
		}
		if _, ok := present[s.ID]; ok {
			s.Status = models.StatusCompleted
		} else if s.Status == models.StatusCompleted {
			s.Status = models.StatusPending
			s.ImageData = ""
		}
		synced[i] = s
	}
	return synced, nil
}
