// Package manifest loads and saves the sentence list the CLI works
// against. The manifest is the file-based stand-in for the application's
// in-memory sentence list; image payloads never appear in it.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"illust/internal/models"
)

type manifestFile struct {
	Sentences []entry `yaml:"sentences"`
}

type entry struct {
	ID     string `yaml:"id,omitempty"`
	Text   string `yaml:"text"`
	Status string `yaml:"status,omitempty"`
}

// Load reads a sentence manifest. Entries without an id get a fresh UUID;
// entries without a status start pending. A missing file is an empty list,
// so first use needs no setup.
func Load(path string) ([]models.Sentence, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	sentences := make([]models.Sentence, 0, len(mf.Sentences))
	for i, e := range mf.Sentences {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		status := models.StatusPending
		if e.Status != "" {
			status, err = models.ParseSentenceStatus(e.Status)
			if err != nil {
				return nil, fmt.Errorf("manifest %s, sentence %d: %w", path, i+1, err)
			}
		}
		sentences = append(sentences, models.Sentence{ID: id, Text: e.Text, Status: status})
	}
	return sentences, nil
}

// Save writes the sentence list back. Cached image data is deliberately not
// persisted; the image store owns artifact bytes.
func Save(path string, sentences []models.Sentence) error {
	mf := manifestFile{Sentences: make([]entry, 0, len(sentences))}
	for _, s := range sentences {
		mf.Sentences = append(mf.Sentences, entry{
			ID:     s.ID,
			Text:   s.Text,
			Status: string(s.Status),
		})
	}

	data, err := yaml.Marshal(&mf)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
