package models

import (
	"fmt"
	"strings"
)

// SentenceStatus defines the lifecycle states of a sentence's illustration.
type SentenceStatus string

const (
	StatusPending    SentenceStatus = "pending"
	StatusProcessing SentenceStatus = "processing"
	StatusCompleted  SentenceStatus = "completed"
	StatusError      SentenceStatus = "error"
)

var validSentenceStatuses = map[SentenceStatus]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusError:      {},
}

func IsValidSentenceStatus(status SentenceStatus) bool {
	_, ok := validSentenceStatuses[status]
	return ok
}

// ParseSentenceStatus normalizes and validates a raw status string.
func ParseSentenceStatus(raw string) (SentenceStatus, error) {
	status := SentenceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !IsValidSentenceStatus(status) {
		return "", fmt.Errorf("invalid sentence status %q", raw)
	}
	return status, nil
}

// Sentence is one entry of the working list. The image half of the record
// lives in the image store under the same id; ImageData is only a cached
// copy for display and may be empty even when the store holds an artifact.
type Sentence struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Status    SentenceStatus `json:"status"`
	ImageData string         `json:"imageData,omitempty"`
}
