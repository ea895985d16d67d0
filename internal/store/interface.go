package store

import "context"

// ImageStore abstracts the four primitive operations the archive codecs
// need. Both codecs share one store instance; they never open a second
// connection to the same backing database.
type ImageStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}

var _ ImageStore = (*Store)(nil)
