// Package blob defines the durable object store the collectors write
// match and mastery documents to.
package blob

import (
	"context"
	"time"
)

// Object describes a stored document without its contents.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a flat key/value object store with prefix listing. Keys use
// '/'-separated paths; there is no directory hierarchy beyond the
// prefix convention.
type Store interface {
	// Put writes body under key, overwriting any existing object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Get returns the object's contents.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns up to limit objects whose keys start with prefix,
	// newest first by last-modified time.
	List(ctx context.Context, prefix string, limit int) ([]Object, error)
}
