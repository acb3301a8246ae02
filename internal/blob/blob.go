// Package blob abstracts the object storage holding pronunciation audio and
// exported deck artifacts. Keys are slash-separated paths; audio keys are
// deterministic (see the audio package) so writes overwrite rather than
// accumulate.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// Store is the object storage contract the pipeline depends on.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error

	// DeleteOlderThan removes objects under prefix whose age exceeds maxAge
	// and reports how many were removed. It backs the bounded retention of
	// exported deck artifacts.
	DeleteOlderThan(ctx context.Context, prefix string, maxAge time.Duration) (int, error)
}

// NewStore creates the configured store implementation.
func NewStore(config *Config) (Store, error) {
	if config == nil {
		return nil, fmt.Errorf("blob storage config is required")
	}

	switch config.Backend {
	case "", "fs":
		if config.Dir == "" {
			return nil, fmt.Errorf("blob storage directory is required")
		}
		return NewFS(config.Dir)

	case "supabase":
		if config.SupabaseURL == "" || config.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase URL and key are required")
		}
		return NewSupabase(config.SupabaseURL, config.SupabaseKey, config.Bucket), nil

	default:
		return nil, fmt.Errorf("unknown blob storage backend: %s", config.Backend)
	}
}

// Config selects and parameterizes a storage backend.
type Config struct {
	Backend string // "fs" or "supabase"

	// Filesystem backend
	Dir string

	// Supabase backend
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}
