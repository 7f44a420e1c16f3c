// Package cache stores rendered artifacts between runs.
//
// Entries are opaque byte slices keyed by strings built with [ArtifactKey].
// [FileCache] keeps them under a directory (by default
// $XDG_CACHE_HOME/makegraph) and [NullCache] disables caching entirely.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// AppName names the cache subdirectory.
const AppName = "makegraph"

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// Dir returns the default cache directory (~/.cache/makegraph unless
// XDG_CACHE_HOME is set).
func Dir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
