// Package cache stores fetched responses between runs so repeated runs
// against the same sites can skip refetching. Raw bodies only; scoring
// results are never cached.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrMiss signals a key absent from the cache.
var ErrMiss = errors.New("cache: miss")

// Entry is a cached fetch response.
type Entry struct {
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
	Status      int    `json:"status"`
	FinalURL    string `json:"final_url"`
}

// Cache is the fetch response store. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
}

// Key returns the cache key for a fetch URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "fetch:" + hex.EncodeToString(sum[:])
}
