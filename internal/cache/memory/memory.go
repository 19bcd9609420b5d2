// Package memory is the in-process default cache implementation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/textdup/sitescore/internal/cache"
)

// Compile-time check: Store implements cache.Cache.
var _ cache.Cache = (*Store)(nil)

type item struct {
	entry     cache.Entry
	expiresAt time.Time // zero means no expiry
}

// Store holds entries in a map guarded by a RWMutex. Expired entries
// are dropped lazily on Get.
type Store struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

// NewStore creates an empty in-memory cache.
func NewStore() *Store {
	return &Store{items: make(map[string]item), now: time.Now}
}

// Get retrieves an entry, returning cache.ErrMiss for absent or
// expired keys.
func (s *Store) Get(_ context.Context, key string) (*cache.Entry, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, cache.ErrMiss
	}
	if !it.expiresAt.IsZero() && s.now().After(it.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, cache.ErrMiss
	}
	e := it.entry
	return &e, nil
}

// Set stores an entry. A non-positive ttl stores it without expiry.
func (s *Store) Set(_ context.Context, key string, e *cache.Entry, ttl time.Duration) error {
	it := item{entry: *e}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close drops all entries.
func (s *Store) Close() {
	s.mu.Lock()
	s.items = make(map[string]item)
	s.mu.Unlock()
}
