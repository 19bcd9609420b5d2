package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/textdup/sitescore/internal/cache"
)

func TestSetGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	entry := &cache.Entry{Body: []byte("body"), ContentType: "text/html", Status: 200, FinalURL: "http://a.example/"}
	if err := s.Set(ctx, "k", entry, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Body) != "body" || got.ContentType != "text/html" || got.Status != 200 {
		t.Errorf("unexpected entry: %+v", got)
	}

	// the returned entry is a copy, mutating it must not affect the store
	got.Status = 500
	again, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Status != 200 {
		t.Errorf("stored entry mutated through a returned copy")
	}
}

func TestGetMiss(t *testing.T) {
	s := NewStore()
	if _, err := s.Get(context.Background(), "absent"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestExpiry(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "k", &cache.Entry{Body: []byte("b")}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("entry expired too early: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestNoTTLNeverExpires(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "k", &cache.Entry{Body: []byte("b")}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(1000 * time.Hour)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Errorf("entry without ttl expired: %v", err)
	}
}

func TestClose(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if err := s.Set(ctx, "k", &cache.Entry{Body: []byte("b")}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()
	if _, err := s.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss after Close, got %v", err)
	}
}

func TestKeyFormat(t *testing.T) {
	k1 := cache.Key("http://a.example")
	k2 := cache.Key("http://b.example")
	if k1 == k2 {
		t.Errorf("distinct urls share a key")
	}
	if k1 != cache.Key("http://a.example") {
		t.Errorf("key is not stable for the same url")
	}
	const want = 6 + 64 // "fetch:" prefix plus hex sha256
	if len(k1) != want {
		t.Errorf("key length = %d, want %d", len(k1), want)
	}
}
