package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/cache/memory"
	"github.com/textdup/sitescore/internal/domain"
)

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>hello</p>"))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())
	res, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "<p>hello</p>" {
		t.Errorf("Body = %q", res.Body)
	}
	if res.Status != 200 {
		t.Errorf("Status = %d, want 200", res.Status)
	}
	if res.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", res.ContentType)
	}
	if res.FinalURL == "" {
		t.Errorf("FinalURL is empty")
	}
	if !strings.HasPrefix(gotUA, "sitescore/") {
		t.Errorf("User-Agent = %q, want sitescore prefix", gotUA)
	}
	if res.FromCache {
		t.Errorf("FromCache = true for a live fetch")
	}
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())
	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected error for 503")
	}
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error is %T, want *domain.FetchError", err)
	}
	if fe.Status != 503 {
		t.Errorf("Status = %d, want 503", fe.Status)
	}
}

func TestFetchConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(zap.NewNop())
	_, err := c.Fetch(context.Background(), url)
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error is %T, want *domain.FetchError", err)
	}
	if fe.Status != 0 {
		t.Errorf("Status = %d, want 0 for a transport error", fe.Status)
	}
}

func TestFetchBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop()).WithMaxBody(10)
	res, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Body) != 10 {
		t.Errorf("Body length = %d, want capped to 10", len(res.Body))
	}
}

func TestFetchRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/target", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("landed"))
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/target", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(zap.NewNop())
	res, err := c.Fetch(context.Background(), srv.URL+"/start")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "landed" {
		t.Errorf("Body = %q, want %q", res.Body, "landed")
	}
	if !strings.HasSuffix(res.FinalURL, "/target") {
		t.Errorf("FinalURL = %q, want /target suffix", res.FinalURL)
	}
}

func TestFetchUsesCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("cached body"))
	}))
	defer srv.Close()

	store := memory.NewStore()
	c := NewClient(zap.NewNop()).WithCache(store, time.Hour)
	ctx := context.Background()

	first, err := c.Fetch(ctx, srv.URL)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if first.FromCache {
		t.Errorf("first fetch claims FromCache")
	}

	second, err := c.Fetch(ctx, srv.URL)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if !second.FromCache {
		t.Errorf("second fetch did not come from cache")
	}
	if string(second.Body) != "cached body" || second.ContentType != "text/plain" || second.Status != 200 {
		t.Errorf("cached result lost fields: %+v", second)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("<p>from disk</p>"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewClient(zap.NewNop())
	res, err := c.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Body) != "<p>from disk</p>" {
		t.Errorf("Body = %q", res.Body)
	}
	if !strings.HasPrefix(res.ContentType, "text/html") {
		t.Errorf("ContentType = %q, want text/html from the extension", res.ContentType)
	}
	if res.Status != 0 {
		t.Errorf("Status = %d, want 0 for a local file", res.Status)
	}

	withScheme, err := c.Fetch(context.Background(), "file://"+path)
	if err != nil {
		t.Fatalf("Fetch with file scheme: %v", err)
	}
	if string(withScheme.Body) != "<p>from disk</p>" {
		t.Errorf("file:// Body = %q", withScheme.Body)
	}
}

func TestFetchLocalFileMissing(t *testing.T) {
	c := NewClient(zap.NewNop())
	_, err := c.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error is %T, want *domain.FetchError", err)
	}
	if fe.Status != 0 {
		t.Errorf("Status = %d, want 0", fe.Status)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop()).WithTimeout(50 * time.Millisecond)
	start := time.Now()
	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v, want well under 2s", elapsed)
	}
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error is %T, want *domain.FetchError", err)
	}
}
