// Package fetch retrieves source content with bounded concurrency and
// per-source failure isolation. Sources are fetched over HTTP, or read
// from local disk when they carry no URL scheme.
package fetch

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/cache"
	"github.com/textdup/sitescore/internal/domain"
	"github.com/textdup/sitescore/internal/metrics"
	"github.com/textdup/sitescore/internal/version"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxBody = 5 * 1024 * 1024 // 5MB
)

// Result is one fetched response.
type Result struct {
	URL         string
	FinalURL    string // after redirects
	Body        []byte
	ContentType string
	Status      int
	Elapsed     time.Duration
	FromCache   bool
}

// Client performs single HTTP fetches with a timeout, a body size cap
// and an optional response cache.
type Client struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewClient creates a Client with default timeout, body cap and a
// User-Agent identifying this tool.
func NewClient(logger *zap.Logger) *Client {
	return &Client{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: "sitescore/" + version.Version,
		maxBody:   DefaultMaxBody,
		logger:    logger,
	}
}

// WithTimeout sets the per-request timeout, covering the body read.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.client.Timeout = d
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// WithMaxBody sets the response size cap in bytes. Oversized bodies are
// truncated, not failed.
func (c *Client) WithMaxBody(n int64) *Client {
	c.maxBody = n
	return c
}

// WithCache enables the response cache. A non-positive ttl stores
// entries without expiry.
func (c *Client) WithCache(s cache.Cache, ttl time.Duration) *Client {
	c.cache = s
	c.cacheTTL = ttl
	return c
}

// Fetch retrieves one source. Sources without an http or https scheme
// are read from local disk instead. Failures are per-document
// FetchErrors; cache trouble is soft and falls back to a live fetch.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	if path, ok := localPath(url); ok {
		return c.fetchFile(url, path)
	}

	if c.cache != nil {
		if res := c.fromCache(ctx, url); res != nil {
			return res, nil
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewFetchError(url, 0, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewFetchError(url, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, domain.NewFetchError(url, resp.StatusCode, err)
	}
	if int64(len(body)) > c.maxBody {
		body = body[:c.maxBody]
		c.logger.Warn("response body truncated",
			zap.String("url", url),
			zap.Int64("cap_bytes", c.maxBody))
	}

	res := &Result{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Status:      resp.StatusCode,
		Elapsed:     time.Since(start),
	}

	if c.cache != nil {
		c.toCache(ctx, url, res)
	}
	return res, nil
}

// localPath reports whether src names a local file and returns the
// path to read. file:// URLs and bare paths qualify; everything with
// another scheme goes over HTTP.
func localPath(src string) (string, bool) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return "", false
	case strings.HasPrefix(src, "file://"):
		return strings.TrimPrefix(src, "file://"), true
	default:
		return src, true
	}
}

func (c *Client) fetchFile(src, path string) (*Result, error) {
	start := time.Now()
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFetchError(src, 0, err)
	}
	if int64(len(body)) > c.maxBody {
		body = body[:c.maxBody]
		c.logger.Warn("local file truncated",
			zap.String("path", path),
			zap.Int64("cap_bytes", c.maxBody))
	}
	return &Result{
		URL:         src,
		FinalURL:    src,
		Body:        body,
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Elapsed:     time.Since(start),
	}, nil
}

func (c *Client) fromCache(ctx context.Context, url string) *Result {
	e, err := c.cache.Get(ctx, cache.Key(url))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("cache read failed, fetching live", zap.String("url", url), zap.Error(err))
		}
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheTotal.WithLabelValues("hit").Inc()
	return &Result{
		URL:         url,
		FinalURL:    e.FinalURL,
		Body:        e.Body,
		ContentType: e.ContentType,
		Status:      e.Status,
		FromCache:   true,
	}
}

func (c *Client) toCache(ctx context.Context, url string, res *Result) {
	e := &cache.Entry{
		Body:        res.Body,
		ContentType: res.ContentType,
		Status:      res.Status,
		FinalURL:    res.FinalURL,
	}
	if err := c.cache.Set(ctx, cache.Key(url), e, c.cacheTTL); err != nil {
		c.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
}
