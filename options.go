package sitescore

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	policy   string
	minMatch int

	workers   int
	timeout   time.Duration
	userAgent string
	maxBody   int64

	cutAfter  string
	cutBefore string

	cacheTTL time.Duration

	logger *zap.Logger
}

// WithPolicy sets the scoring policy. Defaults to PolicyOverlapRatio.
func WithPolicy(p Policy) Option {
	return func(c *clientConfig) {
		c.policy = string(p)
	}
}

// WithMinMatch sets the shortest shared substring the overlap-ratio
// policy counts toward a score. Default: 4 bytes.
func WithMinMatch(n int) Option {
	return func(c *clientConfig) {
		c.minMatch = n
	}
}

// WithWorkers bounds concurrent fetches. Default: 8.
func WithWorkers(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTimeout sets the per-fetch HTTP timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header on outgoing fetches.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithMaxBody caps the bytes read from one response. Default: 5MB.
func WithMaxBody(n int64) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLandmarks trims extracted text to the portion between two
// literal markers, for cutting boilerplate headers and footers.
// Empty strings leave the respective end untrimmed.
func WithLandmarks(after, before string) Option {
	return func(c *clientConfig) {
		c.cutAfter = after
		c.cutBefore = before
	}
}

// WithMemoryCache caches fetched bodies in-process for ttl, so
// repeated runs against the same sites skip refetching.
func WithMemoryCache(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
	}
}

// WithLogger enables structured logging for pipeline operations.
// Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
