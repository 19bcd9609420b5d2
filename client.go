// Package sitescore scores a corpus of web pages for duplicated text.
// It embeds the same fetch, normalize and scoring pipeline the CLI
// uses, so library consumers get identical reports.
//
//	client, _ := sitescore.New(sitescore.WithPolicy(sitescore.PolicyOverlapRatio))
//	defer client.Close()
//	report, _ := client.Run(ctx, []string{
//	    "https://a.example/",
//	    "https://b.example/",
//	})
//	for _, row := range report.Rows {
//	    fmt.Println(row.URL, row.Score)
//	}
//
// Texts that are already in hand can be scored without any fetching:
//
//	report, _ := client.ScoreTexts(ctx, []sitescore.Doc{
//	    {Name: "press-release", Text: releaseBody},
//	    {Name: "partner-copy", Text: partnerBody},
//	})
package sitescore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/cache"
	cacheMemory "github.com/textdup/sitescore/internal/cache/memory"
	"github.com/textdup/sitescore/internal/domain"
	"github.com/textdup/sitescore/internal/fetch"
	"github.com/textdup/sitescore/internal/normalize"
	"github.com/textdup/sitescore/internal/usecase/score"
)

// Client is the sitescore library entry point.
type Client struct {
	svc      *score.Service
	norm     *normalize.Normalizer
	store    cache.Cache
	policy   score.Policy
	minMatch int
	logger   *zap.Logger
}

// New creates a Client. Defaults: overlap-ratio policy, 8 fetch
// workers, no cache.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		workers:  fetch.DefaultWorkers,
		timeout:  fetch.DefaultTimeout,
		maxBody:  fetch.DefaultMaxBody,
		minMatch: score.DefaultMinMatch,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	policy, err := score.ParsePolicy(cfg.policy)
	if err != nil {
		return nil, fmt.Errorf("sitescore: %w", err)
	}
	if cfg.minMatch < 1 {
		return nil, fmt.Errorf("sitescore: min match must be >= 1, got %d", cfg.minMatch)
	}

	var store cache.Cache
	if cfg.cacheTTL > 0 {
		store = cacheMemory.NewStore()
	}

	fetcher := fetch.NewClient(cfg.logger).
		WithTimeout(cfg.timeout).
		WithMaxBody(cfg.maxBody)
	if cfg.userAgent != "" {
		fetcher = fetcher.WithUserAgent(cfg.userAgent)
	}
	if store != nil {
		fetcher = fetcher.WithCache(store, cfg.cacheTTL)
	}

	norm := normalize.New()
	if cfg.cutAfter != "" || cfg.cutBefore != "" {
		norm = norm.WithLandmarks(cfg.cutAfter, cfg.cutBefore)
	}

	pipe := fetch.NewPipeline(fetcher, norm, cfg.logger).WithWorkers(cfg.workers)
	svc := score.New(pipe, cfg.logger).
		WithPolicy(policy).
		WithMinMatch(cfg.minMatch)

	return &Client{
		svc:      svc,
		norm:     norm,
		store:    store,
		policy:   policy,
		minMatch: cfg.minMatch,
		logger:   cfg.logger,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Run fetches every source, normalizes the bodies and scores each
// document against the rest of the corpus. Sources may be URLs or
// local file paths; rows come back in input order.
func (c *Client) Run(ctx context.Context, sources []string) (*Report, error) {
	rep, err := c.svc.Run(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("sitescore: %w", err)
	}
	return fromDomainReport(rep), nil
}

// Doc is a named text scored without fetching.
type Doc struct {
	Name string
	Text string
}

// ScoreTexts normalizes and scores texts that are already in hand.
// Normalization is the same fold the fetch pipeline applies, so
// scores are comparable with Run.
func (c *Client) ScoreTexts(ctx context.Context, docs []Doc) (*Report, error) {
	pipe := &staticPipeline{docs: docs, norm: c.norm}
	svc := score.New(pipe, c.logger).
		WithPolicy(c.policy).
		WithMinMatch(c.minMatch)

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}

	rep, err := svc.Run(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("sitescore: %w", err)
	}
	return fromDomainReport(rep), nil
}

// staticPipeline feeds pre-supplied texts through the scorer in place
// of the fetch pipeline.
type staticPipeline struct {
	docs []Doc
	norm *normalize.Normalizer
}

func (p *staticPipeline) Run(_ context.Context, _ []string) []fetch.Outcome {
	out := make([]fetch.Outcome, len(p.docs))
	for i, d := range p.docs {
		text, err := p.norm.Normalize(d.Name, []byte(d.Text), "text/plain; charset=utf-8")
		if err != nil {
			out[i] = fetch.Outcome{URL: d.Name, State: domain.StateNormalizeFailed, Err: err}
			continue
		}
		out[i] = fetch.Outcome{URL: d.Name, State: domain.StateNormalized, Text: text}
	}
	return out
}

var _ score.Pipeline = (*staticPipeline)(nil)
