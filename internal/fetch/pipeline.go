package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/domain"
	"github.com/textdup/sitescore/internal/metrics"
)

// DefaultWorkers bounds concurrent fetches when not configured.
const DefaultWorkers = 8

// Fetcher fetches a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Compile-time check: Client implements Fetcher.
var _ Fetcher = (*Client)(nil)

// Normalizer converts a fetched body into normalized text.
type Normalizer interface {
	Normalize(srcURL string, raw []byte, contentType string) (string, error)
}

// Outcome is the pipeline result for one input URL. State is the last
// state reached: StateNormalized on success, StateFetchFailed or
// StateNormalizeFailed otherwise.
type Outcome struct {
	URL       string
	State     domain.State
	Text      string
	Status    int
	Elapsed   time.Duration
	FromCache bool
	Err       error
}

// Pipeline fetches and normalizes URLs with a bounded worker pool.
type Pipeline struct {
	fetcher    Fetcher
	normalizer Normalizer
	workers    int
	logger     *zap.Logger
}

// NewPipeline creates a Pipeline with the default worker count.
func NewPipeline(f Fetcher, n Normalizer, logger *zap.Logger) *Pipeline {
	return &Pipeline{fetcher: f, normalizer: n, workers: DefaultWorkers, logger: logger}
}

// WithWorkers sets the worker pool size; values below 1 are ignored.
func (p *Pipeline) WithWorkers(w int) *Pipeline {
	if w >= 1 {
		p.workers = w
	}
	return p
}

// Run processes every URL with at most workers fetches in flight.
// Outcomes are positional: outcome i belongs to urls[i] regardless of
// completion order, so corpus order is input order. A failure or panic
// in one URL never affects another. On context cancellation the pool
// drains promptly and unstarted URLs fail with the context error.
func (p *Pipeline) Run(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, len(urls))
	jobs := make(chan int)

	var wg sync.WaitGroup
	var normalized, failed atomic.Int64

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out := p.process(ctx, urls[i])
				outcomes[i] = out
				if out.State == domain.StateNormalized {
					normalized.Add(1)
				} else {
					failed.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range urls {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	// URLs never handed to a worker still need a terminal outcome.
	for i := range outcomes {
		if outcomes[i].State == "" {
			outcomes[i] = Outcome{
				URL:   urls[i],
				State: domain.StateFetchFailed,
				Err:   domain.NewFetchError(urls[i], 0, ctx.Err()),
			}
			failed.Add(1)
		}
	}

	p.logger.Info("fetch pipeline finished",
		zap.Int("urls", len(urls)),
		zap.Int64("normalized", normalized.Load()),
		zap.Int64("failed", failed.Load()))
	return outcomes
}

func (p *Pipeline) process(ctx context.Context, url string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("fetch worker panic", zap.String("url", url), zap.Any("panic", r))
			out = Outcome{
				URL:   url,
				State: domain.StateFetchFailed,
				Err:   fmt.Errorf("fetch %s: panic: %v", url, r),
			}
		}
	}()

	res, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		var status int
		var fe *domain.FetchError
		if errors.As(err, &fe) {
			status = fe.Status
		}
		metrics.FetchesTotal.WithLabelValues(metrics.OutcomeFetchFailed).Inc()
		p.logger.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return Outcome{URL: url, State: domain.StateFetchFailed, Status: status, Err: err}
	}

	text, err := p.normalizer.Normalize(url, res.Body, res.ContentType)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues(metrics.OutcomeNormalizeFailed).Inc()
		p.logger.Warn("normalize failed", zap.String("url", url), zap.Error(err))
		return Outcome{
			URL:       url,
			State:     domain.StateNormalizeFailed,
			Status:    res.Status,
			Elapsed:   res.Elapsed,
			FromCache: res.FromCache,
			Err:       err,
		}
	}

	outcome := metrics.OutcomeOK
	if res.FromCache {
		outcome = metrics.OutcomeCached
	}
	metrics.FetchesTotal.WithLabelValues(outcome).Inc()
	metrics.FetchDuration.WithLabelValues(outcome).Observe(res.Elapsed.Seconds())

	return Outcome{
		URL:       url,
		State:     domain.StateNormalized,
		Text:      text,
		Status:    res.Status,
		Elapsed:   res.Elapsed,
		FromCache: res.FromCache,
	}
}
