package score

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/domain"
	"github.com/textdup/sitescore/internal/index"
	"github.com/textdup/sitescore/internal/metrics"
)

// EvidenceClip caps the evidence substring carried in report rows.
const EvidenceClip = 80

// Service runs one scoring pass: pipeline the sources, index the
// normalized corpus, score every document against the rest of it.
type Service struct {
	pipe     Pipeline
	logger   *zap.Logger
	policy   Policy
	minMatch int
}

// New creates a scoring service with the default policy.
func New(pipe Pipeline, logger *zap.Logger) *Service {
	return &Service{
		pipe:     pipe,
		logger:   logger,
		policy:   DefaultPolicy,
		minMatch: DefaultMinMatch,
	}
}

// WithPolicy selects the reduction policy.
func (s *Service) WithPolicy(p Policy) *Service {
	s.policy = p
	return s
}

// WithMinMatch sets the shortest match overlap-ratio counts.
func (s *Service) WithMinMatch(n int) *Service {
	if n > 0 {
		s.minMatch = n
	}
	return s
}

// Run executes one scoring run and returns a report with one row per
// source, in input order. Per-source failures become excluded rows;
// only an unindexable corpus fails the run.
func (s *Service) Run(ctx context.Context, sources []string) (*domain.Report, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))

	outcomes := s.pipe.Run(ctx, sources)

	// Corpus in input order, failed sources skipped. Zero-length
	// normalized documents stay in; they score the sentinel 0.0.
	docs := make([]string, 0, len(outcomes))
	docID := make([]int, len(outcomes))
	for i := range outcomes {
		if outcomes[i].State == domain.StateNormalized {
			docID[i] = len(docs)
			docs = append(docs, outcomes[i].Text)
		} else {
			docID[i] = -1
		}
	}

	buildStart := time.Now()
	ix, err := index.Build(docs)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	stats := ix.Stats()
	metrics.IndexBuildDuration.Set(time.Since(buildStart).Seconds())
	metrics.CorpusDocuments.Set(float64(stats.Documents))
	metrics.CorpusBytes.Set(float64(stats.CorpusBytes))

	rows := make([]domain.Row, len(outcomes))
	for i := range outcomes {
		out := &outcomes[i]
		row := domain.Row{
			URL:        out.URL,
			HTTPStatus: out.Status,
			FetchTime:  out.Elapsed,
		}
		if d := docID[i]; d >= 0 {
			sc, ev, err := s.scoreDoc(ix, d)
			if err != nil {
				return nil, fmt.Errorf("score %s: %w", out.URL, err)
			}
			row.State = domain.StateIncluded
			row.Score = sc
			row.Evidence = ev
			metrics.Scores.Observe(sc)
		} else {
			row.State = domain.StateExcluded
			if out.Err != nil {
				row.Err = out.Err.Error()
			}
		}
		rows[i] = row
	}

	report := &domain.Report{
		RunID:      runID,
		Policy:     string(s.policy),
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Rows:       rows,
	}
	included, excluded := report.Counts()
	log.Info("scoring run complete",
		zap.String("policy", string(s.policy)),
		zap.Int("sources", len(sources)),
		zap.Int("included", included),
		zap.Int("excluded", excluded),
		zap.Int("corpus_bytes", stats.CorpusBytes),
		zap.Duration("elapsed", time.Since(started)))
	return report, nil
}

// scoreDoc computes the policy score and the evidence for corpus
// document d.
func (s *Service) scoreDoc(ix *index.Index, d int) (float64, domain.Evidence, error) {
	if ix.DocLen(d) == 0 {
		return 0, domain.Evidence{}, nil
	}

	var sc float64
	switch s.policy {
	case PolicyMaxPairwise:
		pair, err := ix.PairLengths(d)
		if err != nil {
			return 0, domain.Evidence{}, fmt.Errorf("pair lengths: %w", err)
		}
		sc = scoreMax(pair, ix.DocLen(d))
	case PolicyMeanPairwise:
		pair, err := ix.PairLengths(d)
		if err != nil {
			return 0, domain.Evidence{}, fmt.Errorf("pair lengths: %w", err)
		}
		sc = scoreMean(pair, ix.DocLen(d))
	case PolicyOverlapRatio:
		ml, err := ix.MatchLengths(d)
		if err != nil {
			return 0, domain.Evidence{}, fmt.Errorf("match lengths: %w", err)
		}
		sc = scoreOverlap(ml, s.minMatch)
	default:
		return 0, domain.Evidence{}, domain.NewConfigError("policy", fmt.Sprintf("unknown scoring policy %q", s.policy))
	}

	match, err := ix.BestMatch(d)
	if err != nil {
		return 0, domain.Evidence{}, fmt.Errorf("best match: %w", err)
	}
	ev := domain.Evidence{Text: clipEvidence(match), Length: len(match)}
	if match != "" {
		_, ev.Occurrences = ix.OccurrenceCount(match)
	}
	return sc, ev, nil
}

// clipEvidence truncates to EvidenceClip bytes on a rune boundary.
func clipEvidence(s string) string {
	if len(s) <= EvidenceClip {
		return s
	}
	cut := EvidenceClip
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
