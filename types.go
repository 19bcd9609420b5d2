package sitescore

import (
	"time"

	"github.com/textdup/sitescore/internal/domain"
)

// Policy selects how a document's matches against the rest of the
// corpus aggregate into a score.
type Policy string

// Scoring policies.
const (
	// PolicyMaxPairwise scores the single strongest pairwise overlap.
	PolicyMaxPairwise Policy = "max-pairwise"
	// PolicyMeanPairwise scores the mean pairwise overlap.
	PolicyMeanPairwise Policy = "mean-pairwise"
	// PolicyOverlapRatio scores the fraction of the document covered
	// by shared substrings of at least the minimum match length.
	PolicyOverlapRatio Policy = "overlap-ratio"
)

// State is the terminal outcome for one source.
type State string

// Row states.
const (
	StateIncluded State = "included_in_corpus"
	StateExcluded State = "excluded"
)

// Evidence is the strongest shared substring backing a score.
type Evidence struct {
	Text        string // match text, clipped for reporting
	Length      int    // full match length in bytes
	Occurrences int    // distinct corpus documents containing the match
}

// Row is the outcome for one source. Score and Evidence are
// meaningful only when State is StateIncluded.
type Row struct {
	URL        string
	State      State
	Score      float64
	Evidence   Evidence
	HTTPStatus int
	FetchTime  time.Duration
	Err        string
}

// Report is the result of one scoring run, rows in input order.
type Report struct {
	RunID      string
	Policy     Policy
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []Row
}

// FindRow returns the first row for the given source.
func (r *Report) FindRow(url string) (Row, bool) {
	for _, row := range r.Rows {
		if row.URL == url {
			return row, true
		}
	}
	return Row{}, false
}

func fromDomainReport(rep *domain.Report) *Report {
	out := &Report{
		RunID:      rep.RunID,
		Policy:     Policy(rep.Policy),
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Rows:       make([]Row, len(rep.Rows)),
	}
	for i := range rep.Rows {
		out.Rows[i] = fromDomainRow(&rep.Rows[i])
	}
	return out
}

func fromDomainRow(row *domain.Row) Row {
	return Row{
		URL:   row.URL,
		State: State(row.State),
		Score: row.Score,
		Evidence: Evidence{
			Text:        row.Evidence.Text,
			Length:      row.Evidence.Length,
			Occurrences: row.Evidence.Occurrences,
		},
		HTTPStatus: row.HTTPStatus,
		FetchTime:  row.FetchTime,
		Err:        row.Err,
	}
}
