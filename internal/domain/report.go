package domain

import "time"

// Evidence is the strongest shared substring backing a score.
type Evidence struct {
	Text        string // match text, clipped for reporting
	Length      int    // full match length in bytes, before clipping
	Occurrences int    // distinct corpus documents containing the match
}

// Row is the outcome for one input URL. Score and Evidence are
// meaningful only when State is StateIncluded.
type Row struct {
	URL        string
	State      State
	Score      float64
	Evidence   Evidence
	HTTPStatus int
	FetchTime  time.Duration
	Err        string // terse failure description for excluded rows
}

// Report is the result of one scoring run. Rows are ordered by input
// source position; for a fixed corpus everything except RunID and the
// timestamps is identical across runs.
type Report struct {
	RunID      string
	Policy     string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []Row
}

// FindRow returns the first row for the given URL.
func (r *Report) FindRow(url string) (Row, bool) {
	for _, row := range r.Rows {
		if row.URL == url {
			return row, true
		}
	}
	return Row{}, false
}

// Counts returns how many rows ended included and excluded.
func (r *Report) Counts() (included, excluded int) {
	for _, row := range r.Rows {
		switch row.State {
		case StateIncluded:
			included++
		case StateExcluded:
			excluded++
		}
	}
	return included, excluded
}
