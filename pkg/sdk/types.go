package sdk

import "time"

// Row states as reported by the server.
const (
	StateIncluded = "included_in_corpus"
	StateExcluded = "excluded"
)

// Evidence is the strongest shared substring backing a score.
type Evidence struct {
	Text        string `json:"text"`
	Length      int    `json:"length"`
	Occurrences int    `json:"occurrences"`
}

// Row is the outcome for one source. Score and Evidence are present
// only for rows the server included in the corpus.
type Row struct {
	URL        string    `json:"url"`
	State      string    `json:"state"`
	Score      *float64  `json:"score,omitempty"`
	Evidence   *Evidence `json:"evidence,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	FetchMS    int64     `json:"fetch_ms,omitempty"`
	Err        string    `json:"error,omitempty"`
}

// Included reports whether the row made it into the corpus.
func (r *Row) Included() bool { return r.State == StateIncluded }

// Report is one finished scoring run, rows in input order.
type Report struct {
	RunID      string    `json:"run_id"`
	Policy     string    `json:"policy"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rows       []Row     `json:"rows"`
}

// ReadyStatus is the aggregated server readiness.
type ReadyStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Ready reports whether every check passed and a report is published.
func (s *ReadyStatus) Ready() bool { return s.Status == "ok" }
