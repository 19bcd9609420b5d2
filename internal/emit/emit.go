// Package emit renders a finished scoring report as CSV or JSON.
package emit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/textdup/sitescore/internal/domain"
)

// Format selects the report encoding.
type Format string

// Supported report encodings.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatCSV

// ParseFormat validates a format name. Empty selects the default.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	case "":
		return DefaultFormat, nil
	default:
		return "", domain.NewConfigError("format", fmt.Sprintf("unknown report format %q", s))
	}
}

// Write renders the report in the given format.
func Write(w io.Writer, format Format, report *domain.Report) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, report)
	case FormatJSON:
		return WriteJSON(w, report)
	default:
		return domain.NewConfigError("format", fmt.Sprintf("unknown report format %q", format))
	}
}

var csvHeader = []string{"url", "state", "score", "evidence", "occurrences", "http_status", "error"}

// WriteCSV renders the report as CSV, one row per input source in
// input order. Scores carry six fractional digits so runs over the
// same corpus diff cleanly; score, evidence and occurrence columns
// are empty for excluded rows.
func WriteCSV(w io.Writer, report *domain.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range report.Rows {
		row := &report.Rows[i]
		rec := []string{row.URL, string(row.State), "", "", "", strconv.Itoa(row.HTTPStatus), row.Err}
		if row.State == domain.StateIncluded {
			rec[2] = strconv.FormatFloat(row.Score, 'f', 6, 64)
			rec[3] = row.Evidence.Text
			rec[4] = strconv.Itoa(row.Evidence.Occurrences)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Evidence is the JSON wire form of a row's strongest match.
type Evidence struct {
	Text        string `json:"text"`
	Length      int    `json:"length"`
	Occurrences int    `json:"occurrences"`
}

// Row is the JSON wire form of one report row, shared by the report
// document and the single-row lookup endpoint.
type Row struct {
	URL        string    `json:"url"`
	State      string    `json:"state"`
	Score      *float64  `json:"score,omitempty"`
	Evidence   *Evidence `json:"evidence,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	FetchMS    int64     `json:"fetch_ms,omitempty"`
	Err        string    `json:"error,omitempty"`
}

// NewRow converts a domain row to its wire form. Score is carried
// only for included rows, evidence only when a match exists.
func NewRow(row *domain.Row) Row {
	r := Row{
		URL:        row.URL,
		State:      string(row.State),
		HTTPStatus: row.HTTPStatus,
		FetchMS:    row.FetchTime.Milliseconds(),
		Err:        row.Err,
	}
	if row.State == domain.StateIncluded {
		score := row.Score
		r.Score = &score
		if row.Evidence.Length > 0 {
			r.Evidence = &Evidence{
				Text:        row.Evidence.Text,
				Length:      row.Evidence.Length,
				Occurrences: row.Evidence.Occurrences,
			}
		}
	}
	return r
}

type jsonReport struct {
	RunID      string    `json:"run_id"`
	Policy     string    `json:"policy"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rows       []Row     `json:"rows"`
}

// WriteJSON renders the report as one JSON document with a trailing
// newline. Score is present only on included rows; evidence only when
// a match exists. HTML characters in evidence pass through unescaped.
func WriteJSON(w io.Writer, report *domain.Report) error {
	out := jsonReport{
		RunID:      report.RunID,
		Policy:     report.Policy,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Rows:       make([]Row, len(report.Rows)),
	}
	for i := range report.Rows {
		out.Rows[i] = NewRow(&report.Rows[i])
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
