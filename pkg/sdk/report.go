package sdk

import (
	"context"
	"net/url"
	"time"
)

// GetReport fetches the full scoring report.
func (c *Client) GetReport(ctx context.Context) (rep *Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_report", start, err) }()

	rep = &Report{}
	if err = c.getJSON(ctx, "/api/v1/report", rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// GetReportCSV fetches the report rendered as CSV.
func (c *Client) GetReportCSV(ctx context.Context) (data []byte, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_report_csv", start, err) }()

	return c.get(ctx, "/api/v1/report.csv")
}

// GetScore fetches the row for a single source URL. Returns
// ErrRowNotFound when the URL was not part of the run.
func (c *Client) GetScore(ctx context.Context, srcURL string) (row *Row, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_score", start, err) }()

	row = &Row{}
	if err = c.getJSON(ctx, "/api/v1/score?url="+url.QueryEscape(srcURL), row); err != nil {
		return nil, err
	}
	return row, nil
}
