package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Healthz checks server liveness.
func (c *Client) Healthz(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("healthz", start, err) }()

	_, err = c.get(ctx, "/healthz")
	return err
}

// Readyz fetches the server readiness report. A not-ready server
// answers 503 with the same JSON body; that is a valid answer here,
// not an error. Check Ready() on the result.
func (c *Client) Readyz(ctx context.Context) (status *ReadyStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("readyz", start, err) }()

	resp, err := c.do(ctx, "/readyz")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, decodeAPIError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("sitescore: read readiness: %w", err)
	}

	status = &ReadyStatus{}
	if err := json.Unmarshal(data, status); err != nil {
		return nil, fmt.Errorf("sitescore: decode readiness: %w", err)
	}
	return status, nil
}
