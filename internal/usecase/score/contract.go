package score

import (
	"context"

	"github.com/textdup/sitescore/internal/fetch"
)

// Pipeline fetches and normalizes the source list with bounded
// concurrency, one outcome per source in input order.
type Pipeline interface {
	Run(ctx context.Context, sources []string) []fetch.Outcome
}

var _ Pipeline = (*fetch.Pipeline)(nil)
