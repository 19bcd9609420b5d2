package health

import "context"

// CachePinger checks fetch cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
