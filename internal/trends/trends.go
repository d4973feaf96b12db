package trends

import (
	"context"
)

// TrendItem is the canonical trending-topic shape. Provider payloads are
// normalized into it at the source boundary; nothing downstream inspects
// raw provider shapes.
type TrendItem struct {
	Name    string
	URL     string
	Volume  int
	Matched []string
}

// Source is the interface for trend providers.
type Source interface {
	// Name returns the name of this source.
	Name() string

	// Fetch retrieves current trends for a location (WOEID).
	Fetch(ctx context.Context, woeid int) ([]TrendItem, error)
}

// maxItems caps how many trends a source returns per fetch.
const maxItems = 10
