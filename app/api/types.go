package api

import (
	"context"

	"github.com/mapcomb/mapcomb/app/search"
)

type SearcherInterface interface {
	Run(ctx context.Context, query string, opts search.Options) search.SearchOutcome
	Health(ctx context.Context) []search.SourceHealth
	CacheStats() map[string]search.CacheStats
	ClearCaches()
}

var _ SearcherInterface = (*search.Aggregator)(nil)

type Handler struct {
	searcher SearcherInterface
	version  string
}
