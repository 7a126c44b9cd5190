package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Adapter is a single upstream map catalog.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, opts SourceOptions) ([]Record, error)
	CheckHealth(ctx context.Context) HealthStatus
}

// CircuitBreaker guards calls to one source.
type CircuitBreaker interface {
	Allow() bool
	OnSuccess()
	OnFailure()
	Trip()
	StateName() string
}

// Limiter paces calls to one source.
type Limiter interface {
	Do(ctx context.Context, fn func() error) error
}

// ResultCache stores per-source search results.
type ResultCache interface {
	Get(query string, opts SourceOptions) ([]Record, bool)
	Put(query string, opts SourceOptions, records []Record)
	Stats() CacheStats
	Clear()
}

// Source bundles an adapter with its guard rails. One Source instance is
// shared across concurrent aggregations; the breaker, limiter and cache
// must be safe for concurrent use.
type Source struct {
	Adapter Adapter
	Breaker CircuitBreaker
	Limiter Limiter
	Cache   ResultCache

	Timeout  time.Duration
	Limit    int
	Optional bool

	// TreatEmptyAsFailure counts an empty non-error result against the
	// breaker. Upstreams that silently block tend to return empty pages
	// instead of errors.
	TreatEmptyAsFailure bool
}

// Options narrows one aggregated search.
type Options struct {
	Limit           int
	IncludeOptional bool
	Sources         []string
	GameVersion     string
}

// Config holds aggregation-wide limits.
type Config struct {
	OverallTimeout time.Duration
	DefaultLimit   int
	MaxLimit       int
}

// Aggregator fans a query out to every eligible source, merges what comes
// back and ranks it. It never returns an error: total upstream failure
// yields an empty outcome with the failures recorded.
type Aggregator struct {
	sources        []*Source
	overallTimeout time.Duration
	defaultLimit   int
	maxLimit       int
}

func NewAggregator(cfg Config, sources ...*Source) *Aggregator {
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = 15 * time.Second
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 50
	}

	return &Aggregator{
		sources:        sources,
		overallTimeout: cfg.OverallTimeout,
		defaultLimit:   cfg.DefaultLimit,
		maxLimit:       cfg.MaxLimit,
	}
}

// Sources returns the configured sources.
func (a *Aggregator) Sources() []*Source {
	return a.sources
}

type sourceResult struct {
	name      string
	records   []Record
	err       error
	fromCache bool
	elapsed   time.Duration
}

// Run executes one aggregated search. Per-source failures degrade the
// outcome instead of aborting it; sources still pending when the overall
// deadline fires are dropped from this outcome but left running in the
// background so their results can warm the cache.
func (a *Aggregator) Run(ctx context.Context, query string, opts Options) SearchOutcome {
	started := time.Now()

	outcome := SearchOutcome{
		Query:   strings.TrimSpace(query),
		Records: []Record{},
		Sources: map[string]SourceReport{},
	}

	if outcome.Query == "" {
		outcome.Elapsed = Millis(time.Since(started))
		return outcome
	}

	exp := Expand(outcome.Query)

	eligible := a.eligibleSources(opts)

	results := make(chan sourceResult, len(eligible))
	pending := map[string]bool{}

	for _, src := range eligible {
		name := src.Adapter.Name()

		if !src.Breaker.Allow() {
			outcome.Sources[name] = SourceReport{Error: string(KindCircuitOpen)}
			outcome.Failures = append(outcome.Failures, SourceFailure{
				Source:  name,
				Message: "temporarily disabled after repeated failures",
			})
			continue
		}

		pending[name] = true
		go a.querySource(context.WithoutCancel(ctx), src, exp, opts, results)
	}

	deadline := time.NewTimer(a.overallTimeout)
	defer deadline.Stop()

	var pool []Record

collect:
	for len(pending) > 0 {
		select {
		case res := <-results:
			delete(pending, res.name)

			report := SourceReport{
				Count:     len(res.records),
				Succeeded: res.err == nil,
				FromCache: res.fromCache,
				Elapsed:   Millis(res.elapsed),
			}
			if res.err != nil {
				report.Error = res.err.Error()
				outcome.Failures = append(outcome.Failures, SourceFailure{
					Source:  res.name,
					Message: failureMessage(res.err),
				})
			} else {
				pool = append(pool, res.records...)
			}
			outcome.Sources[res.name] = report

		case <-deadline.C:
			break collect

		case <-ctx.Done():
			break collect
		}
	}

	for name := range pending {
		outcome.Sources[name] = SourceReport{Error: string(KindTimeout), Elapsed: Millis(time.Since(started))}
		outcome.Failures = append(outcome.Failures, SourceFailure{
			Source:  name,
			Message: "did not respond in time",
		})
	}

	outcome.Records = a.rank(pool, exp, opts)
	outcome.Total = len(outcome.Records)

	limit := a.clampLimit(opts.Limit)
	if len(outcome.Records) > limit {
		outcome.Records = outcome.Records[:limit]
		outcome.Truncated = true
	}

	outcome.Elapsed = Millis(time.Since(started))

	slog.Debug("Search completed",
		"query", outcome.Query, "records", len(outcome.Records),
		"failures", len(outcome.Failures), "elapsed", outcome.Elapsed.Duration())

	return outcome
}

func (a *Aggregator) eligibleSources(opts Options) []*Source {
	wanted := map[string]bool{}
	for _, name := range opts.Sources {
		wanted[strings.ToLower(name)] = true
	}

	var eligible []*Source
	for _, src := range a.sources {
		if src.Optional && !opts.IncludeOptional {
			continue
		}
		if len(wanted) > 0 && !wanted[strings.ToLower(src.Adapter.Name())] {
			continue
		}
		eligible = append(eligible, src)
	}

	return eligible
}

// Upstream fan-out per source is bounded at the raw query plus this many
// expanded terms.
const maxExtraQueryTerms = 3

// querySource runs one guarded source batch: the raw query followed by a
// few expanded terms, merged by record ID. The passed context is detached
// from the aggregation: the per-source timeout is the only cancellation, so
// a batch that outlives the overall deadline still completes and populates
// the cache. Breaker and cache accounting happen here, exactly once per
// batch, regardless of whether the aggregation is still listening.
func (a *Aggregator) querySource(ctx context.Context, src *Source, exp Expansion, opts Options, results chan<- sourceResult) {
	name := src.Adapter.Name()
	started := time.Now()

	srcOpts := SourceOptions{Limit: src.Limit, GameVersion: opts.GameVersion}

	if src.Cache != nil {
		if records, ok := src.Cache.Get(exp.Query, srcOpts); ok {
			results <- sourceResult{name: name, records: records, fromCache: true, elapsed: time.Since(started)}
			return
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, src.Timeout)
	defer cancel()

	records, err := a.searchTerms(callCtx, src, exp, srcOpts)

	elapsed := time.Since(started)

	if err != nil {
		kind := KindOf(err)
		if kind == KindAuth {
			src.Breaker.Trip()
		} else {
			src.Breaker.OnFailure()
		}

		slog.Warn("Source search failed", "source", name, "kind", string(kind), "error", err)
		results <- sourceResult{name: name, err: NewSourceError(name, kind, err), elapsed: elapsed}
		return
	}

	if len(records) == 0 && src.TreatEmptyAsFailure {
		src.Breaker.OnFailure()
	} else {
		src.Breaker.OnSuccess()
	}

	if len(records) > 0 && src.Cache != nil {
		src.Cache.Put(exp.Query, srcOpts, records)
	}

	results <- sourceResult{name: name, records: records, elapsed: elapsed}
}

// searchTerms queries one source for the raw query and then for its
// conflict-pruned expanded terms, deduplicating hits by record ID. The raw
// query's error is the source's error; a failing expanded term only stops
// further fan-out, since the source itself already answered.
func (a *Aggregator) searchTerms(ctx context.Context, src *Source, exp Expansion, srcOpts SourceOptions) ([]Record, error) {
	terms := append([]string{exp.Query}, exp.QueryTerms(maxExtraQueryTerms)...)

	var merged []Record
	seen := map[string]bool{}

	for i, term := range terms {
		var page []Record
		err := src.Limiter.Do(ctx, func() error {
			var searchErr error
			page, searchErr = src.Adapter.Search(ctx, term, srcOpts)
			return searchErr
		})
		if err != nil {
			if i == 0 {
				return nil, err
			}
			slog.Debug("Expanded term query failed",
				"source", src.Adapter.Name(), "term", term, "error", err)
			break
		}

		for _, rec := range page {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			merged = append(merged, rec)
		}
	}

	return merged, nil
}

// rank deduplicates, filters and orders the merged pool.
func (a *Aggregator) rank(pool []Record, exp Expansion, opts Options) []Record {
	merged := Deduplicate(pool)
	merged = FilterByCoverage(merged, exp.Query)

	kept := merged[:0]
	for _, rec := range merged {
		rel := Score(rec, exp)
		if !rel.Keep() {
			continue
		}
		rec.Relevance = rel
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Relevance.Score != kept[j].Relevance.Score {
			return kept[i].Relevance.Score > kept[j].Relevance.Score
		}
		if kept[i].DownloadCount != kept[j].DownloadCount {
			return kept[i].DownloadCount > kept[j].DownloadCount
		}
		return kept[i].ID < kept[j].ID
	})

	if kept == nil {
		return []Record{}
	}

	return kept
}

func (a *Aggregator) clampLimit(limit int) int {
	if limit <= 0 {
		return a.defaultLimit
	}
	if limit > a.maxLimit {
		return a.maxLimit
	}

	return limit
}

// Health probes every source concurrently and reports reachability
// alongside the breaker state.
func (a *Aggregator) Health(ctx context.Context) []SourceHealth {
	statuses := make([]SourceHealth, len(a.sources))

	done := make(chan int, len(a.sources))
	for i, src := range a.sources {
		go func(i int, src *Source) {
			probeCtx, cancel := context.WithTimeout(ctx, src.Timeout)
			defer cancel()

			statuses[i] = SourceHealth{
				Source:       src.Adapter.Name(),
				Status:       src.Adapter.CheckHealth(probeCtx),
				BreakerState: src.Breaker.StateName(),
				Optional:     src.Optional,
			}
			if src.Cache != nil {
				statuses[i].Cache = src.Cache.Stats()
			}
			done <- i
		}(i, src)
	}
	for range a.sources {
		<-done
	}

	return statuses
}

// CacheStats reports per-source cache stats keyed by source name.
func (a *Aggregator) CacheStats() map[string]CacheStats {
	stats := map[string]CacheStats{}
	for _, src := range a.sources {
		if src.Cache != nil {
			stats[src.Adapter.Name()] = src.Cache.Stats()
		}
	}

	return stats
}

// ClearCaches empties every source cache.
func (a *Aggregator) ClearCaches() {
	for _, src := range a.sources {
		if src.Cache != nil {
			src.Cache.Clear()
		}
	}
}

func failureMessage(err error) string {
	switch KindOf(err) {
	case KindTimeout:
		return "did not respond in time"
	case KindRateLimited:
		return "asked us to slow down"
	case KindAuth:
		return "rejected our credentials"
	case KindParse:
		return "returned data we could not read"
	default:
		return fmt.Sprintf("is unavailable: %v", err)
	}
}
