// Package search turns a free-text query into a ranked, de-duplicated list
// of books. A search consults the result cache, fans the query out as
// several variants against the remote catalog, merges and ranks what comes
// back, and falls back to a local generator when nothing usable arrives.
package search

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/xdearboy/bookkeeper/internal/cache"
	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/fallback"
	"github.com/xdearboy/bookkeeper/internal/googlebooks"
)

const (
	// DefaultWorkers bounds concurrent catalog requests across all searches.
	DefaultWorkers = 4
	// DefaultPageSize is used when a caller passes no positive maxResults.
	DefaultPageSize = 20
	// DefaultRetryDelay is the pause before a scarce phrase variant retries.
	DefaultRetryDelay = 500 * time.Millisecond
)

// DefaultCategories are browsed when Browse is called without categories.
var DefaultCategories = []string{
	"fiction", "science fiction", "detective", "romance", "history",
	"biography", "programming", "psychology", "philosophy", "science", "art",
}

// Origin tells where a result came from.
type Origin string

const (
	OriginEmpty    Origin = "empty"
	OriginCache    Origin = "cache"
	OriginRemote   Origin = "remote"
	OriginFallback Origin = "fallback"
)

// Result is the single delivery of a search.
type Result struct {
	SearchID string
	Query    string
	Origin   Origin
	Books    []catalog.Book
	// Variants lists the variant queries dispatched, empty unless the
	// remote catalog was consulted.
	Variants []string
}

// Catalog is the remote volume search the engine fans out to.
type Catalog interface {
	Volumes(ctx context.Context, req googlebooks.Request) (*googlebooks.VolumesResponse, error)
}

// Observer receives engine events. Implementations must be safe for
// concurrent use.
type Observer interface {
	SearchCompleted(origin string)
	VariantDispatched()
	VariantFailed(kind string)
	FallbackUsed(reason string)
}

type nopObserver struct{}

func (nopObserver) SearchCompleted(string) {}
func (nopObserver) VariantDispatched()     {}
func (nopObserver) VariantFailed(string)   {}
func (nopObserver) FallbackUsed(string)    {}

// Engine coordinates searches. It is safe for concurrent use.
type Engine struct {
	catalog    Catalog
	cache      *cache.ResultCache
	fallback   fallback.Generator
	observer   Observer
	workers    *semaphore.Weighted
	flight     singleflight.Group
	pageSize   int
	retryDelay time.Duration
	hasAPIKey  bool
	sleep      func(time.Duration)
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the result cache shared by all searches.
func WithCache(c *cache.ResultCache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithFallback sets the generator used when the catalog yields nothing.
func WithFallback(g fallback.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.fallback = g
		}
	}
}

// WithObserver sets the event observer, typically a metrics recorder.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithWorkers sets the size of the shared request worker pool.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithPageSize sets the default result count and page size.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithRetryDelay sets the pause before a scarce phrase variant retries.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.retryDelay = d
		}
	}
}

// WithAPIKey overrides whether the catalog credential is configured. By
// default it is taken from the catalog when it exposes HasAPIKey.
func WithAPIKey(present bool) Option {
	return func(e *Engine) {
		e.hasAPIKey = present
	}
}

// New creates an Engine over the given catalog.
func New(c Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:    c,
		fallback:   fallback.Empty{},
		observer:   nopObserver{},
		workers:    semaphore.NewWeighted(DefaultWorkers),
		pageSize:   DefaultPageSize,
		retryDelay: DefaultRetryDelay,
		hasAPIKey:  true,
		sleep:      time.Sleep,
	}
	if k, ok := c.(interface{ HasAPIKey() bool }); ok {
		e.hasAPIKey = k.HasAPIKey()
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		// positive capacity never fails
		e.cache, _ = cache.New(cache.DefaultCapacity)
	}
	return e
}

// Cache returns the engine's result cache.
func (e *Engine) Cache() *cache.ResultCache {
	return e.cache
}

// ClearCache drops every cached result.
func (e *Engine) ClearCache() {
	e.cache.EvictAll()
	slog.Debug("Search cache cleared")
}

// SearchAsync starts a search and returns a channel that receives exactly
// one Result and is then closed. Cancelling ctx does not cancel requests
// already dispatched.
func (e *Engine) SearchAsync(ctx context.Context, query string, maxResults int) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- e.Search(ctx, query, maxResults)
	}()
	return ch
}

// Search runs a query to completion and returns its single result.
//
// An empty query yields an empty list without I/O. A cached query is served
// from the cache. Without an API key, or when every variant fails or
// returns nothing, the fallback generator answers instead; fallback output
// is never cached. Otherwise the merged variant results are ranked,
// truncated to maxResults and cached.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) Result {
	q := NormalizeQuery(query)
	res := Result{SearchID: uuid.NewString(), Query: q}
	logger := slog.With("search_id", res.SearchID, "query", q)

	if q == "" {
		res.Origin = OriginEmpty
		res.Books = []catalog.Book{}
		return e.deliver(logger, res)
	}
	if maxResults <= 0 {
		maxResults = e.pageSize
	}

	key := cache.SearchKey(q, maxResults)
	if books, ok := e.cache.Get(key); ok {
		res.Origin = OriginCache
		res.Books = books
		return e.deliver(logger, res)
	}

	if !e.hasAPIKey {
		return e.deliver(logger, e.useFallback(logger, res, "no api key"))
	}

	detached := context.WithoutCancel(ctx)
	v, _, shared := e.flight.Do(key, func() (any, error) {
		return e.searchRemote(detached, logger, res, key, maxResults), nil
	})

	out := v.(Result)
	if shared {
		out.SearchID = res.SearchID
		out.Books = slices.Clone(out.Books)
	}
	return e.deliver(logger, out)
}

func (e *Engine) searchRemote(ctx context.Context, logger *slog.Logger, res Result, key string, maxResults int) Result {
	variants := Enhance(res.Query)
	for _, v := range variants {
		res.Variants = append(res.Variants, v.Query)
	}
	logger.Debug("Dispatching variants", "variants", res.Variants)

	perVariant := min(maxResults, googlebooks.MaxResultsCap)
	state := e.fanOut(ctx, logger, res.Query, variants, perVariant)

	merged, hadError, quota := state.snapshot()
	if len(merged) == 0 {
		reason := "no results"
		switch {
		case quota:
			reason = "quota exhausted"
		case hadError:
			reason = "all variants failed"
		}
		return e.useFallback(logger, res, reason)
	}
	if hadError {
		logger.Info("Some variants failed, serving partial results", "results", len(merged))
	}

	ranked := Rank(merged, res.Query)
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	e.cache.Put(key, ranked)

	res.Origin = OriginRemote
	res.Books = ranked
	return res
}

func (e *Engine) useFallback(logger *slog.Logger, res Result, reason string) Result {
	logger.Info("Using fallback results", "reason", reason)
	e.observer.FallbackUsed(reason)

	res.Origin = OriginFallback
	res.Books = e.fallback.Generate(res.Query)
	if res.Books == nil {
		res.Books = []catalog.Book{}
	}
	return res
}

func (e *Engine) deliver(logger *slog.Logger, res Result) Result {
	e.observer.SearchCompleted(string(res.Origin))
	logger.Debug("Search completed", "origin", res.Origin, "results", len(res.Books))
	return res
}

// SearchPage fetches one page of results for query with a single catalog
// request. Pages are zero-based and hold the page size, capped at
// googlebooks.MaxResultsCap, so consecutive pages never skip records. An empty first page is answered by the
// fallback generator; an empty later page is simply empty.
func (e *Engine) SearchPage(ctx context.Context, query string, page int) Result {
	q := NormalizeQuery(query)
	res := Result{SearchID: uuid.NewString(), Query: q}
	logger := slog.With("search_id", res.SearchID, "query", q, "page", page)

	if q == "" {
		res.Origin = OriginEmpty
		res.Books = []catalog.Book{}
		return e.deliver(logger, res)
	}
	page = max(page, 0)

	key := cache.PageKey(q, page)
	if books, ok := e.cache.Get(key); ok {
		res.Origin = OriginCache
		res.Books = books
		return e.deliver(logger, res)
	}

	if !e.hasAPIKey {
		if page == 0 {
			return e.deliver(logger, e.useFallback(logger, res, "no api key"))
		}
		res.Origin = OriginFallback
		res.Books = []catalog.Book{}
		return e.deliver(logger, res)
	}

	res.Variants = []string{q}
	size := min(e.pageSize, googlebooks.MaxResultsCap)
	books, err := e.fetch(context.WithoutCancel(ctx), q, size, page*size)
	if err != nil {
		logger.Warn("Page request failed", "error", err)
	}
	books = catalog.Dedupe(books)

	if len(books) == 0 {
		if page == 0 {
			return e.deliver(logger, e.useFallback(logger, res, "no results"))
		}
		res.Origin = OriginRemote
		res.Books = []catalog.Book{}
		return e.deliver(logger, res)
	}

	ranked := Rank(books, q)
	e.cache.Put(key, ranked)
	res.Origin = OriginRemote
	res.Books = ranked
	return e.deliver(logger, res)
}

// Browse clears the cache and then searches each category concurrently,
// returning results keyed by category. With no categories given,
// DefaultCategories are used.
func (e *Engine) Browse(ctx context.Context, categories []string, perCategory int) map[string]Result {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	e.ClearCache()

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(categories))
		g       errgroup.Group
	)
	for _, category := range categories {
		g.Go(func() error {
			res := e.Search(ctx, category, perCategory)
			mu.Lock()
			results[category] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}
