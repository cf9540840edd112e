package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xdearboy/bookkeeper/internal/catalog"
	bkerrors "github.com/xdearboy/bookkeeper/internal/errors"
	"github.com/xdearboy/bookkeeper/internal/googlebooks"
)

const (
	// retryThreshold is the result count below which a variant retries.
	retryThreshold = 5
	// enhancementKeyword is appended to short queries on the enhancement retry.
	enhancementKeyword = "book"
)

// fanOutState accumulates variant results for one search. All fields but
// peers are guarded by mu.
type fanOutState struct {
	// peers counts the non-primary variants that have not completed yet.
	peers sync.WaitGroup

	mu          sync.Mutex
	accumulated []catalog.Book
	completed   int
	total       int
	hadError    bool
	quota       bool
}

func newFanOutState(total int) *fanOutState {
	return &fanOutState{total: total, accumulated: []catalog.Book{}}
}

// complete records one variant's outcome. It reports whether this was the
// last outstanding variant.
func (s *fanOutState) complete(out variantOutcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed++
	if out.failed() {
		s.hadError = true
	}
	if out.quota {
		s.quota = true
	}
	s.accumulated = catalog.Merge(s.accumulated, out.books)

	return s.completed == s.total
}

// countWith returns the size of the accumulated set merged with books.
func (s *fanOutState) countWith(books []catalog.Book) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(catalog.Merge(s.accumulated, books))
}

func (s *fanOutState) snapshot() ([]catalog.Book, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accumulated, s.hadError, s.quota
}

type variantOutcome struct {
	books []catalog.Book
	err   error
	quota bool
}

// failed means no attempt produced books and at least one returned an error.
func (o variantOutcome) failed() bool {
	return o.err != nil && len(o.books) == 0
}

func (o *variantOutcome) absorb(books []catalog.Book, err error) {
	if err != nil {
		if o.err == nil {
			o.err = err
		}
		if bkerrors.IsQuotaExhausted(err) {
			o.quota = true
		}
		return
	}
	o.books = catalog.Merge(o.books, books)
}

// fanOut dispatches every variant concurrently and blocks until all of them
// have completed. The returned state is final.
func (e *Engine) fanOut(ctx context.Context, logger *slog.Logger, query string, variants []Variant, perVariant int) *fanOutState {
	state := newFanOutState(len(variants))
	for _, v := range variants {
		if !v.Primary {
			state.peers.Add(1)
		}
	}

	var g errgroup.Group
	for _, v := range variants {
		g.Go(func() error {
			out := e.runVariant(ctx, logger, query, v, perVariant, state)
			if out.failed() {
				logger.Warn("Variant failed", "variant", v.Kind.String(), "query", v.Query, "error", out.err)
			}
			if state.complete(out) {
				logger.Debug("All variants completed", "variants", len(variants))
			}
			if !v.Primary {
				state.peers.Done()
			}
			return nil
		})
	}
	_ = g.Wait()

	return state
}

// runVariant executes one variant including its retries. Each variant
// makes at most one follow-up request per retry kind. The enhancement retry
// of the primary variant waits for every other variant and counts the
// whole accumulated set.
func (e *Engine) runVariant(ctx context.Context, logger *slog.Logger, query string, v Variant, perVariant int, state *fanOutState) variantOutcome {
	var out variantOutcome
	out.absorb(e.fetch(ctx, v.Query, perVariant, 0))

	if out.quota {
		return out
	}

	if v.Kind == VariantPhrase && len(out.books) < retryThreshold {
		e.sleep(e.retryDelay)
		follow := unquote(v.Query)
		logger.Debug("Phrase variant scarce, retrying unquoted", "results", len(out.books), "query", follow)
		out.absorb(e.fetch(ctx, follow, perVariant, 0))
		if out.quota {
			return out
		}
	}

	if v.Primary && len(out.books) < retryThreshold && isShort(query) {
		state.peers.Wait()
		if total := state.countWith(out.books); total < retryThreshold {
			enhanced := query + " " + enhancementKeyword
			logger.Debug("Results scarce, retrying with enhancement", "results", total, "query", enhanced)
			out.absorb(e.fetch(ctx, enhanced, perVariant, 0))
		}
	}

	return out
}

// fetch performs one catalog request inside the shared worker pool.
func (e *Engine) fetch(ctx context.Context, query string, maxResults, startIndex int) ([]catalog.Book, error) {
	if err := e.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.workers.Release(1)

	e.observer.VariantDispatched()
	start := time.Now()
	resp, err := e.catalog.Volumes(ctx, googlebooks.Request{
		Query:      query,
		MaxResults: maxResults,
		StartIndex: startIndex,
	})
	if err != nil {
		e.observer.VariantFailed(string(bkerrors.KindOf(err)))
		return nil, err
	}

	books := googlebooks.ToBooks(resp)
	slog.Debug("Catalog request completed", "query", query, "results", len(books), "elapsed", time.Since(start))
	return books, nil
}
