// Package server exposes the search engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xdearboy/bookkeeper/internal/catalog"
	"github.com/xdearboy/bookkeeper/internal/search"
)

const (
	searchIDHeader = "X-Search-Id"
	maxResultsCap  = 100
	shutdownGrace  = 5 * time.Second
)

// Searcher is the part of the engine the HTTP layer needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) search.Result
	SearchPage(ctx context.Context, query string, page int) search.Result
	Browse(ctx context.Context, categories []string, perCategory int) map[string]search.Result
	ClearCache()
}

// SearchResponse is the JSON body of every search endpoint.
type SearchResponse struct {
	SearchID string         `json:"search_id"`
	Query    string         `json:"query"`
	Origin   string         `json:"origin"`
	Books    []catalog.Book `json:"books"`
}

type router struct {
	engine     Searcher
	defaultMax int
}

// NewRouter wires the HTTP endpoints. metrics may be nil.
func NewRouter(engine Searcher, metrics http.Handler, defaultMax int) (*chi.Mux, error) {
	if engine == nil {
		return nil, fmt.Errorf("search engine is required")
	}
	if defaultMax <= 0 {
		defaultMax = search.DefaultPageSize
	}
	r := &router{engine: engine, defaultMax: defaultMax}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Get("/healthz", r.handleHealthz)
	mux.Route("/v1", func(v1 chi.Router) {
		v1.Get("/search", r.handleSearch)
		v1.Get("/search/page", r.handleSearchPage)
		v1.Get("/browse", r.handleBrowse)
		v1.Delete("/cache", r.handleClearCache)
	})
	if metrics != nil {
		mux.Method(http.MethodGet, "/metrics", metrics)
	}

	return mux, nil
}

func (r *router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *router) handleSearch(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query().Get("q")
	maxResults, err := parseInt(req.URL.Query().Get("max"), r.defaultMax)
	if err != nil || maxResults <= 0 || maxResults > maxResultsCap {
		http.Error(w, "invalid max", http.StatusBadRequest)
		return
	}

	writeResult(w, r.engine.Search(req.Context(), query, maxResults))
}

func (r *router) handleSearchPage(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query().Get("q")
	page, err := parseInt(req.URL.Query().Get("page"), 0)
	if err != nil || page < 0 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}

	writeResult(w, r.engine.SearchPage(req.Context(), query, page))
}

func (r *router) handleBrowse(w http.ResponseWriter, req *http.Request) {
	per, err := parseInt(req.URL.Query().Get("per"), r.defaultMax)
	if err != nil || per <= 0 || per > maxResultsCap {
		http.Error(w, "invalid per", http.StatusBadRequest)
		return
	}

	var categories []string
	for _, c := range req.URL.Query()["category"] {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	results := r.engine.Browse(req.Context(), categories, per)
	body := make(map[string]SearchResponse, len(results))
	for category, res := range results {
		body[category] = toResponse(res)
	}
	writeJSON(w, body)
}

func (r *router) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	r.engine.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func toResponse(res search.Result) SearchResponse {
	books := res.Books
	if books == nil {
		books = []catalog.Book{}
	}
	return SearchResponse{
		SearchID: res.SearchID,
		Query:    res.Query,
		Origin:   string(res.Origin),
		Books:    books,
	}
}

func writeResult(w http.ResponseWriter, res search.Result) {
	if res.SearchID != "" {
		w.Header().Set(searchIDHeader, res.SearchID)
	}
	writeJSON(w, toResponse(res))
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func parseInt(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	slog.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
