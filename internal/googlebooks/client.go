// Package googlebooks is a client for the Google Books volumes search API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	bkerrors "github.com/xdearboy/bookkeeper/internal/errors"
	"github.com/xdearboy/bookkeeper/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public Google Books API root.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	// MaxResultsCap is the largest maxResults the API accepts.
	MaxResultsCap = 40

	defaultTimeout  = 10 * time.Second
	defaultLanguage = "en"
	errorBodyLimit  = 512
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client executes volumes searches.
type Client struct {
	apiKey      string
	baseURL     string
	language    string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// NewClient creates a new Google Books client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    DefaultBaseURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithAPIKey sets the API key sent with every request.
func WithAPIKey(key string) Option {
	return func(client *Client) {
		client.apiKey = strings.TrimSpace(key)
	}
}

// WithLanguage sets the two-letter langRestrict code.
func WithLanguage(lang string) Option {
	return func(client *Client) {
		if lang != "" {
			client.language = lang
		}
	}
}

// WithRateLimiter sets a rate limiter for outgoing requests.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		client.rateLimiter = limiter
	}
}

// HasAPIKey reports whether a non-empty key is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Volumes runs one search request. Non-2xx responses return a
// *errors.CatalogError; everything else that goes wrong returns a
// *errors.TransportError.
func (c *Client) Volumes(ctx context.Context, req Request) (*VolumesResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, bkerrors.NewTransportError("rate limit", err)
	}

	endpoint := c.volumesURL(req)
	slog.Debug("Querying catalog", "query", req.Query, "max_results", req.MaxResults, "start_index", req.StartIndex)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, bkerrors.NewTransportError("build request", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, bkerrors.NewTransportError("search", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, bkerrors.NewCatalogError(resp.StatusCode, string(body))
	}

	var result VolumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, bkerrors.NewTransportError("decode response", err)
	}

	return &result, nil
}

func (c *Client) volumesURL(req Request) string {
	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > MaxResultsCap {
		maxResults = MaxResultsCap
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("langRestrict", c.language)
	if req.StartIndex > 0 {
		params.Set("startIndex", strconv.Itoa(req.StartIndex))
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	return fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
}
