package googlebooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bkerrors "github.com/xdearboy/bookkeeper/internal/errors"
	"github.com/xdearboy/bookkeeper/internal/ratelimit"
)

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, &url.Error{Op: "Get", URL: "http://catalog.test", Err: errors.New("connection refused")}
}

func TestVolumesSendsExpectedParameters(t *testing.T) {
	fixture, err := os.ReadFile(filepath.Join("testdata", "volumes.json"))
	require.NoError(t, err)

	var got url.Values
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL+"/"),
		WithHTTPClient(server.Client()),
		WithAPIKey(" secret "),
		WithLanguage("fi"),
	)
	require.True(t, client.HasAPIKey())

	resp, err := client.Volumes(context.Background(), Request{Query: `"war and peace"`, MaxResults: 20, StartIndex: 40})
	require.NoError(t, err)

	assert.Equal(t, "/volumes", path)
	assert.Equal(t, `"war and peace"`, got.Get("q"))
	assert.Equal(t, "20", got.Get("maxResults"))
	assert.Equal(t, "fi", got.Get("langRestrict"))
	assert.Equal(t, "40", got.Get("startIndex"))
	assert.Equal(t, "secret", got.Get("key"))
	assert.Equal(t, 3, resp.TotalItems)
	assert.Len(t, resp.Items, 3)
}

func TestVolumesClampsMaxResultsAndOmitsDefaults(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	assert.False(t, client.HasAPIKey())

	resp, err := client.Volumes(context.Background(), Request{Query: "dune", MaxResults: 500})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	assert.Equal(t, "40", got.Get("maxResults"))
	assert.Equal(t, "en", got.Get("langRestrict"))
	assert.False(t, got.Has("startIndex"))
	assert.False(t, got.Has("key"))
}

func TestVolumesStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		quota  bool
	}{
		{name: "quota", status: http.StatusForbidden, body: "Daily Limit Exceeded", quota: true},
		{name: "server error", status: http.StatusInternalServerError, body: "oops"},
		{name: "bad request", status: http.StatusBadRequest, body: "API key not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
			_, err := client.Volumes(context.Background(), Request{Query: "dune"})
			require.Error(t, err)

			var catalogErr *bkerrors.CatalogError
			require.ErrorAs(t, err, &catalogErr)
			assert.Equal(t, tt.status, catalogErr.StatusCode)
			assert.Equal(t, tt.body, catalogErr.APIMessage)
			assert.Equal(t, tt.quota, bkerrors.IsQuotaExhausted(err))
		})
	}
}

func TestVolumesErrorBodyIsTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, strings.Repeat("x", 4096))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	_, err := client.Volumes(context.Background(), Request{Query: "dune"})

	var catalogErr *bkerrors.CatalogError
	require.ErrorAs(t, err, &catalogErr)
	assert.Len(t, catalogErr.APIMessage, errorBodyLimit)
}

func TestVolumesTransportFailure(t *testing.T) {
	client := NewClient(WithHTTPClient(failingDoer{}))

	_, err := client.Volumes(context.Background(), Request{Query: "dune"})
	require.Error(t, err)
	assert.True(t, bkerrors.IsTransportError(err))
	assert.False(t, bkerrors.IsCatalogError(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestVolumesDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	_, err := client.Volumes(context.Background(), Request{Query: "dune"})
	require.Error(t, err)
	assert.True(t, bkerrors.IsTransportError(err))
	assert.Contains(t, err.Error(), "decode response")
}

func TestVolumesTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))
	_, err := client.Volumes(context.Background(), Request{Query: "dune"})
	require.Error(t, err)
	assert.True(t, bkerrors.IsTransportError(err))
}

func TestVolumesRateLimitWaitFailure(t *testing.T) {
	limiter := ratelimit.NewWithBurst("GoogleBooks", 1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithHTTPClient(failingDoer{}), WithRateLimiter(limiter))
	_, err := client.Volumes(ctx, Request{Query: "dune"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
