package fileutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdearboy/bookkeeper/internal/testutil"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageServer(t *testing.T, body []byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBuildCoverFilename(t *testing.T) {
	assert.Equal(t, "Dune - cover.jpg", BuildCoverFilename("Dune"))
	assert.Equal(t, "Dune - Messiah - cover.jpg", BuildCoverFilename("Dune: Messiah"))
}

func TestDownloadCover_EmptyURL(t *testing.T) {
	result, err := DownloadCover(context.Background(), CoverDownloadOptions{OutputDir: t.TempDir(), Filename: "x.jpg"})
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestDownloadCover_ResizesWideImages(t *testing.T) {
	server := imageServer(t, pngBytes(t, 80, 40), nil)
	env := testutil.NewTestEnv(t)

	result, err := DownloadCover(context.Background(), CoverDownloadOptions{
		URL:       server.URL,
		OutputDir: env.RootDir(),
		Filename:  "Dune - cover.jpg",
		MaxWidth:  20,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Downloaded)
	assert.Equal(t, filepath.Join("attachments", "Dune - cover.jpg"), result.RelativePath)
	assert.Equal(t, env.Path("attachments", "Dune - cover.jpg"), result.LocalPath)

	img, err := imaging.Open(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy(), "aspect ratio is kept")
}

func TestDownloadCover_KeepsNarrowImages(t *testing.T) {
	server := imageServer(t, pngBytes(t, 16, 24), nil)
	env := testutil.NewTestEnv(t)

	result, err := DownloadCover(context.Background(), CoverDownloadOptions{
		URL:       server.URL,
		OutputDir: env.RootDir(),
		Filename:  "narrow.jpg",
	})
	require.NoError(t, err)

	img, err := imaging.Open(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDownloadCover_SkipsExisting(t *testing.T) {
	var hits atomic.Int32
	server := imageServer(t, pngBytes(t, 8, 8), &hits)
	env := testutil.NewTestEnv(t)
	env.WriteFileString("attachments/existing.jpg", "old image data")

	result, err := DownloadCover(context.Background(), CoverDownloadOptions{
		URL:       server.URL,
		OutputDir: env.RootDir(),
		Filename:  "existing.jpg",
	})
	require.NoError(t, err)
	assert.False(t, result.Downloaded)
	assert.Zero(t, hits.Load())
	assert.Equal(t, "old image data", env.ReadFileString("attachments/existing.jpg"))

	result, err = DownloadCover(context.Background(), CoverDownloadOptions{
		URL:          server.URL,
		OutputDir:    env.RootDir(),
		Filename:     "existing.jpg",
		UpdateCovers: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Downloaded)
	assert.EqualValues(t, 1, hits.Load())
}

func TestDownloadCover_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := DownloadCover(context.Background(), CoverDownloadOptions{
		URL:       server.URL,
		OutputDir: t.TempDir(),
		Filename:  "missing.jpg",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestDownloadCover_NotAnImage(t *testing.T) {
	server := imageServer(t, []byte("definitely not an image"), nil)
	dir := t.TempDir()

	_, err := DownloadCover(context.Background(), CoverDownloadOptions{
		URL:       server.URL,
		OutputDir: dir,
		Filename:  "broken.jpg",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode cover")

	_, statErr := os.Stat(filepath.Join(dir, "attachments", "broken.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}
